package varicode

import (
	"github.com/charmbracelet/log"

	"github.com/dbehnke/digimodes/internal/bits"
)

// RXDecoder turns bit samples into bytes, one code word per Work call.
// The zero value is ready to use.
type RXDecoder struct {
	logger  *log.Logger
	decoded uint64
	dropped uint64
}

// NewRXDecoder returns a decoder that logs dropped code words at debug.
func NewRXDecoder(logger *log.Logger) *RXDecoder {
	return &RXDecoder{logger: logger}
}

// Forecast asks for eight bit samples per output byte.
func (d *RXDecoder) Forecast(nOutput int) int {
	return 8 * nOutput
}

// Work skips leading zeros, then decodes the first delimited code word.
// Without a delimiter in the window only the leading zeros are consumed.
func (d *RXDecoder) Work(in []uint8, out []uint8) (int, int) {
	skip := 0
	for skip < len(in) && in[skip] == 0 {
		skip++
	}
	if len(out) == 0 {
		return skip, 0
	}

	rest := in[skip:]
	k := bits.Find(rest, Delimiter, len(rest))
	if k < 0 {
		return skip, 0
	}
	consumed := skip + k + len(Delimiter)

	if c, ok := CodeOf(rest[:k]); ok {
		if b, ok := Decode(c); ok {
			out[0] = b
			d.decoded++
			return consumed, 1
		}
	}

	d.dropped++
	if d.logger != nil {
		d.logger.Debug("unknown varicode word", "bits", bits.Bits(rest[:k]).String())
	}
	return consumed, 0
}

// Decoded returns the number of bytes produced so far.
func (d *RXDecoder) Decoded() uint64 {
	return d.decoded
}

// Dropped returns the number of unknown code words discarded.
func (d *RXDecoder) Dropped() uint64 {
	return d.dropped
}
