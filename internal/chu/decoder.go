package chu

import (
	"github.com/charmbracelet/log"

	"github.com/dbehnke/digimodes/internal/bits"
)

// Handler receives what the decoder finds in the stream.
type Handler interface {
	HandleFrame(Frame)
	// HandleSyncMiss reports samples dropped while no preamble was found.
	HandleSyncMiss(dropped int)
}

// Decoder finds CHU messages in a bit-sample stream. Apart from the year
// remembered from the last B frame it keeps no state between calls.
type Decoder struct {
	samplesPerBit int
	messageLength int
	handler       Handler
	log           *log.Logger

	message [MESSAGE_BITS]uint8
	year    int
}

// NewDecoder creates a decoder for samplesPerBit bit samples per CHU bit.
// A value below 1 selects DEFAULT_SAMPLES_PER_BIT.
func NewDecoder(samplesPerBit int, handler Handler, logger *log.Logger) *Decoder {
	if samplesPerBit < 1 {
		samplesPerBit = DEFAULT_SAMPLES_PER_BIT
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Decoder{
		samplesPerBit: samplesPerBit,
		messageLength: MESSAGE_BITS * samplesPerBit,
		handler:       handler,
		log:           logger.WithPrefix("chu"),
	}
}

// MessageLength returns the number of samples in one message after the
// preamble.
func (d *Decoder) MessageLength() int {
	return d.messageLength
}

// Year returns the year from the most recent B frame, or 0.
func (d *Decoder) Year() int {
	return d.year
}

// Forecast returns the smallest window the decoder can act on.
func (d *Decoder) Forecast(int) int {
	return PREAMBLE_LENGTH + d.messageLength
}

// Work searches in for a preamble followed by a complete message. The
// decoder has no stream output; out is ignored.
func (d *Decoder) Work(in []uint8, out []uint8) (int, int) {
	need := PREAMBLE_LENGTH + d.messageLength
	if len(in) < need {
		return 0, 0
	}

	index := bits.Find(in, Preamble, len(in)-d.messageLength)
	if index < 0 {
		// Nothing before the last need samples can start a full message.
		dropped := len(in) - need
		d.log.Debug("no preamble", "window", len(in), "dropped", dropped)
		if d.handler != nil && dropped > 0 {
			d.handler.HandleSyncMiss(dropped)
		}
		return dropped, 0
	}

	start := index + PREAMBLE_LENGTH
	RecoverBits(d.message[:], in[start:start+d.messageLength], d.samplesPerBit)

	frame := DecodeMessage(d.message[:])
	switch frame.Kind {
	case KindB:
		d.year = frame.Year
	case KindA:
		if t, ok := frame.Timestamp(d.year); ok {
			frame.Time = t
		}
	}
	if frame.Err != nil {
		d.log.Warn("frame rejected", "offset", index, "err", frame.Err)
	}

	if d.handler != nil {
		d.handler.HandleFrame(frame)
	}

	return start + d.messageLength, 0
}

// RecoverBits integrates samplesPerBit samples per output bit, counting a 1
// sample as +1 and a 0 sample as -1. A positive sum gives a 1 bit; a zero
// or negative sum gives a 0 bit.
func RecoverBits(dst []uint8, samples []uint8, samplesPerBit int) {
	for i := range dst {
		sum := 0
		for _, s := range samples[i*samplesPerBit : (i+1)*samplesPerBit] {
			sum += 2*int(s&1) - 1
		}
		if sum > 0 {
			dst[i] = 1
		} else {
			dst[i] = 0
		}
	}
}
