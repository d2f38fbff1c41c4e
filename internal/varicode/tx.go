package varicode

// TXEncoder turns bytes into delimited code words, one byte per Work call.
type TXEncoder struct {
	dropped uint64
}

// NewTXEncoder returns an encoder.
func NewTXEncoder() *TXEncoder {
	return &TXEncoder{}
}

// Forecast returns the input bytes needed to fill nOutput bit samples when
// every byte encodes to the longest symbol, and never less than one.
func (e *TXEncoder) Forecast(nOutput int) int {
	n := (nOutput + MAX_SYMBOL_LENGTH - 1) / MAX_SYMBOL_LENGTH
	if n < 1 {
		n = 1
	}
	return n
}

// Work encodes in[0]. It stalls without consuming when out cannot hold
// the whole symbol, and drops bytes that have no code word.
func (e *TXEncoder) Work(in []uint8, out []uint8) (int, int) {
	if len(in) == 0 {
		return 0, 0
	}

	c, ok := Encode(in[0])
	if !ok {
		e.dropped++
		return 1, 0
	}

	n := int(c.Len) + len(Delimiter)
	if len(out) < n {
		return 0, 0
	}
	c.Put(out)
	out[c.Len] = 0
	out[c.Len+1] = 0
	return 1, n
}

// Dropped returns the number of bytes without a code word.
func (e *TXEncoder) Dropped() uint64 {
	return e.dropped
}
