package dstar

import (
	"github.com/dbehnke/digimodes/internal/bits"
	"github.com/dbehnke/digimodes/internal/correction"
)

// Inverses of the receive pipeline, used to synthesise transmissions.

func headerBytes(rpt2, rpt1, your, my, suffix string) [HEADER_BYTES]byte {
	var raw [HEADER_BYTES]byte
	put := func(dst []byte, s string) {
		for i := range dst {
			dst[i] = ' '
		}
		copy(dst, s)
	}
	put(raw[3:11], rpt2)
	put(raw[11:19], rpt1)
	put(raw[19:27], your)
	put(raw[27:35], my)
	put(raw[35:39], suffix)
	correction.AddCCITT161(raw[:])
	return raw
}

func encodeHeader(raw [HEADER_BYTES]byte) bits.Bits {
	decoded := make(bits.Bits, HEADER_BYTES*8)
	bits.Unpack(decoded, raw[:])
	bits.ReverseBytes(decoded, decoded)

	coded := make(bits.Bits, HEADER_LENGTH)
	var prev, prevPrev uint8
	for x, bit := range decoded {
		coded[2*x] = bit ^ prev ^ prevPrev
		prevPrev = prev
		prev = bit
	}

	interleaved := make(bits.Bits, HEADER_LENGTH)
	index := 0
	for row := 0; row < 24; row++ {
		cols := 28
		if row >= 12 {
			cols = 27
		}
		for col := 0; col < cols; col++ {
			interleaved[index] = coded[row+24*col]
			index++
		}
	}

	out := make(bits.Bits, HEADER_LENGTH)
	Descramble(out, interleaved)
	return out
}

// encodeCodewords builds a voice frame from two channel code words and
// the 24 unprotected bits.
func encodeCodewords(first, second, rest uint32) bits.Bits {
	d := make(bits.Bits, VOICE_FRAME_LENGTH)
	bits.PutUint(d[0:24], first, 24)
	bits.PutUint(d[24:48], second, 24)
	bits.PutUint(d[48:72], rest, 24)

	r := make(bits.Bits, VOICE_FRAME_LENGTH)
	for k := 0; k < 6; k++ {
		for j := 0; j < 12; j++ {
			r[6*j+k] = d[12*k+j]
		}
	}
	bits.ReverseBytes(r, r)
	return r
}

// encodeVoice builds a voice frame whose decoded 48 voice bits are voice.
func encodeVoice(voice [VOICE_BYTES]byte) bits.Bits {
	v := make(bits.Bits, VOICE_BITS)
	bits.Unpack(v, voice[:])
	a := bits.Uint(v[0:12])
	b := bits.Uint(v[12:24])
	c := bits.Uint(v[24:48])
	first := correction.Golay24128Encode(a)
	second := correction.Golay24128Encode(b) ^ PRNG(a)
	return encodeCodewords(first, second, c)
}

func encodeData(data [DATA_BYTES]byte) bits.Bits {
	d := make(bits.Bits, DATA_FRAME_LENGTH)
	bits.Unpack(d, data[:])
	bits.ReverseBytes(d, d)
	Descramble(d, d)
	return d
}

// dtmfVoice returns voice bits carrying a DTMF tone.
func dtmfVoice(tone int, amplitude uint8) [VOICE_BYTES]byte {
	v := make(bits.Bits, VOICE_BITS)
	bits.PutUint(v[0:7], FUND_FREQ_DTMF, 7)
	bits.PutUint(v[10:12], uint32(tone>>2), 2)
	bits.PutUint(v[41:43], uint32(tone&3), 2)
	bits.PutUint(v[12:18], uint32(amplitude>>2), 6)
	bits.PutUint(v[43:45], uint32(amplitude&3), 2)
	var out [VOICE_BYTES]byte
	bits.Pack(out[:], v)
	return out
}

func silenceVoice() [VOICE_BYTES]byte {
	v := make(bits.Bits, VOICE_BITS)
	bits.PutUint(v[0:7], FUND_FREQ_SILENCE, 7)
	var out [VOICE_BYTES]byte
	bits.Pack(out[:], v)
	return out
}

// transmission builds sync + header + one superframe per voice payload,
// with the last payload followed by the terminator.
func transmission(raw [HEADER_BYTES]byte, voices [][VOICE_BYTES]byte, data [DATA_BYTES]byte) bits.Bits {
	parts := []bits.Bits{HeaderSync, encodeHeader(raw)}
	for i, v := range voices {
		parts = append(parts, encodeVoice(v))
		if i == len(voices)-1 {
			parts = append(parts, Terminator)
		} else {
			parts = append(parts, encodeData(data))
		}
	}
	return bits.Concat(parts...)
}
