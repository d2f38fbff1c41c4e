package dstar

import (
	"fmt"

	"github.com/dbehnke/digimodes/internal/bits"
	"github.com/dbehnke/digimodes/internal/correction"
)

// FundamentalKind classifies the AMBE fundamental-frequency field.
type FundamentalKind int

const (
	FundamentalVoice FundamentalKind = iota
	FundamentalSilence
	FundamentalDTMF
)

// Fundamental is the decoded 7-bit fundamental-frequency field of a voice
// frame. Tone and Amplitude are only set for FundamentalDTMF.
type Fundamental struct {
	Kind      FundamentalKind
	Value     uint8
	Tone      byte
	Amplitude uint8
}

func (f Fundamental) String() string {
	switch f.Kind {
	case FundamentalSilence:
		return "Silence"
	case FundamentalDTMF:
		return fmt.Sprintf("DTMF Tone: %c, Amplitude: %d", f.Tone, f.Amplitude)
	default:
		return fmt.Sprintf("%03d", f.Value)
	}
}

// Superframe is one decoded voice/data frame pair.
type Superframe struct {
	Index       int // position within the transmission, from zero
	Voice       [VOICE_BYTES]byte
	Data        [DATA_BYTES]byte
	Fundamental Fundamental
	Corrected   int  // Golay bit errors corrected, when correction is on
	End         bool // followed by the end-of-transmission pattern
}

// voiceScratch holds the intermediate buffers of superframe decoding.
type voiceScratch struct {
	reversed      [VOICE_FRAME_LENGTH]uint8
	deinterleaved [VOICE_FRAME_LENGTH]uint8
	voice         [VOICE_BITS]uint8
	data          [DATA_FRAME_LENGTH]uint8
}

// decodeVoice fills sf.Voice and sf.Fundamental from VOICE_FRAME_LENGTH bits.
func (s *voiceScratch) decodeVoice(sf *Superframe, frame []uint8, golay bool) {
	bits.ReverseBytes(s.reversed[:], frame[:VOICE_FRAME_LENGTH])
	deinterleaveVoice(s.deinterleaved[:], s.reversed[:])
	d := s.deinterleaved[:]

	first := bits.Uint(d[0:24])
	second := bits.Uint(d[24:48])
	var firstData, secondData uint32
	if golay {
		var e1, e2 uint8
		firstData, e1 = correction.Golay24128Decode(first)
		secondData, e2 = correction.Golay24128Decode(second ^ PRNG(firstData))
		sf.Corrected = golayErrors(e1) + golayErrors(e2)
	} else {
		firstData = first >> 12
		secondData = (second ^ PRNG(firstData)) >> 12
	}

	bits.PutUint(s.voice[0:12], firstData, 12)
	bits.PutUint(s.voice[12:24], secondData, 12)
	copy(s.voice[24:48], d[48:72])
	bits.Pack(sf.Voice[:], s.voice[:])
	sf.Fundamental = classifyFundamental(s.voice[:])
}

// decodeData descrambles and repacks the slow-data bits of a frame.
func (s *voiceScratch) decodeData(sf *Superframe, frame []uint8) {
	Descramble(s.data[:], frame[:DATA_FRAME_LENGTH])
	bits.ReverseBytes(s.data[:], s.data[:])
	bits.Pack(sf.Data[:], s.data[:])
}

// deinterleaveVoice gathers every sixth bit: dst[12k+j] = src[6j+k].
func deinterleaveVoice(dst, src []uint8) {
	for k := 0; k < 6; k++ {
		for j := 0; j < 12; j++ {
			dst[12*k+j] = src[6*j+k]
		}
	}
}

func classifyFundamental(voice []uint8) Fundamental {
	f := Fundamental{Value: uint8(bits.Uint(voice[0:7]))}
	switch f.Value {
	case FUND_FREQ_SILENCE:
		f.Kind = FundamentalSilence
	case FUND_FREQ_DTMF:
		f.Kind = FundamentalDTMF
		tone := bits.Uint(voice[10:12])<<2 | bits.Uint(voice[41:43])
		f.Tone = DTMF_TONES[tone]
		f.Amplitude = uint8(bits.Uint(voice[12:18])<<2 | bits.Uint(voice[43:45]))
	default:
		f.Kind = FundamentalVoice
	}
	return f
}

func golayErrors(n uint8) int {
	if n == 0xFF {
		return 0
	}
	return int(n)
}
