// Package dstar decodes D-STAR digital voice transmissions from a
// hard-decision bit-sample stream: radio header acquisition followed by a
// loop over 96-bit voice/data superframes until the end-of-transmission
// pattern.
//
// Two stages are deliberate approximations, kept as known limitations: the
// header's rate-1/2 convolutional code is undone with a two-bit-delay XOR
// recurrence instead of a Viterbi decoder, and each AMBE Golay (24,12) code
// word is truncated to its 12 data bits unless Golay correction is enabled.
package dstar

import "github.com/dbehnke/digimodes/internal/bits"

// D-STAR frame constants
const (
	BIT_SYNC_LENGTH     = 32
	FRAME_SYNC_LENGTH   = 15
	SYNC_LENGTH         = BIT_SYNC_LENGTH + FRAME_SYNC_LENGTH
	HEADER_LENGTH       = 660
	WHOLE_HEADER_LENGTH = SYNC_LENGTH + HEADER_LENGTH
	HEADER_BYTES        = 41 // decoded header: 3 flag bytes, 36 callsign bytes, 2 CRC bytes

	VOICE_FRAME_LENGTH = 72
	DATA_FRAME_LENGTH  = 24
	TOTAL_FRAME_LENGTH = VOICE_FRAME_LENGTH + DATA_FRAME_LENGTH
	TERMINATOR_LENGTH  = 48
	VOICE_BITS         = 48 // voice bits kept after Golay decoding
	VOICE_BYTES        = VOICE_BITS / 8
	DATA_BYTES         = DATA_FRAME_LENGTH / 8

	FUND_FREQ_SILENCE = 124
	FUND_FREQ_DTMF    = 126
	DTMF_TONES        = "123A456B789C*0#D"
)

var (
	// BitSync is the alternating preamble ahead of the frame sync.
	BitSync = bits.Repeat(bits.FromString("10"), BIT_SYNC_LENGTH/2)
	// FrameSync follows BitSync and precedes the radio header.
	FrameSync = bits.FromString("111011001010000")
	// HeaderSync is the full pattern searched for in the Idle state.
	HeaderSync = bits.Concat(BitSync, FrameSync)
	// Terminator follows the last voice frame of a transmission.
	Terminator = bits.Concat(BitSync, bits.FromString("000100110101111"), bits.FromString("0"))
)

// State is the decoder's position in a transmission.
type State int

const (
	StateIdle           State = iota // searching for a radio header
	StateAcquiringVoice              // looping over voice superframes
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiringVoice:
		return "voice"
	default:
		return "unknown"
	}
}
