package dstar

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/digimodes/internal/bits"
)

// Transmission summarises a header and the superframes that followed it.
type Transmission struct {
	Header      Header
	Superframes int
	DTMF        string // digits keyed during the transmission
	Started     time.Time
	Ended       time.Time
}

// Handler receives decoder events. Calls happen inside Work.
type Handler interface {
	HandleHeader(h Header)
	HandleSuperframe(sf Superframe)
	HandleEndOfTransmission(t Transmission)
	HandleSyncMiss(dropped int)
}

// Options tune the decoder.
type Options struct {
	// GolayCorrection decodes both AMBE Golay code words instead of
	// truncating them to their data bits.
	GolayCorrection bool
}

// Decoder is the D-STAR frame state machine. It produces no output
// stream; decoded voice is written to an optional voice sink and every
// event goes to the Handler.
type Decoder struct {
	opts    Options
	handler Handler
	voice   io.Writer
	logger  *log.Logger
	now     func() time.Time

	state    State
	tx       Transmission
	dtmf     strings.Builder
	lastTone byte

	header headerScratch
	frame  voiceScratch
}

// NewDecoder creates a decoder in the Idle state. handler and voice may be
// nil.
func NewDecoder(opts Options, handler Handler, voice io.Writer, logger *log.Logger) *Decoder {
	if logger == nil {
		logger = log.Default()
	}
	return &Decoder{
		opts:    opts,
		handler: handler,
		voice:   voice,
		logger:  logger.WithPrefix("dstar"),
		now:     time.Now,
		state:   StateIdle,
	}
}

// State returns the current state.
func (d *Decoder) State() State {
	return d.state
}

// Forecast returns the window needed to make progress in the current state.
func (d *Decoder) Forecast(nOutput int) int {
	if d.state == StateAcquiringVoice {
		return VOICE_FRAME_LENGTH + TERMINATOR_LENGTH
	}
	return WHOLE_HEADER_LENGTH
}

// Work advances the state machine by at most one step.
func (d *Decoder) Work(in []uint8, out []uint8) (int, int) {
	if d.state == StateAcquiringVoice {
		return d.workVoice(in), 0
	}
	return d.workIdle(in), 0
}

func (d *Decoder) workIdle(in []uint8) int {
	if len(in) < WHOLE_HEADER_LENGTH {
		return 0
	}

	index := bits.Find(in, HeaderSync, len(in)-HEADER_LENGTH)
	if index < 0 {
		dropped := len(in) - WHOLE_HEADER_LENGTH + 1
		if d.handler != nil {
			d.handler.HandleSyncMiss(dropped)
		}
		return dropped
	}

	start := index + SYNC_LENGTH
	h := d.header.decode(in[start : start+HEADER_LENGTH])

	d.tx = Transmission{Header: h, Started: d.now()}
	d.dtmf.Reset()
	d.lastTone = 0
	d.state = StateAcquiringVoice

	d.logger.Debug("radio header", "offset", index, "own", h.Own, "crc_valid", h.CRCValid)
	if d.handler != nil {
		d.handler.HandleHeader(h)
	}
	return start + HEADER_LENGTH
}

func (d *Decoder) workVoice(in []uint8) int {
	if len(in) < VOICE_FRAME_LENGTH+TERMINATOR_LENGTH {
		return 0
	}

	sf := Superframe{Index: d.tx.Superframes}
	d.frame.decodeVoice(&sf, in[:VOICE_FRAME_LENGTH], d.opts.GolayCorrection)
	d.writeVoice(sf.Voice[:])
	d.trackTone(sf.Fundamental)
	d.tx.Superframes++

	// The data bits are decoded even when they start the terminator.
	d.frame.decodeData(&sf, in[VOICE_FRAME_LENGTH:TOTAL_FRAME_LENGTH])

	if bits.Equal(in[VOICE_FRAME_LENGTH:VOICE_FRAME_LENGTH+TERMINATOR_LENGTH], Terminator) {
		sf.End = true
		if d.handler != nil {
			d.handler.HandleSuperframe(sf)
		}

		d.tx.DTMF = d.dtmf.String()
		d.tx.Ended = d.now()
		d.state = StateIdle
		d.logger.Debug("end of transmission", "superframes", d.tx.Superframes)
		if d.handler != nil {
			d.handler.HandleEndOfTransmission(d.tx)
		}
		return VOICE_FRAME_LENGTH + TERMINATOR_LENGTH
	}

	if d.handler != nil {
		d.handler.HandleSuperframe(sf)
	}
	return TOTAL_FRAME_LENGTH
}

// trackTone appends a DTMF digit each time a new key press starts.
func (d *Decoder) trackTone(f Fundamental) {
	if f.Kind != FundamentalDTMF {
		d.lastTone = 0
		return
	}
	if f.Tone != d.lastTone {
		d.dtmf.WriteByte(f.Tone)
		d.lastTone = f.Tone
	}
}

func (d *Decoder) writeVoice(payload []byte) {
	if d.voice == nil {
		return
	}
	if _, err := d.voice.Write(payload); err != nil {
		d.logger.Warn("voice sink write failed", "err", err)
	}
}
