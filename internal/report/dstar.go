package report

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/dbehnke/digimodes/internal/database"
	"github.com/dbehnke/digimodes/internal/dstar"
)

// SuperframeRecord is one voice/data superframe of a transmission.
type SuperframeRecord struct {
	Transmission string `json:"transmission" yaml:"transmission"`
	Index        int    `json:"index" yaml:"index"`
	Voice        string `json:"voice" yaml:"voice"`
	Data         string `json:"data" yaml:"data"`
	Fundamental  string `json:"fundamental" yaml:"fundamental"`
	Corrected    int    `json:"corrected,omitempty" yaml:"corrected,omitempty"`
	End          bool   `json:"end,omitempty" yaml:"end,omitempty"`
}

type dstarHandler struct {
	r *Reporter
}

// DStar returns the handler for a dstar.Decoder.
func (r *Reporter) DStar() dstar.Handler {
	return dstarHandler{r: r}
}

func (h dstarHandler) HandleHeader(hdr dstar.Header) {
	r := h.r
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		r.log.Warn("radio header before end of transmission", "id", r.current.ID)
	}
	tx := database.NewTransmission(uuid.NewString(), hdr, r.now())
	tx.SanitizeFields()
	r.current = &tx

	if !hdr.CRCValid {
		r.log.Warn("radio header CRC mismatch", "crc", fmt.Sprintf("0x%04X", hdr.CRC), "my", hdr.Own)
	}
	r.emit("dstar", "header", tx, "D-STAR header "+hdr.String())

	if r.txs != nil {
		if err := r.txs.Upsert(&tx); err != nil {
			r.log.Warn("failed to save transmission", "err", err)
		}
	}
	r.publish("dstar", "header", tx)
	if m := r.sinks.Metrics; m != nil {
		result := "header"
		if !hdr.CRCValid {
			result = "header_bad_crc"
		}
		m.Frame("dstar", result)
		m.DStarVoice(true)
	}
}

func (h dstarHandler) HandleSuperframe(sf dstar.Superframe) {
	r := h.r
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := SuperframeRecord{
		Index:       sf.Index,
		Voice:       hex.EncodeToString(sf.Voice[:]),
		Fundamental: sf.Fundamental.String(),
		Corrected:   sf.Corrected,
		Data:        hex.EncodeToString(sf.Data[:]),
		End:         sf.End,
	}
	if r.current != nil {
		rec.Transmission = r.current.ID
	}

	r.emit("dstar", "superframe", rec, fmt.Sprintf("D-STAR voice: %s data: %s %s", rec.Voice, rec.Data, rec.Fundamental))
	if r.opts.PublishSuperframes {
		r.publish("dstar", "superframe", rec)
	}
	if m := r.sinks.Metrics; m != nil {
		m.Frame("dstar", "superframe")
	}
}

func (h dstarHandler) HandleEndOfTransmission(t dstar.Transmission) {
	r := h.r
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := r.current
	if tx == nil {
		started := database.NewTransmission(uuid.NewString(), t.Header, t.Started)
		tx = &started
	}
	tx.Finish(t)
	r.current = nil

	r.emit("dstar", "eot", *tx, fmt.Sprintf("D-STAR end of transmission: %s in %s", tx.String(), tx.Duration()))

	if r.txs != nil {
		if err := r.txs.Upsert(tx); err != nil {
			r.log.Warn("failed to save transmission", "err", err)
		}
	}
	r.publish("dstar", "eot", *tx)
	if m := r.sinks.Metrics; m != nil {
		m.Frame("dstar", "end")
		m.DStarVoice(false)
		for i := 0; i < len(t.DTMF); i++ {
			m.DTMFTone(t.DTMF[i])
		}
	}
}

func (h dstarHandler) HandleSyncMiss(dropped int) {
	if m := h.r.sinks.Metrics; m != nil {
		m.SyncMiss("dstar", dropped)
	}
}
