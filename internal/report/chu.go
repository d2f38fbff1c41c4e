package report

import (
	"errors"
	"time"

	"github.com/dbehnke/digimodes/internal/chu"
	"github.com/dbehnke/digimodes/internal/database"
)

type chuHandler struct {
	r *Reporter
}

// CHU returns the handler for a chu.Decoder.
func (r *Reporter) CHU() chu.Handler {
	return chuHandler{r: r}
}

func (h chuHandler) HandleFrame(f chu.Frame) {
	r := h.r
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := database.NewCHUFrame(f, r.now())

	text := "CHU " + f.String()
	if !f.Time.IsZero() {
		text += " => " + f.Time.Format(time.RFC3339)
	}
	r.emit("chu", "frame", rec, text)

	if r.frames != nil {
		if err := r.frames.Save(&rec); err != nil {
			r.log.Warn("failed to save CHU frame", "err", err)
		}
	}
	r.publish("chu", "frame", rec)
	if r.sinks.Metrics != nil {
		r.sinks.Metrics.Frame("chu", chuResult(f))
	}
}

func (h chuHandler) HandleSyncMiss(dropped int) {
	if m := h.r.sinks.Metrics; m != nil {
		m.SyncMiss("chu", dropped)
	}
}

func chuResult(f chu.Frame) string {
	switch {
	case errors.Is(f.Err, chu.ErrMarker):
		return "marker"
	case errors.Is(f.Err, chu.ErrMismatch):
		return "mismatch"
	case f.Valid():
		return "ok"
	default:
		return "error"
	}
}
