package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/dbehnke/digimodes/internal/chu"
	"github.com/dbehnke/digimodes/internal/dstar"
)

// CHUFrame is one decoded CHU message, good or bad.
type CHUFrame struct {
	ID                uint       `gorm:"primarykey" json:"id" yaml:"id"`
	Kind              string     `gorm:"index;size:8" json:"kind" yaml:"kind"`
	Fields            string     `gorm:"size:32" json:"fields" yaml:"fields"`
	DayOfYear         int        `json:"day_of_year" yaml:"day_of_year"`
	Hour              int        `json:"hour" yaml:"hour"`
	Minute            int        `json:"minute" yaml:"minute"`
	Second            int        `json:"second" yaml:"second"`
	Year              int        `json:"year" yaml:"year"`
	DUT1              float64    `json:"dut1" yaml:"dut1"`
	LeapSecondWarning int        `json:"leap_second_warning" yaml:"leap_second_warning"`
	TAIMinusUTC       int        `json:"tai_minus_utc" yaml:"tai_minus_utc"`
	DSTPattern        int        `json:"dst_pattern" yaml:"dst_pattern"`
	Time              *time.Time `json:"time,omitempty" yaml:"time,omitempty"`
	Error             string     `gorm:"size:128" json:"error,omitempty" yaml:"error,omitempty"`
	ReceivedAt        time.Time  `gorm:"index" json:"received_at" yaml:"received_at"`
}

// TableName specifies the table name for GORM
func (CHUFrame) TableName() string {
	return "chu_frames"
}

// NewCHUFrame converts a decoded frame into a record.
func NewCHUFrame(f chu.Frame, receivedAt time.Time) CHUFrame {
	rec := CHUFrame{
		Kind:              f.Kind.String(),
		Fields:            formatFields(f.Fields),
		DayOfYear:         f.DayOfYear,
		Hour:              f.Hour,
		Minute:            f.Minute,
		Second:            f.Second,
		Year:              f.Year,
		DUT1:              f.DUT1,
		LeapSecondWarning: f.LeapSecondWarning,
		TAIMinusUTC:       f.TAIMinusUTC,
		DSTPattern:        f.DSTPattern,
		ReceivedAt:        receivedAt,
	}
	if !f.Time.IsZero() {
		t := f.Time
		rec.Time = &t
	}
	if f.Err != nil {
		rec.Error = f.Err.Error()
	}
	return rec
}

// IsValid reports whether the frame decoded without error
func (f CHUFrame) IsValid() bool {
	return f.Error == "" && f.Kind != chu.KindUnknown.String()
}

func formatFields(fields [chu.FIELD_COUNT]int) string {
	parts := make([]string, len(fields))
	for i, v := range fields {
		if v == chu.FIELD_ERROR {
			parts[i] = "--"
		} else {
			parts[i] = fmt.Sprintf("%02X", v)
		}
	}
	return strings.Join(parts, " ")
}

// Transmission is one D-STAR transmission, from radio header to end of
// transmission. EndedAt stays nil while it is in progress.
type Transmission struct {
	ID          string     `gorm:"primarykey;size:36" json:"id" yaml:"id"`
	Destination string     `gorm:"size:8" json:"rpt2" yaml:"rpt2"`
	Departure   string     `gorm:"size:8" json:"rpt1" yaml:"rpt1"`
	Companion   string     `gorm:"size:8" json:"your" yaml:"your"`
	Own         string     `gorm:"index;size:8" json:"my" yaml:"my"`
	OwnSuffix   string     `gorm:"size:4" json:"my_suffix" yaml:"my_suffix"`
	CRC         uint16     `json:"crc" yaml:"crc"`
	CRCValid    bool       `json:"crc_valid" yaml:"crc_valid"`
	Superframes int        `json:"superframes" yaml:"superframes"`
	DTMF        string     `gorm:"size:64" json:"dtmf,omitempty" yaml:"dtmf,omitempty"`
	StartedAt   time.Time  `gorm:"index" json:"started_at" yaml:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`
}

// TableName specifies the table name for GORM
func (Transmission) TableName() string {
	return "dstar_transmissions"
}

// NewTransmission starts a record from a radio header.
func NewTransmission(id string, h dstar.Header, startedAt time.Time) Transmission {
	return Transmission{
		ID:          id,
		Destination: h.Destination,
		Departure:   h.Departure,
		Companion:   h.Companion,
		Own:         h.Own,
		OwnSuffix:   h.OwnSuffix,
		CRC:         h.CRC,
		CRCValid:    h.CRCValid,
		StartedAt:   startedAt,
	}
}

// Finish records the end of the transmission.
func (t *Transmission) Finish(summary dstar.Transmission) {
	t.Superframes = summary.Superframes
	t.DTMF = summary.DTMF
	ended := summary.Ended
	t.EndedAt = &ended
}

// Duration returns how long the transmission lasted, or zero while open.
func (t Transmission) Duration() time.Duration {
	if t.EndedAt == nil {
		return 0
	}
	return t.EndedAt.Sub(t.StartedAt)
}

// IsValid checks if the record has required fields
func (t Transmission) IsValid() bool {
	return t.ID != "" && !t.StartedAt.IsZero()
}

// SanitizeFields cleans up the callsign fields
func (t *Transmission) SanitizeFields() {
	t.Destination = strings.ToUpper(strings.TrimSpace(t.Destination))
	t.Departure = strings.ToUpper(strings.TrimSpace(t.Departure))
	t.Companion = strings.ToUpper(strings.TrimSpace(t.Companion))
	t.Own = strings.ToUpper(strings.TrimSpace(t.Own))
	t.OwnSuffix = strings.ToUpper(strings.TrimSpace(t.OwnSuffix))
}

func (t Transmission) String() string {
	own := t.Own
	if t.OwnSuffix != "" {
		own += "/" + t.OwnSuffix
	}
	result := fmt.Sprintf("%s via %s to %s (%d superframes)", own, t.Departure, t.Companion, t.Superframes)
	if t.DTMF != "" {
		result += fmt.Sprintf(" DTMF %s", t.DTMF)
	}
	return result
}
