// Package chu decodes the CHU (Ottawa) FSK time code from a hard-decision
// bit-sample stream.
package chu

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dbehnke/digimodes/internal/bits"
)

// CHU message constants
const (
	PREAMBLE_LENGTH         = 534 // 533 mark samples and one space
	MESSAGE_BITS            = 110
	FIELD_BITS              = 11
	FIELD_COUNT             = 10
	DEFAULT_SAMPLE_RATE     = 4800
	DEFAULT_BAUD_RATE       = 300
	DEFAULT_SAMPLES_PER_BIT = DEFAULT_SAMPLE_RATE / DEFAULT_BAUD_RATE
	FIELD_ERROR             = -1 // value of a field that failed its marker check
)

// Preamble marks the start of every message.
var Preamble = bits.Concat(bits.Repeat(bits.FromString("1"), PREAMBLE_LENGTH-1), bits.FromString("0"))

var (
	// ErrMarker means at least one field failed its start/stop marker check.
	ErrMarker = errors.New("chu: field marker check failed")
	// ErrMismatch means the two halves of the message neither match (A
	// frame) nor complement each other (B frame).
	ErrMismatch = errors.New("chu: frame redundancy check failed")
)

// Kind tells which of the two CHU message formats a frame carries.
type Kind int

const (
	KindUnknown Kind = iota
	KindA            // day of year and time of day
	KindB            // year, DUT1, leap second warning, TAI-UTC, DST pattern
)

func (k Kind) String() string {
	switch k {
	case KindA:
		return "A"
	case KindB:
		return "B"
	default:
		return "unknown"
	}
}

// Frame is one decoded 110-bit CHU message.
type Frame struct {
	Kind   Kind
	Fields [FIELD_COUNT]int // decoded bytes, FIELD_ERROR where the marker check failed

	// A frame
	DayOfYear int
	Hour      int
	Minute    int
	Second    int

	// B frame
	Year              int
	DUT1              float64 // UT1-UTC in seconds
	LeapSecondWarning int     // +1, -1 or 0
	TAIMinusUTC       int
	DSTPattern        int

	// Time is set on A frames once a B frame has supplied the year.
	Time time.Time

	Err error
}

// Valid reports whether the frame passed every check.
func (f Frame) Valid() bool {
	return f.Err == nil && f.Kind != KindUnknown
}

// Timestamp combines an A frame with a year into a UTC time.
func (f Frame) Timestamp(year int) (time.Time, bool) {
	if f.Kind != KindA || year <= 0 {
		return time.Time{}, false
	}
	t := time.Date(year, time.January, 1, f.Hour, f.Minute, f.Second, 0, time.UTC)
	return t.AddDate(0, 0, f.DayOfYear-1), true
}

func (f Frame) String() string {
	switch f.Kind {
	case KindA:
		return fmt.Sprintf("A frame: day %03d %02d:%02d:%02d UTC", f.DayOfYear, f.Hour, f.Minute, f.Second)
	case KindB:
		return fmt.Sprintf("B frame: year %d, leap second warning %d, UT1-UTC %.1f s, TAI-UTC %d s, DST pattern %d",
			f.Year, f.LeapSecondWarning, f.DUT1, f.TAIMinusUTC, f.DSTPattern)
	default:
		fields := make([]string, len(f.Fields))
		for i, v := range f.Fields {
			if v == FIELD_ERROR {
				fields[i] = "--"
			} else {
				fields[i] = fmt.Sprintf("%02X", v)
			}
		}
		return fmt.Sprintf("decoding error (%v): %s", f.Err, strings.Join(fields, " "))
	}
}

// DecodeField decodes one 11-bit field: a 0 start bit, two nibbles sent
// least significant bit first, then two 1 stop bits. It returns FIELD_ERROR
// if the markers are wrong.
func DecodeField(field []uint8) int {
	if len(field) < FIELD_BITS || field[0] != 0 || field[9] != 1 || field[10] != 1 {
		return FIELD_ERROR
	}

	v := 0
	for i := 4; i >= 1; i-- {
		v = v<<1 | int(field[i]&1)
	}
	for i := 8; i >= 5; i-- {
		v = v<<1 | int(field[i]&1)
	}
	return v
}

// DecodeMessage decodes 110 recovered bits into a Frame. A failed field
// does not stop the other fields from being decoded.
func DecodeMessage(message []uint8) Frame {
	var f Frame
	var bad []int

	for i := 0; i < FIELD_COUNT; i++ {
		f.Fields[i] = DecodeField(message[i*FIELD_BITS : (i+1)*FIELD_BITS])
		if f.Fields[i] == FIELD_ERROR {
			bad = append(bad, i)
		}
	}

	if len(bad) > 0 {
		f.Err = fmt.Errorf("%w: fields %v", ErrMarker, bad)
		return f
	}

	b := f.Fields
	switch {
	case halvesEqual(b) && b[0]>>4 == 6:
		f.Kind = KindA
		f.DayOfYear = (b[0]&0x0F)*100 + bcd(b[1])
		f.Hour = bcd(b[2])
		f.Minute = bcd(b[3])
		f.Second = bcd(b[4])

	case halvesComplement(b):
		f.Kind = KindB
		f.DUT1 = float64(b[0]&0x0F) / 10.0
		if b[0]&0x10 != 0 {
			f.DUT1 = -f.DUT1
		}
		if b[0]&0x20 != 0 {
			f.LeapSecondWarning = 1
		}
		if b[0]&0x40 != 0 {
			f.LeapSecondWarning = -1
		}
		f.Year = bcd(b[1])*100 + bcd(b[2])
		f.TAIMinusUTC = bcd(b[3])
		f.DSTPattern = bcd(b[4])

	default:
		f.Err = ErrMismatch
	}

	return f
}

func halvesEqual(b [FIELD_COUNT]int) bool {
	for i := 0; i < FIELD_COUNT/2; i++ {
		if b[i] != b[i+FIELD_COUNT/2] {
			return false
		}
	}
	return true
}

func halvesComplement(b [FIELD_COUNT]int) bool {
	for i := 0; i < FIELD_COUNT/2; i++ {
		if b[i] != b[i+FIELD_COUNT/2]^0xFF {
			return false
		}
	}
	return true
}

// bcd reads a byte as two BCD digits.
func bcd(v int) int {
	return (v>>4)*10 + v&0x0F
}
