package stream

import (
	"fmt"
	"strings"
)

// Format describes how items are represented on an io.Reader or io.Writer.
type Format int

const (
	// FormatBinary carries one bit per byte, 0x00 or 0x01. Any non-zero
	// input byte reads as 1.
	FormatBinary Format = iota
	// FormatASCII carries bits as the characters '0' and '1'. Other input
	// bytes, such as whitespace, are skipped.
	FormatASCII
	// FormatRaw passes bytes through untouched (text in and out of Varicode).
	FormatRaw
)

// ParseFormat converts a config or flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "binary", "bin", "":
		return FormatBinary, nil
	case "ascii", "text":
		return FormatASCII, nil
	case "raw":
		return FormatRaw, nil
	default:
		return FormatBinary, fmt.Errorf("unknown sample format %q", s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatASCII:
		return "ascii"
	case FormatRaw:
		return "raw"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Decode converts src bytes read from a stream into items in dst and
// returns the number of items written. dst must be at least len(src).
func (f Format) Decode(dst []uint8, src []byte) int {
	switch f {
	case FormatASCII:
		n := 0
		for _, c := range src {
			switch c {
			case '0':
				dst[n] = 0
				n++
			case '1':
				dst[n] = 1
				n++
			}
		}
		return n
	case FormatBinary:
		for i, c := range src {
			if c != 0 {
				dst[i] = 1
			} else {
				dst[i] = 0
			}
		}
		return len(src)
	default:
		return copy(dst, src)
	}
}

// Encode converts items into bytes for a stream. dst must be at least
// len(src).
func (f Format) Encode(dst []byte, src []uint8) int {
	switch f {
	case FormatASCII:
		for i, v := range src {
			dst[i] = '0' + v&1
		}
		return len(src)
	case FormatBinary:
		for i, v := range src {
			dst[i] = v & 1
		}
		return len(src)
	default:
		return copy(dst, src)
	}
}
