// Package bits holds helpers for hard-decision bit streams, where every
// element of a []uint8 is one bit sample with value 0 or 1.
package bits

import (
	"bytes"
	"strings"
)

// Bits is a sequence of unpacked bits, one per element.
type Bits []uint8

// FromString builds Bits from a string of '0' and '1' characters.
// Any character other than '1' becomes a 0.
func FromString(s string) Bits {
	b := make(Bits, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '1' {
			b[i] = 1
		}
	}
	return b
}

// Repeat returns pattern repeated n times.
func Repeat(pattern Bits, n int) Bits {
	out := make(Bits, 0, len(pattern)*n)
	for i := 0; i < n; i++ {
		out = append(out, pattern...)
	}
	return out
}

// Concat joins several bit sequences into a new one.
func Concat(parts ...Bits) Bits {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make(Bits, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// String renders the bits as '0'/'1' characters.
func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, v := range b {
		if v != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Find returns the lowest index at which pattern occurs entirely inside
// window[:ceiling], or -1. A ceiling beyond the window is clamped, a
// negative ceiling finds nothing. Callers use the ceiling to keep a match
// out of the tail that cannot yet hold a complete message.
func Find(window, pattern []uint8, ceiling int) int {
	if ceiling > len(window) {
		ceiling = len(window)
	}
	if ceiling < len(pattern) || len(pattern) == 0 {
		return -1
	}
	return bytes.Index(window[:ceiling], pattern)
}

// Equal reports whether a and b hold the same bits.
func Equal(a, b []uint8) bool {
	return bytes.Equal(a, b)
}

// Uint reads up to 32 bits MSB first.
func Uint(b []uint8) uint32 {
	var v uint32
	for _, bit := range b {
		v = v<<1 | uint32(bit&1)
	}
	return v
}

// PutUint writes the low n bits of v into dst MSB first.
func PutUint(dst []uint8, v uint32, n int) {
	for i := 0; i < n; i++ {
		dst[i] = uint8(v>>uint(n-1-i)) & 1
	}
}

// ReverseBytes copies src into dst reversing the bit order inside every
// group of eight. A trailing partial group is reversed on its own.
// dst and src must not overlap unless they are the same slice.
func ReverseBytes(dst, src []uint8) {
	for start := 0; start < len(src); start += 8 {
		end := start + 8
		if end > len(src) {
			end = len(src)
		}
		for i, j := start, end-1; i <= j; i, j = i+1, j-1 {
			dst[i], dst[j] = src[j], src[i]
		}
	}
}

// Pack packs bits MSB first into dst, eight per byte. A trailing partial
// byte is left-aligned. It returns the number of bytes written.
func Pack(dst []byte, b []uint8) int {
	n := (len(b) + 7) / 8
	for i := 0; i < n; i++ {
		dst[i] = 0
	}
	for i, bit := range b {
		dst[i>>3] |= (bit & 1) << uint(7-i&7)
	}
	return n
}

// Unpack expands bytes MSB first into dst, which must hold 8*len(src).
func Unpack(dst []uint8, src []byte) {
	for i, v := range src {
		for j := 0; j < 8; j++ {
			dst[i*8+j] = (v >> uint(7-j)) & 1
		}
	}
}
