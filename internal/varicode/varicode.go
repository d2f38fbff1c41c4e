// Package varicode implements the PSK31 Varicode: a variable-length code
// for byte values 0 to 127 in which no code word contains two consecutive
// zero bits, so "00" delimits words and the stream resynchronises on its
// own after an error.
package varicode

import (
	"fmt"

	"github.com/dbehnke/digimodes/internal/bits"
)

const (
	TABLE_SIZE      = 128
	MAX_CODE_LENGTH = 10
	// Longest code word plus the two-zero delimiter.
	MAX_SYMBOL_LENGTH = MAX_CODE_LENGTH + 2
)

// Delimiter separates code words.
var Delimiter = bits.FromString("00")

// Code is a code word, right-aligned in Bits and sent MSB first.
type Code struct {
	Bits uint16
	Len  uint8
}

func (c Code) String() string {
	return fmt.Sprintf("%0*b", int(c.Len), c.Bits)
}

// Put writes the code bits into dst, which must hold c.Len bits.
func (c Code) Put(dst []uint8) {
	bits.PutUint(dst, uint32(c.Bits), int(c.Len))
}

var (
	encodeTable [TABLE_SIZE]Code
	decodeTable = make(map[Code]byte, TABLE_SIZE)
)

func init() {
	for i, s := range codeStrings {
		c := Code{Bits: uint16(bits.Uint(bits.FromString(s))), Len: uint8(len(s))}
		encodeTable[i] = c
		decodeTable[c] = byte(i)
	}
}

// Encode returns the code word for b. Bytes above 127 have none.
func Encode(b byte) (Code, bool) {
	if int(b) >= TABLE_SIZE {
		return Code{}, false
	}
	return encodeTable[b], true
}

// Decode returns the byte for a code word.
func Decode(c Code) (byte, bool) {
	b, ok := decodeTable[c]
	return b, ok
}

// CodeOf builds a Code from unpacked bits. Runs longer than any code word
// return false.
func CodeOf(b []uint8) (Code, bool) {
	if len(b) == 0 || len(b) > MAX_CODE_LENGTH {
		return Code{}, false
	}
	return Code{Bits: uint16(bits.Uint(b)), Len: uint8(len(b))}, true
}

// EncodeString returns the bit stream for s, every code word followed by
// the delimiter. Unsupported bytes are skipped.
func EncodeString(s string) bits.Bits {
	out := make(bits.Bits, 0, len(s)*8)
	for i := 0; i < len(s); i++ {
		c, ok := Encode(s[i])
		if !ok {
			continue
		}
		start := len(out)
		out = append(out, make(bits.Bits, int(c.Len)+len(Delimiter))...)
		c.Put(out[start:])
	}
	return out
}

// DecodeBits decodes a complete bit stream. A trailing word without its
// delimiter is ignored.
func DecodeBits(in []uint8) []byte {
	var rx RXDecoder
	var out []byte
	one := make([]uint8, 1)
	for {
		n, produced := rx.Work(in, one)
		if n == 0 {
			return out
		}
		if produced > 0 {
			out = append(out, one[0])
		}
		in = in[n:]
	}
}
