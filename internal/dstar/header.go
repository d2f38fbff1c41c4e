package dstar

import (
	"fmt"
	"strings"

	"github.com/dbehnke/digimodes/internal/bits"
	"github.com/dbehnke/digimodes/internal/correction"
)

// Header is a decoded D-STAR radio header.
type Header struct {
	Flags       [3]byte
	Destination string // RPT2, destination repeater
	Departure   string // RPT1, departure repeater
	Companion   string // YOUR, usually CQCQCQ
	Own         string // MY
	OwnSuffix   string // 4-character suffix of MY
	CRC         uint16 // as transmitted, first byte in the high half
	CRCValid    bool
	Raw         [HEADER_BYTES]byte
}

func (h Header) String() string {
	crc := "bad"
	if h.CRCValid {
		crc = "ok"
	}
	return fmt.Sprintf("RPT2: %s RPT1: %s YOUR: %s MY: %s/%s CRC: 0x%04X (%s)",
		h.Destination, h.Departure, h.Companion, h.Own, h.OwnSuffix, h.CRC, crc)
}

// headerScratch holds the intermediate bit buffers of header decoding so a
// Decoder allocates them once.
type headerScratch struct {
	descrambled [HEADER_LENGTH]uint8
	interleaved [HEADER_LENGTH]uint8
	decoded     [HEADER_BYTES * 8]uint8
	reversed    [HEADER_BYTES * 8]uint8
}

// DecodeHeader decodes the HEADER_LENGTH bits that follow HeaderSync.
func DecodeHeader(raw []uint8) Header {
	var s headerScratch
	return s.decode(raw)
}

func (s *headerScratch) decode(raw []uint8) Header {
	Descramble(s.descrambled[:], raw[:HEADER_LENGTH])
	deinterleaveHeader(s.interleaved[:], s.descrambled[:])
	viterbiHeader(s.decoded[:], s.interleaved[:])
	bits.ReverseBytes(s.reversed[:], s.decoded[:])

	var h Header
	bits.Pack(h.Raw[:], s.reversed[:])

	copy(h.Flags[:], h.Raw[0:3])
	h.Destination = callsign(h.Raw[3:11])
	h.Departure = callsign(h.Raw[11:19])
	h.Companion = callsign(h.Raw[19:27])
	h.Own = callsign(h.Raw[27:35])
	h.OwnSuffix = callsign(h.Raw[35:39])
	h.CRC = uint16(h.Raw[39])<<8 | uint16(h.Raw[40])
	h.CRCValid = correction.CheckCCITT161(h.Raw[:])
	return h
}

// deinterleaveHeader undoes the 24-row header interleaver: the first 12
// rows carry 28 columns, the remaining 12 carry 27.
func deinterleaveHeader(dst, src []uint8) {
	index := 0
	for row := 0; row < 24; row++ {
		cols := 28
		if row >= 12 {
			cols = 27
		}
		for col := 0; col < cols; col++ {
			dst[row+24*col] = src[index]
			index++
		}
	}
}

// viterbiHeader stands in for a rate-1/2 Viterbi decoder. It walks the
// even-indexed input bits and XORs each with the two previous outputs,
// producing len(src)/2 - 2 bits.
// TODO: replace with a real Viterbi decoder over both code bits; soft
// decisions would also help here.
func viterbiHeader(dst, src []uint8) int {
	n := len(src)/2 - 2
	var prev, prevPrev uint8
	for x := 0; x < n; x++ {
		bit := src[2*x] ^ prev ^ prevPrev
		dst[x] = bit
		prevPrev = prev
		prev = bit
	}
	return n
}

// callsign renders a space-padded callsign field, keeping printable ASCII.
func callsign(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			c = '.'
		}
		sb.WriteByte(c)
	}
	return strings.TrimRight(sb.String(), " ")
}
