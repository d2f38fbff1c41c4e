package dstar

// Descramble XORs src with the x^7 + x^4 + 1 whitening sequence, seeded
// with all ones, and writes the result to dst. Scrambling and descrambling
// are the same operation. dst and src may be the same slice.
func Descramble(dst, src []uint8) {
	state := uint8(0x7F)
	for i := range src {
		state <<= 1
		state |= ((state >> 7) ^ (state >> 4)) & 1
		state &= 0x7F
		dst[i] = src[i] ^ (state & 1)
	}
}

// PRNG returns the 24-bit sequence that whitens the second AMBE code word.
// It is keyed by the 12 data bits of the first code word.
func PRNG(firstWord uint32) uint32 {
	var prng uint32
	mask := uint32(0x800000)
	pr := firstWord << 4

	for x := 0; x < 24; x++ {
		pr = (173*pr + 13849) & 0xFFFF
		if pr&0x8000 != 0 {
			prng |= mask
		}
		mask >>= 1
	}

	return prng
}
