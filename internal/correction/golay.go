package correction

// Golay (24,12) generator polynomial: x^11 + x^10 + x^6 + x^5 + x^4 + x^2 + 1
const GOLAY_24_12_GENERATOR = 0xC75

// Golay24128Encode encodes the low 12 bits of data into a 24-bit code word:
// 12 data bits followed by 12 parity bits.
func Golay24128Encode(data uint32) uint32 {
	data &= 0xFFF
	shifted := data << 12
	return shifted ^ polyDiv24(shifted, GOLAY_24_12_GENERATOR)
}

// Golay24128Decode corrects the 24-bit code word held in the low bits of
// codeword and returns its 12 data bits together with the number of errors
// it corrected. An uncorrectable word returns the uncorrected data bits and
// an error count of 0xFF.
func Golay24128Decode(codeword uint32) (uint32, uint8) {
	codeword &= 0xFFFFFF

	c := golaySyndromes[Golay24128Syndrome(codeword)]
	if c.weight == 0xFF {
		return codeword >> 12, c.weight
	}

	return (codeword ^ c.pattern) >> 12, c.weight
}

// Golay24128Syndrome returns the 12-bit syndrome of a code word; zero means
// the word is a valid code word.
func Golay24128Syndrome(codeword uint32) uint32 {
	return polyDiv24(codeword, GOLAY_24_12_GENERATOR)
}

// polyDiv24 performs polynomial division for 24-bit codeword
func polyDiv24(dividend, divisor uint32) uint32 {
	dividend &= 0xFFFFFF
	divisor &= 0xFFF

	remainder := dividend
	for i := 23; i >= 12; i-- {
		if (remainder & (1 << uint(i))) != 0 {
			remainder ^= divisor << uint(i-11)
		}
	}

	return remainder & 0xFFF
}

type golayCorrection struct {
	pattern uint32
	weight  uint8
}

// golaySyndromes maps every syndrome to the error pattern of weight three or
// less that produces it. The code has minimum distance 7, so those patterns
// never share a syndrome. Syndromes reached by no such pattern keep weight
// 0xFF.
var golaySyndromes = buildGolaySyndromes()

func buildGolaySyndromes() *[4096]golayCorrection {
	var table [4096]golayCorrection
	for i := range table {
		table[i].weight = 0xFF
	}
	table[0] = golayCorrection{}

	for i := uint(0); i < 24; i++ {
		p1 := uint32(1) << i
		table[Golay24128Syndrome(p1)] = golayCorrection{p1, 1}
		for j := i + 1; j < 24; j++ {
			p2 := p1 | uint32(1)<<j
			table[Golay24128Syndrome(p2)] = golayCorrection{p2, 2}
			for k := j + 1; k < 24; k++ {
				p3 := p2 | uint32(1)<<k
				table[Golay24128Syndrome(p3)] = golayCorrection{p3, 3}
			}
		}
	}
	return &table
}
