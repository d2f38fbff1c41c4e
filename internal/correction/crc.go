package correction

// CRC-CCITT, reflected polynomial 0x8408 (x^16 + x^12 + x^5 + 1), initial
// value 0xFFFF, result inverted and stored low byte first. This is the
// checksum carried in the last two bytes of a D-STAR radio header.
const ccitt16Reflected = 0x8408

var ccitt16Table1 = buildCCITT16Table1()

func buildCCITT16Table1() [256]uint16 {
	var table [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ ccitt16Reflected
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}

// CCITT161 returns the checksum of data.
func CCITT161(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = (crc >> 8) ^ ccitt16Table1[byte(crc)^b]
	}
	return ^crc
}

// AddCCITT161 writes the checksum of buffer[:len-2] into its last two
// bytes, low byte first. Buffers shorter than two bytes are left alone.
func AddCCITT161(buffer []byte) {
	if len(buffer) < 2 {
		return
	}
	crc := CCITT161(buffer[:len(buffer)-2])
	buffer[len(buffer)-2] = byte(crc)
	buffer[len(buffer)-1] = byte(crc >> 8)
}

// CheckCCITT161 reports whether the last two bytes of buffer hold the
// checksum of the bytes before them.
func CheckCCITT161(buffer []byte) bool {
	if len(buffer) < 2 {
		return false
	}
	crc := CCITT161(buffer[:len(buffer)-2])
	return buffer[len(buffer)-2] == byte(crc) && buffer[len(buffer)-1] == byte(crc>>8)
}
