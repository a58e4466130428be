package sps30

// Checksum computes the check byte that follows every 16-bit word on the
// wire, from the word's high and low byte.
type Checksum func(hi, lo byte) byte

// Verify reports whether claimed is the checksum of the word hi:lo.
func (c Checksum) Verify(hi, lo, claimed byte) bool {
	return c(hi, lo) == claimed
}

// SumComplement is the one's complement of (hi + lo) mod 256.
func SumComplement(hi, lo byte) byte {
	return ^(hi + lo)
}

// CRC8 is the Sensirion CRC-8: polynomial 0x31, init 0xFF, no reflection,
// no final XOR. CRC8(0xBE, 0xEF) == 0x92.
func CRC8(hi, lo byte) byte {
	crc := byte(0xFF)
	for _, b := range [2]byte{hi, lo} {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
