// pkg/asset/checksum.go
package asset

// crcPoly is the reflected CRC-32 polynomial used by PNG (and zlib/gzip).
const crcPoly = 0xEDB88320

var crcTable [256]uint32

func init() {
	for i := range crcTable {
		c := uint32(i)
		for k := 0; k < 8; k++ {
			if c&1 != 0 {
				c = crcPoly ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		crcTable[i] = c
	}
}

// CRC32 computes the CRC-32 checksum of data, table-driven with the final
// one's complement. CRC32([]byte("123456789")) == 0xCBF43926.
func CRC32(data []byte) uint32 {
	c := uint32(0xFFFFFFFF)
	for _, b := range data {
		c = crcTable[byte(c)^b] ^ (c >> 8)
	}
	return c ^ 0xFFFFFFFF
}

// adlerMod is the largest prime below 2^16.
const adlerMod = 65521

// Adler32 folds two 16-bit running sums mod 65521 into one 32-bit value.
// The empty input checksums to 1.
func Adler32(data []byte) uint32 {
	var a, b uint32 = 1, 0
	for _, x := range data {
		a = (a + uint32(x)) % adlerMod
		b = (b + a) % adlerMod
	}
	return b<<16 | a
}
