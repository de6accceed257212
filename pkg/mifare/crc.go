package mifare

// CRCA computes the ISO/IEC 14443-A CRC over data.
func CRCA(data []byte) (lo, hi byte) {
	crc := uint32(0x6363)
	for _, d := range data {
		bt := d ^ byte(crc&0xFF)
		bt ^= bt << 4
		crc = (crc >> 8) ^ (uint32(bt) << 8) ^ (uint32(bt) << 3) ^ (uint32(bt) >> 4)
	}

	return byte(crc & 0xFF), byte((crc >> 8) & 0xFF)
}

// AppendCRCA returns data followed by its CRC_A, low byte first.
func AppendCRCA(data []byte) []byte {
	lo, hi := CRCA(data)
	out := make([]byte, 0, len(data)+2)
	out = append(out, data...)

	return append(out, lo, hi)
}
