package mifare

import "fmt"

// CardSize is the memory size class of a MIFARE Classic card.
type CardSize int

const (
	// SizeMini is the 320 byte MIFARE Mini.
	SizeMini CardSize = iota + 1
	// Size1K is the MIFARE Classic 1K.
	Size1K
	// Size2K is the MIFARE Classic 2K (MIFARE Plus 2K in SL1).
	Size2K
	// Size4K is the MIFARE Classic 4K.
	Size4K
)

// Blocks returns the number of blocks of the size class.
func (s CardSize) Blocks() int {
	switch s {
	case SizeMini:
		return 20
	case Size2K:
		return 128
	case Size4K:
		return 256
	default:
		return 64
	}
}

// Bytes returns the memory size in bytes.
func (s CardSize) Bytes() int {
	return s.Blocks() * BlockSize
}

// String returns a short name for the size class.
func (s CardSize) String() string {
	switch s {
	case SizeMini:
		return "Mini"
	case Size1K:
		return "1K"
	case Size2K:
		return "2K"
	case Size4K:
		return "4K"
	default:
		return fmt.Sprintf("CardSize(%d)", int(s))
	}
}

// IsClassic reports whether the SAK advertises MIFARE Classic compatibility.
func IsClassic(sak byte) bool {
	return sak&0x08 != 0
}

// GuessSize derives the size class from the anticollision answers.
func GuessSize(atqa [2]byte, sak byte) CardSize {
	switch {
	case atqa[1]&0x02 == 0x02:
		return Size4K
	case sak&0x01 == 0x01:
		return SizeMini
	default:
		return Size1K
	}
}

// ClassifyATS inspects a RATS answer. plus2K is set for MIFARE Plus 2K cards,
// magic2 for the direct-write ("gen2") Chinese clone cards.
func ClassifyATS(ats []byte, atqa [2]byte) (plus2K, magic2 bool) {
	if len(ats) >= 10 && ats[5] == 0xC1 && ats[6] == 0x05 &&
		ats[7] == 0x2F && ats[8] == 0x2F && atqa[1]&0x02 == 0x00 {
		plus2K = true
	}
	if len(ats) == 9 && ats[5] == 0xDA && ats[6] == 0xBC &&
		ats[7] == 0x19 && ats[8] == 0x10 {
		magic2 = true
	}

	return plus2K, magic2
}

// SizeForBytes returns the size class whose image is n bytes long.
func SizeForBytes(n int) (CardSize, bool) {
	for _, s := range []CardSize{SizeMini, Size1K, Size2K, Size4K} {
		if s.Bytes() == n {
			return s, true
		}
	}

	return 0, false
}
