// Package mifare provides the MIFARE Classic memory layout: sector geometry,
// trailer records, block 0 checks, access conditions and card size detection.
package mifare

const (
	// BlockSize is the size of one card block in bytes.
	BlockSize = 16
	// SectorSize is the number of blocks addressed by a sector id.
	SectorSize = 4
	// MaxSectorID is the highest sector id accepted by the sector-id API.
	MaxSectorID = 15

	// bigSectorStart is the first block of the 16-block sector regime.
	bigSectorStart = 128
	smallSectorLen = 4
	bigSectorLen   = 16
)

// sectorLen returns the length of the sector holding block b.
func sectorLen(b uint32) uint32 {
	if b < bigSectorStart {
		return smallSectorLen
	}

	return bigSectorLen
}

// IsFirstBlock reports whether b is the first block of its sector.
func IsFirstBlock(b uint32) bool {
	return b%sectorLen(b) == 0
}

// IsTrailerBlock reports whether b is the trailer block of its sector.
func IsTrailerBlock(b uint32) bool {
	return (b+1)%sectorLen(b) == 0
}

// TrailerOf returns the trailer block of the sector containing b.
func TrailerOf(b uint32) uint32 {
	n := sectorLen(b)

	return b + (n - 1 - b%n)
}

// FirstOf returns the first block of the sector containing b.
func FirstOf(b uint32) uint32 {
	return b - b%sectorLen(b)
}

// SectorOf returns the physical sector number holding block b.
// Sectors 0-31 are 4 blocks long, sectors 32-39 are 16 blocks long.
func SectorOf(b uint32) uint32 {
	if b < bigSectorStart {
		return b / smallSectorLen
	}

	return bigSectorStart/smallSectorLen + (b-bigSectorStart)/bigSectorLen
}

// SectorBounds returns the first and trailer block of a sector id using the
// fixed 4-block addressing scheme.
func SectorBounds(sector int) (first, trailer uint32) {
	trailer = uint32((sector+1)*SectorSize - 1)
	first = trailer - SectorSize + 1

	return first, trailer
}

// ValidSectorID reports whether sector can be addressed by SectorBounds.
func ValidSectorID(sector int) bool {
	return sector >= 0 && sector <= MaxSectorID
}

// SectorCount returns the number of physical sectors on a card with the given
// number of blocks.
func SectorCount(blocks int) int {
	if blocks <= bigSectorStart {
		return blocks / smallSectorLen
	}

	return bigSectorStart/smallSectorLen + (blocks-bigSectorStart)/bigSectorLen
}
