package dump

import (
	"encoding/hex"
	"strings"

	"github.com/andrei-cloud/go_mfra/pkg/mifare"
)

// Report is a structured view of a dump.
type Report struct {
	Size     string         `yaml:"size"`
	UID      string         `yaml:"uid"`
	BCCValid bool           `yaml:"bcc_valid"`
	Sectors  []SectorReport `yaml:"sectors"`
}

// SectorReport describes one sector of a dump.
type SectorReport struct {
	Sector      uint32        `yaml:"sector"`
	FirstBlock  uint32        `yaml:"first_block"`
	Trailer     uint32        `yaml:"trailer_block"`
	KeyA        string        `yaml:"key_a"`
	KeyB        string        `yaml:"key_b"`
	Access      string        `yaml:"access_bits"`
	AccessValid bool          `yaml:"access_valid"`
	Groups      []GroupReport `yaml:"groups"`
	Blocks      []string      `yaml:"blocks"`
}

// GroupReport is the decoded access condition of one block group.
type GroupReport struct {
	Group       int    `yaml:"group"`
	Bits        string `yaml:"bits"`
	Description string `yaml:"description"`
}

// Inspect decodes every sector of the dump.
func Inspect(d *Dump) Report {
	b0 := d.Block(0)
	r := Report{
		UID:      strings.ToUpper(hex.EncodeToString(b0[:mifare.UIDSize])),
		BCCValid: mifare.CheckBCC(b0),
	}
	if size, ok := mifare.SizeForBytes(d.Blocks() * mifare.BlockSize); ok {
		r.Size = size.String()
	}

	for first := uint32(0); d.Contains(first); first = mifare.TrailerOf(first) + 1 {
		trailer := mifare.TrailerOf(first)
		if !d.Contains(trailer) {
			break
		}
		tr := d.Trailer(trailer)
		ac, err := mifare.DecodeAccess(tr.Access)

		sr := SectorReport{
			Sector:      mifare.SectorOf(first),
			FirstBlock:  first,
			Trailer:     trailer,
			KeyA:        tr.KeyA.String(),
			KeyB:        tr.KeyB.String(),
			Access:      strings.ToUpper(hex.EncodeToString(tr.Access[:])),
			AccessValid: err == nil,
		}
		for i, c := range ac {
			sr.Groups = append(sr.Groups, GroupReport{
				Group:       i,
				Bits:        c.String(),
				Description: c.Describe(i == 3),
			})
		}
		for b := first; b <= trailer; b++ {
			blk := d.Block(b)
			sr.Blocks = append(sr.Blocks, strings.ToUpper(hex.EncodeToString(blk[:])))
		}
		r.Sectors = append(r.Sectors, sr)
	}

	return r
}
