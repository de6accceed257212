// Package keystore holds the keys used to authenticate sectors: the built-in
// candidate list for guessing and, optionally, a key file mirroring the card
// layout.
package keystore

import (
	"fmt"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
)

// DefaultKeys are tried in this order when no key file is given.
var DefaultKeys = []mifare.Key{
	{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0xD3, 0xF7, 0xD3, 0xF7, 0xD3, 0xF7},
	{0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5},
	{0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5},
	{0x4D, 0x3A, 0x99, 0xC3, 0x51, 0xDD},
	{0x1A, 0x98, 0x2C, 0x7E, 0x45, 0x9A},
	{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56},
}

type slot struct {
	trailer uint32
	kt      mifare.KeyType
}

// Store keeps one 16-byte record per card block. Only records at trailer
// positions carry meaning.
type Store struct {
	records    [][mifare.BlockSize]byte
	loaded     bool
	extra      []mifare.Key
	discovered map[slot]bool
}

// New returns an empty store for guess mode.
func New(blocks int) *Store {
	return &Store{
		records:    make([][mifare.BlockSize]byte, blocks),
		discovered: make(map[slot]bool),
	}
}

// Load parses a key file image for a card of the given block count.
func Load(data []byte, blocks int) (*Store, error) {
	if len(data) != blocks*mifare.BlockSize {
		return nil, fmt.Errorf(
			"key file has %d bytes, want %d: %w",
			len(data),
			blocks*mifare.BlockSize,
			errorcodes.ErrFormat,
		)
	}

	s := New(blocks)
	for i := range s.records {
		copy(s.records[i][:], data[i*mifare.BlockSize:])
	}
	s.loaded = true

	return s, nil
}

// PeekUID returns the UID field of a key file image, which is all that can be
// checked before the card size is known.
func PeekUID(data []byte) ([mifare.UIDSize]byte, error) {
	var uid [mifare.UIDSize]byte
	if len(data) < mifare.UIDSize {
		return uid, fmt.Errorf("key file shorter than UID field: %w", errorcodes.ErrFormat)
	}
	copy(uid[:], data)

	return uid, nil
}

// Loaded reports whether a key file backs the store.
func (s *Store) Loaded() bool {
	return s.loaded
}

// Blocks returns the number of records.
func (s *Store) Blocks() int {
	return len(s.records)
}

// UID returns the UID field of block 0.
func (s *Store) UID() [mifare.UIDSize]byte {
	var uid [mifare.UIDSize]byte
	if len(s.records) > 0 {
		copy(uid[:], s.records[0][:mifare.UIDSize])
	}

	return uid
}

// VerifyUID compares the stored UID with the first four bytes of the card UID.
func (s *Store) VerifyUID(uid []byte) bool {
	if len(uid) < mifare.UIDSize {
		return false
	}
	stored := s.UID()

	return string(stored[:]) == string(uid[:mifare.UIDSize])
}

// Trailer returns the record of the trailer of block's sector.
func (s *Store) Trailer(block uint32) mifare.Trailer {
	t := mifare.TrailerOf(block)
	if int(t) >= len(s.records) {
		return mifare.Trailer{}
	}

	return mifare.ParseTrailer(s.records[t])
}

// KeyFor returns the key of the given type stored for block's sector.
func (s *Store) KeyFor(block uint32, kt mifare.KeyType) (mifare.Key, error) {
	if !s.loaded {
		return mifare.Key{}, errorcodes.ErrNotFound
	}
	if int(mifare.TrailerOf(block)) >= len(s.records) {
		return mifare.Key{}, fmt.Errorf("block %d beyond key file: %w", block, errorcodes.ErrFormat)
	}

	return s.Trailer(block).Key(kt), nil
}

// Record stores a discovered key in the trailer record of block's sector.
func (s *Store) Record(block uint32, kt mifare.KeyType, k mifare.Key) {
	t := mifare.TrailerOf(block)
	if int(t) >= len(s.records) {
		return
	}
	tr := mifare.ParseTrailer(s.records[t])
	tr.SetKey(kt, k)
	s.records[t] = tr.Bytes()
	s.discovered[slot{t, kt}] = true
}

// Known returns a key previously recorded for block's sector.
func (s *Store) Known(block uint32, kt mifare.KeyType) (mifare.Key, bool) {
	t := mifare.TrailerOf(block)
	if !s.discovered[slot{t, kt}] {
		return mifare.Key{}, false
	}

	return s.Trailer(block).Key(kt), true
}

// AddCandidates appends keys tried after the built-in list.
func (s *Store) AddCandidates(keys ...mifare.Key) {
	s.extra = append(s.extra, keys...)
}

// Candidates returns the guess list: built-in keys first, then added keys,
// without duplicates.
func (s *Store) Candidates() []mifare.Key {
	seen := make(map[mifare.Key]bool, len(DefaultKeys)+len(s.extra))
	out := make([]mifare.Key, 0, len(DefaultKeys)+len(s.extra))
	for _, list := range [][]mifare.Key{DefaultKeys, s.extra} {
		for _, k := range list {
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, k)
		}
	}

	return out
}

// Entry is the key material of one sector.
type Entry struct {
	Sector uint32
	Block  uint32
	mifare.Trailer
}

// Entries lists the trailer records in sector order.
func (s *Store) Entries() []Entry {
	var out []Entry
	for b := uint32(0); b < uint32(len(s.records)); b++ {
		if !mifare.IsTrailerBlock(b) {
			continue
		}
		out = append(out, Entry{
			Sector:  mifare.SectorOf(b),
			Block:   b,
			Trailer: mifare.ParseTrailer(s.records[b]),
		})
	}

	return out
}
