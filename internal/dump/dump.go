// Package dump holds the in-memory card image read into or written from a
// sector operation.
package dump

import (
	"fmt"
	"path/filepath"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/spf13/afero"
)

// Dump is a card image of one 16-byte record per block.
type Dump struct {
	blocks [][mifare.BlockSize]byte
}

// New returns a zeroed image.
func New(blocks int) *Dump {
	return &Dump{blocks: make([][mifare.BlockSize]byte, blocks)}
}

// Load parses a flat image, which must be exactly blocks*16 bytes.
func Load(data []byte, blocks int) (*Dump, error) {
	if len(data) != blocks*mifare.BlockSize {
		return nil, fmt.Errorf(
			"dump has %d bytes, want %d: %w",
			len(data),
			blocks*mifare.BlockSize,
			errorcodes.ErrFormat,
		)
	}

	d := New(blocks)
	for i := range d.blocks {
		copy(d.blocks[i][:], data[i*mifare.BlockSize:])
	}

	return d, nil
}

// Blocks returns the number of blocks.
func (d *Dump) Blocks() int {
	return len(d.blocks)
}

// Block returns the record of a block.
func (d *Dump) Block(b uint32) [mifare.BlockSize]byte {
	return d.blocks[b]
}

// SetBlock replaces the record of a block.
func (d *Dump) SetBlock(b uint32, data [mifare.BlockSize]byte) {
	d.blocks[b] = data
}

// Trailer returns the record of a block viewed as a trailer.
func (d *Dump) Trailer(b uint32) mifare.Trailer {
	return mifare.ParseTrailer(d.blocks[b])
}

// SetTrailer replaces the record of a block with a trailer.
func (d *Dump) SetTrailer(b uint32, tr mifare.Trailer) {
	d.blocks[b] = tr.Bytes()
}

// Contains reports whether block b is part of the image.
func (d *Dump) Contains(b uint32) bool {
	return int(b) < len(d.blocks)
}

// Bytes returns the flat image.
func (d *Dump) Bytes() []byte {
	out := make([]byte, 0, len(d.blocks)*mifare.BlockSize)
	for _, b := range d.blocks {
		out = append(out, b[:]...)
	}

	return out
}

// ReadFile loads a dump file for a card of the given block count. Files
// larger than the card are truncated.
func ReadFile(fs afero.Fs, path string, blocks int) (*Dump, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("could not open dump file %s: %w", path, err)
	}
	if len(data) > blocks*mifare.BlockSize {
		data = data[:blocks*mifare.BlockSize]
	}

	return Load(data, blocks)
}

// WriteFile persists the image, replacing path atomically.
func WriteFile(fs afero.Fs, path string, d *Dump) error {
	tmp, err := afero.TempFile(fs, filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("could not create temp file for %s: %w", path, err)
	}
	name := tmp.Name()

	if _, err := tmp.Write(d.Bytes()); err != nil {
		tmp.Close()
		_ = fs.Remove(name)
		return fmt.Errorf("could not write to file %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(name)
		return fmt.Errorf("could not write to file %s: %w", path, err)
	}
	if err := fs.Rename(name, path); err != nil {
		_ = fs.Remove(name)
		return fmt.Errorf("could not replace %s: %w", path, err)
	}

	return nil
}
