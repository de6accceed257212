package keystore

import (
	"fmt"
	"io"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/spf13/afero"
)

// PeekFile reads only the UID field of a key file.
func PeekFile(fs afero.Fs, path string) ([mifare.UIDSize]byte, error) {
	var uid [mifare.UIDSize]byte

	f, err := fs.Open(path)
	if err != nil {
		return uid, fmt.Errorf("could not open keys file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.ReadFull(f, uid[:]); err != nil {
		return uid, fmt.Errorf(
			"could not read UID from key file %s: %w",
			path,
			errorcodes.ErrFormat,
		)
	}

	return uid, nil
}

// LoadFile reads a key file sized for a card of the given block count.
func LoadFile(fs afero.Fs, path string, blocks int) (*Store, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("could not read keys file %s: %w", path, err)
	}

	// Larger files are accepted and truncated, the way a 4K key file can
	// serve a 1K card.
	if len(data) > blocks*mifare.BlockSize {
		data = data[:blocks*mifare.BlockSize]
	}

	return Load(data, blocks)
}
