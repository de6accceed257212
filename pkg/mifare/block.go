package mifare

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// KeySize is the size of a sector key in bytes.
	KeySize = 6
	// AccessBitsSize is the size of the access bits field of a trailer.
	AccessBitsSize = 4
	// UIDSize is the UID prefix length used for authentication and key file checks.
	UIDSize = 4
)

var errInvalidKey = errors.New("key must be 6 bytes (12 hex characters)")

// Key is a 6-byte MIFARE Classic sector key.
type Key [KeySize]byte

// ParseKey decodes a 12 character hex string into a Key.
func ParseKey(s string) (Key, error) {
	var k Key
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return k, fmt.Errorf("%w: %v", errInvalidKey, err)
	}
	if len(raw) != KeySize {
		return k, errInvalidKey
	}
	copy(k[:], raw)

	return k, nil
}

// String returns the upper case hex form of the key.
func (k Key) String() string {
	return strings.ToUpper(hex.EncodeToString(k[:]))
}

// KeyType selects Key A or Key B.
type KeyType byte

const (
	// KeyA authenticates with the first key of the trailer.
	KeyA KeyType = 'A'
	// KeyB authenticates with the last key of the trailer.
	KeyB KeyType = 'B'
)

// String returns "A" or "B".
func (t KeyType) String() string {
	return string(t)
}

// Trailer is the decoded layout of a sector trailer block.
type Trailer struct {
	KeyA   Key
	Access [AccessBitsSize]byte
	KeyB   Key
}

// ParseTrailer splits a 16-byte block into Key A, access bits and Key B.
func ParseTrailer(b [BlockSize]byte) Trailer {
	var t Trailer
	copy(t.KeyA[:], b[0:6])
	copy(t.Access[:], b[6:10])
	copy(t.KeyB[:], b[10:16])

	return t
}

// Bytes encodes the trailer back into a 16-byte block.
func (t Trailer) Bytes() [BlockSize]byte {
	var b [BlockSize]byte
	copy(b[0:6], t.KeyA[:])
	copy(b[6:10], t.Access[:])
	copy(b[10:16], t.KeyB[:])

	return b
}

// Key returns the key of the given type.
func (t Trailer) Key(kt KeyType) Key {
	if kt == KeyB {
		return t.KeyB
	}

	return t.KeyA
}

// SetKey replaces the key of the given type.
func (t *Trailer) SetKey(kt KeyType, k Key) {
	if kt == KeyB {
		t.KeyB = k
		return
	}
	t.KeyA = k
}

// BCC returns the block check character of a 4-byte UID.
func BCC(uid []byte) byte {
	var bcc byte
	for _, b := range uid[:UIDSize] {
		bcc ^= b
	}

	return bcc
}

// CheckBCC reports whether the manufacturer block carries a valid BCC in byte 4.
func CheckBCC(block0 [BlockSize]byte) bool {
	return BCC(block0[:UIDSize]) == block0[UIDSize]
}
