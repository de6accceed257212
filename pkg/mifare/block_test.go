package mifare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	t.Parallel()

	k, err := ParseKey("a0a1a2a3a4a5")
	require.NoError(t, err)
	assert.Equal(t, Key{0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5}, k)
	assert.Equal(t, "A0A1A2A3A4A5", k.String())

	_, err = ParseKey("a0a1a2")
	assert.Error(t, err)

	_, err = ParseKey("zzzzzzzzzzzz")
	assert.Error(t, err)
}

func TestTrailerRoundTrip(t *testing.T) {
	t.Parallel()

	raw := [BlockSize]byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
		0xFF, 0x07, 0x80, 0x69,
		0x11, 0x12, 0x13, 0x14, 0x15, 0x16,
	}
	tr := ParseTrailer(raw)

	assert.Equal(t, Key{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, tr.KeyA)
	assert.Equal(t, TransportAccess, tr.Access)
	assert.Equal(t, Key{0x11, 0x12, 0x13, 0x14, 0x15, 0x16}, tr.KeyB)
	assert.Equal(t, raw, tr.Bytes())

	assert.Equal(t, tr.KeyA, tr.Key(KeyA))
	assert.Equal(t, tr.KeyB, tr.Key(KeyB))

	tr.SetKey(KeyB, Key{})
	assert.Equal(t, Key{}, tr.KeyB)
	assert.Equal(t, Key{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, tr.KeyA)
}

func TestCheckBCC(t *testing.T) {
	t.Parallel()

	good := [BlockSize]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xAA ^ 0xBB ^ 0xCC ^ 0xDD, 0x08, 0x04, 0x00}
	assert.True(t, CheckBCC(good))

	bad := good
	bad[4] ^= 0x01
	assert.False(t, CheckBCC(bad))
}

func TestCRCA(t *testing.T) {
	t.Parallel()

	// HALT frame.
	assert.Equal(t, []byte{0x50, 0x00, 0x57, 0xCD}, AppendCRCA([]byte{0x50, 0x00}))
	// RATS frame.
	assert.Equal(t, []byte{0xE0, 0x50, 0xBC, 0xA5}, AppendCRCA([]byte{0xE0, 0x50}))
}
