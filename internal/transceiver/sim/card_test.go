package sim

import (
	"errors"
	"testing"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUID = []byte{0xAA, 0xBB, 0xCC, 0xDD}

func ffKey() mifare.Key {
	return mifare.Key{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
}

func TestNewCardLayout(t *testing.T) {
	t.Parallel()

	c := NewCard(mifare.Size1K, testUID)
	b0 := c.Block(0)
	assert.True(t, mifare.CheckBCC(b0))
	assert.Equal(t, testUID, b0[:4])

	tr := mifare.ParseTrailer(c.Block(63))
	assert.Equal(t, ffKey(), tr.KeyA)
	assert.Equal(t, mifare.TransportAccess, tr.Access)
}

func TestAuthReadBlanksKeys(t *testing.T) {
	t.Parallel()

	c := NewCard(mifare.Size1K, testUID)
	_, err := c.SelectTarget(nil)
	require.NoError(t, err)

	p := &transceiver.Params{Key: ffKey(), UID: [4]byte{0xAA, 0xBB, 0xCC, 0xDD}}
	_, err = c.Mifare(transceiver.AuthA, 7, p)
	require.NoError(t, err)

	data, err := c.Mifare(transceiver.Read, 7, nil)
	require.NoError(t, err)
	tr := mifare.ParseTrailer([16]byte(data))
	assert.Equal(t, mifare.Key{}, tr.KeyA)
	assert.Equal(t, mifare.TransportAccess, tr.Access)

	// Other sectors need their own authentication.
	_, err = c.Mifare(transceiver.Read, 8, nil)
	assert.Error(t, err)
}

func TestFailedAuthHaltsCard(t *testing.T) {
	t.Parallel()

	c := NewCard(mifare.Size1K, testUID)
	_, err := c.SelectTarget(nil)
	require.NoError(t, err)

	bad := &transceiver.Params{Key: mifare.Key{1, 2, 3, 4, 5, 6}, UID: [4]byte{0xAA, 0xBB, 0xCC, 0xDD}}
	_, err = c.Mifare(transceiver.AuthA, 3, bad)
	assert.True(t, errors.Is(err, errorcodes.ErrAuthenticationFailed))

	good := &transceiver.Params{Key: ffKey(), UID: bad.UID}
	_, err = c.Mifare(transceiver.AuthA, 3, good)
	assert.Error(t, err, "card stays mute until reselected")

	_, err = c.SelectTarget(testUID)
	require.NoError(t, err)
	_, err = c.Mifare(transceiver.AuthA, 3, good)
	assert.NoError(t, err)
	assert.Equal(t, 3, c.Count(transceiver.AuthA))
}

func TestBackdoorSequence(t *testing.T) {
	t.Parallel()

	c := NewCard(mifare.Size1K, testUID)
	c.SetMagic1(true)
	_, err := c.SelectTarget(nil)
	require.NoError(t, err)

	require.NoError(t, c.SetProperty(transceiver.HandleCRC, false))
	require.NoError(t, c.SetProperty(transceiver.EasyFraming, false))

	_, err = c.TransceiveBytes(mifare.AppendCRCA([]byte{0x50, 0x00}))
	assert.Error(t, err)

	rx, bits, err := c.TransceiveBits([]byte{0x40}, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, bits)
	assert.Equal(t, []byte{0x0A}, rx)

	_, err = c.TransceiveBytes([]byte{0x43})
	require.NoError(t, err)

	require.NoError(t, c.SetProperty(transceiver.HandleCRC, true))
	require.NoError(t, c.SetProperty(transceiver.EasyFraming, true))

	var blk [16]byte
	blk[0] = 0x11
	_, err = c.Mifare(transceiver.Write, 0, &transceiver.Params{Data: blk})
	require.NoError(t, err)
	assert.Equal(t, blk, c.Block(0))

	raw, err := c.Mifare(transceiver.Read, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, ffKey(), mifare.ParseTrailer([16]byte(raw)).KeyA)
}

func TestBackdoorRejectedOnPlainCard(t *testing.T) {
	t.Parallel()

	c := NewCard(mifare.Size1K, testUID)
	_, err := c.SelectTarget(nil)
	require.NoError(t, err)
	require.NoError(t, c.SetProperty(transceiver.HandleCRC, false))
	require.NoError(t, c.SetProperty(transceiver.EasyFraming, false))

	_, _ = c.TransceiveBytes(mifare.AppendCRCA([]byte{0x50, 0x00}))
	_, _, err = c.TransceiveBits([]byte{0x40}, 7)
	assert.Error(t, err)
}

func TestRATS(t *testing.T) {
	t.Parallel()

	c := NewCard(mifare.Size1K, testUID)
	c.SetMagic2(true)
	_, err := c.SelectTarget(nil)
	require.NoError(t, err)
	require.NoError(t, c.SetProperty(transceiver.EasyFraming, false))

	ats, err := c.TransceiveBytes([]byte{0xE0, 0x50})
	require.NoError(t, err)
	_, magic2 := mifare.ClassifyATS(ats, [2]byte{0x00, 0x04})
	assert.True(t, magic2)
}

func TestRemovedCard(t *testing.T) {
	t.Parallel()

	c := NewCard(mifare.Size1K, testUID)
	c.Remove()
	_, err := c.SelectTarget(nil)
	assert.True(t, errors.Is(err, errorcodes.ErrTagNotFound))
}
