//nolint:all
package server_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	server "github.com/andrei-cloud/go_mfra/internal/server"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/andrei-cloud/go_mfra/internal/transceiver/remote"
	"github.com/andrei-cloud/go_mfra/internal/transceiver/sim"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUID = []byte{0xAA, 0xBB, 0xCC, 0xDD}

// freeAddr returns a loopback address with a free port.
func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

// startTestServer starts a bridge around a virtual card.
func startTestServer(t *testing.T, card *sim.Card) string {
	t.Helper()
	addr := freeAddr(t)

	srv, err := server.NewServer(addr, card)
	require.NoError(t, err)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		require.NoError(t, err)
	case <-time.After(200 * time.Millisecond):
		// Allow some time for the server to start.
	}
	t.Cleanup(func() { _ = srv.Stop() })

	return addr
}

func TestBridgeForwardsCommands(t *testing.T) {
	card := sim.NewCard(mifare.Size1K, testUID)
	card.SetBlock(5, [16]byte{0x55})
	addr := startTestServer(t, card)

	c, err := remote.Dial(addr)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "sim@"+addr, c.String())

	target, err := c.SelectTarget(nil)
	require.NoError(t, err)
	assert.Equal(t, testUID, target.UID)
	assert.Equal(t, byte(0x08), target.SAK)

	params := &transceiver.Params{
		Key: mifare.Key{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		UID: target.AuthUID(),
	}
	_, err = c.Mifare(transceiver.AuthA, 5, params)
	require.NoError(t, err)

	data, err := c.Mifare(transceiver.Read, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, byte(0x55), data[0])

	require.NoError(t, c.SetProperty(transceiver.EasyFraming, false))
	assert.False(t, card.Property(transceiver.EasyFraming))
}

func TestBridgeMapsErrors(t *testing.T) {
	card := sim.NewCard(mifare.Size1K, testUID)
	addr := startTestServer(t, card)

	c, err := remote.Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.SelectTarget(nil)
	require.NoError(t, err)

	_, err = c.Mifare(transceiver.AuthA, 3, &transceiver.Params{UID: [4]byte{0xAA, 0xBB, 0xCC, 0xDD}})
	assert.True(t, errors.Is(err, errorcodes.ErrAuthenticationFailed))

	card.Remove()
	_, err = c.SelectTarget(testUID)
	assert.True(t, errors.Is(err, errorcodes.ErrTagNotFound))
}

func TestBridgeUnlockBits(t *testing.T) {
	card := sim.NewCard(mifare.Size1K, testUID)
	card.SetMagic1(true)
	addr := startTestServer(t, card)

	c, err := remote.Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.SelectTarget(nil)
	require.NoError(t, err)
	require.NoError(t, c.SetProperty(transceiver.HandleCRC, false))
	require.NoError(t, c.SetProperty(transceiver.EasyFraming, false))

	_, _ = c.TransceiveBytes(mifare.AppendCRCA([]byte{0x50, 0x00}))
	rx, bits, err := c.TransceiveBits([]byte{0x40}, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, bits)
	assert.Equal(t, []byte{0x0A}, rx)
}
