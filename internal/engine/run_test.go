package engine

import (
	"errors"
	"testing"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/andrei-cloud/go_mfra/internal/transceiver/sim"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticKeys []mifare.Key

func (s staticKeys) CandidateKeys([]byte) ([]mifare.Key, error) {
	return s, nil
}

func newRunner(card *sim.Card, fs afero.Fs) *Runner {
	return &Runner{
		FS:     fs,
		Open:   func() (transceiver.Transceiver, error) { return card, nil },
		Logger: zerolog.Nop(),
	}
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		card   func() *sim.Card
		size   mifare.CardSize
		magic2 bool
	}{
		{
			name: "1K",
			card: func() *sim.Card { return sim.NewCard(mifare.Size1K, cardUID) },
			size: mifare.Size1K,
		},
		{
			name: "4K",
			card: func() *sim.Card { return sim.NewCard(mifare.Size4K, cardUID) },
			size: mifare.Size4K,
		},
		{
			name: "Mini",
			card: func() *sim.Card { return sim.NewCard(mifare.SizeMini, cardUID) },
			size: mifare.SizeMini,
		},
		{
			name: "Plus 2K",
			card: func() *sim.Card { return sim.NewCard(mifare.Size2K, cardUID) },
			size: mifare.Size2K,
		},
		{
			name: "gen2",
			card: func() *sim.Card {
				c := sim.NewCard(mifare.Size1K, cardUID)
				c.SetMagic2(true)
				return c
			},
			size:   mifare.Size1K,
			magic2: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			card := tt.card()
			info, err := Discover(card, zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.size, info.Size)
			assert.Equal(t, tt.magic2, info.Magic2)
			assert.True(t, info.Classic)
			assert.Equal(t, cardUID, info.Target.UID)
			assert.True(t, card.Property(transceiver.EasyFraming))
			assert.False(t, card.Property(transceiver.InfiniteSelect))
		})
	}
}

func TestDiscoverNoTag(t *testing.T) {
	t.Parallel()

	card := sim.NewCard(mifare.Size1K, cardUID)
	card.Remove()

	_, err := Discover(card, zerolog.Nop())
	assert.True(t, errors.Is(err, errorcodes.ErrTagNotFound))
}

func TestRunReadPersistsDump(t *testing.T) {
	t.Parallel()

	card := sim.NewCard(mifare.Size1K, cardUID)
	card.SetBlock(5, [16]byte{0x55})
	fs := afero.NewMemMapFs()

	sum, err := newRunner(card, fs).Run(Request{
		Mode:     ModeRead,
		KeyType:  mifare.KeyA,
		Sectors:  []int{0, 1},
		DumpPath: "/dump.mfd",
		Tolerant: true,
	})
	require.NoError(t, err)
	require.Len(t, sum.Results, 2)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, mifare.Size1K, sum.Card.Size)

	data, err := afero.ReadFile(fs, "/dump.mfd")
	require.NoError(t, err)
	require.Len(t, data, 1024)
	assert.Equal(t, byte(0x55), data[5*16])
	assert.Equal(t, cardUID, data[:4])
}

func TestRunAppendKeepsOtherSectors(t *testing.T) {
	t.Parallel()

	card := sim.NewCard(mifare.Size1K, cardUID)
	fs := afero.NewMemMapFs()
	existing := make([]byte, 1024)
	existing[40*16] = 0x77
	require.NoError(t, afero.WriteFile(fs, "/dump.mfd", existing, 0o644))

	_, err := newRunner(card, fs).Run(Request{
		Mode:     ModeRead,
		Sectors:  []int{2},
		DumpPath: "/dump.mfd",
		Append:   true,
		Tolerant: true,
	})
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "/dump.mfd")
	require.NoError(t, err)
	assert.Equal(t, byte(0x77), data[40*16])
	assert.Equal(t, byte(0xFF), data[11*16+6], "sector 2 access bits read")
}

func TestRunWriteWithKeyFile(t *testing.T) {
	t.Parallel()

	card := sim.NewCard(mifare.Size1K, cardUID)
	fs := afero.NewMemMapFs()

	keys := make([]byte, 1024)
	copy(keys, cardUID)
	d := make([]byte, 1024)
	for b := 3; b < 64; b += 4 {
		tr := mifare.Trailer{KeyA: ffKey, Access: mifare.TransportAccess, KeyB: ffKey}
		raw := tr.Bytes()
		copy(keys[b*16:], raw[:])
		copy(d[b*16:], raw[:])
	}
	d[8*16] = 0x88
	require.NoError(t, afero.WriteFile(fs, "/keys.mfd", keys, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/dump.mfd", d, 0o644))

	sum, err := newRunner(card, fs).Run(Request{
		Mode:     ModeWrite,
		KeyType:  mifare.KeyB,
		Sectors:  []int{2},
		DumpPath: "/dump.mfd",
		KeyPath:  "/keys.mfd",
		Tolerant: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Results[0].Processed)
	assert.Equal(t, byte(0x88), card.Block(8)[0])
	assert.Equal(t, 1, card.Count(transceiver.AuthB))
}

func TestRunUIDMismatch(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	keys := make([]byte, 1024)
	copy(keys, []byte{0x01, 0x02, 0x03, 0x04})
	require.NoError(t, afero.WriteFile(fs, "/keys.mfd", keys, 0o644))

	req := Request{
		Mode:     ModeRead,
		Sectors:  []int{0},
		DumpPath: "/dump.mfd",
		KeyPath:  "/keys.mfd",
	}

	card := sim.NewCard(mifare.Size1K, cardUID)
	_, err := newRunner(card, fs).Run(req)
	assert.True(t, errors.Is(err, errorcodes.ErrUIDMismatch))
	assert.Equal(t, 0, card.Count(transceiver.AuthA))

	// Forced, the run proceeds and fails on the wrong keys instead.
	req.Force = true
	card = sim.NewCard(mifare.Size1K, cardUID)
	_, err = newRunner(card, fs).Run(req)
	assert.True(t, errors.Is(err, errorcodes.ErrAuthenticationFailed))
	assert.Equal(t, 1, card.Count(transceiver.AuthA))
}

func TestRunContinuesAfterSectorFailure(t *testing.T) {
	t.Parallel()

	card := sim.NewCard(mifare.Size1K, cardUID)
	locked := mifare.Key{0x0F, 0x0E, 0x0D, 0x0C, 0x0B, 0x0A}
	card.SetKeys(4, locked, locked)
	fs := afero.NewMemMapFs()

	sum, err := newRunner(card, fs).Run(Request{
		Mode:     ModeRead,
		Sectors:  []int{1, 2},
		DumpPath: "/dump.mfd",
		Tolerant: true,
	})
	assert.True(t, errors.Is(err, errorcodes.ErrAuthenticationFailed))
	require.Len(t, sum.Results, 2)
	assert.Equal(t, 0, sum.Results[0].Processed)
	assert.Equal(t, 4, sum.Results[1].Processed)

	exists, err := afero.Exists(fs, "/dump.mfd")
	require.NoError(t, err)
	assert.True(t, exists, "sector 2 was persisted")
}

func TestRunPluginKeys(t *testing.T) {
	t.Parallel()

	card := sim.NewCard(mifare.Size1K, cardUID)
	derived := mifare.Key{0x5A, 0x5A, 0x5A, 0x5A, 0x5A, 0x5A}
	card.SetKeys(0, derived, derived)

	r := newRunner(card, afero.NewMemMapFs())
	r.Keys = staticKeys{derived}

	sum, err := r.Run(Request{Mode: ModeRead, Sectors: []int{0}, DumpPath: "/d.mfd", Tolerant: true})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Results[0].Processed)
}

func TestRunStopsOnSafetyViolation(t *testing.T) {
	t.Parallel()

	card := sim.NewCard(mifare.Size1K, cardUID)
	card.SetMagic1(true)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dump.mfd", make([]byte, 1024), 0o644))
	bad := make([]byte, 1024)
	bad[0], bad[4] = 0x01, 0x00
	require.NoError(t, afero.WriteFile(fs, "/bad.mfd", bad, 0o644))

	sum, err := newRunner(card, fs).Run(Request{
		Mode:     ModeWrite,
		Sectors:  []int{0, 1},
		DumpPath: "/bad.mfd",
		Unlock:   true,
		Tolerant: true,
	})
	assert.True(t, errors.Is(err, errorcodes.ErrSafetyViolation))
	assert.Len(t, sum.Results, 1)
	assert.Equal(t, 0, card.Count(transceiver.Write))
}

func TestRunRejectsBadRequests(t *testing.T) {
	t.Parallel()

	card := sim.NewCard(mifare.Size1K, cardUID)
	r := newRunner(card, afero.NewMemMapFs())

	_, err := r.Run(Request{Mode: ModeRead, DumpPath: "/d.mfd"})
	assert.True(t, errors.Is(err, errorcodes.ErrInvalidSector))

	_, err = r.Run(Request{Mode: ModeRead, Sectors: []int{16}, DumpPath: "/d.mfd"})
	assert.True(t, errors.Is(err, errorcodes.ErrInvalidSector))

	_, err = r.Run(Request{Mode: ModeWrite, Sectors: []int{1}, DumpPath: "/missing.mfd"})
	assert.Error(t, err)
}

// truncatedUID answers selections with a UID cut to n bytes.
type truncatedUID struct {
	*sim.Card
	n int
}

func (c truncatedUID) SelectTarget(uid []byte) (*transceiver.Target, error) {
	t, err := c.Card.SelectTarget(uid)
	if t != nil {
		t.UID = t.UID[:c.n]
	}

	return t, err
}

func TestRunRejectsShortUID(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	keys := make([]byte, 1024)
	copy(keys, cardUID)
	require.NoError(t, afero.WriteFile(fs, "/keys.mfd", keys, 0o644))

	for _, n := range []int{0, 2, 3} {
		card := sim.NewCard(mifare.Size1K, cardUID)
		runner := &Runner{
			FS:     fs,
			Open:   func() (transceiver.Transceiver, error) { return truncatedUID{Card: card, n: n}, nil },
			Logger: zerolog.Nop(),
		}

		var err error
		require.NotPanics(t, func() {
			_, err = runner.Run(Request{
				Mode:     ModeRead,
				Sectors:  []int{0},
				DumpPath: "/dump.mfd",
				KeyPath:  "/keys.mfd",
				Force:    true,
			})
		}, "uid of %d bytes", n)
		assert.True(t, errors.Is(err, errorcodes.ErrTagNotFound), "uid of %d bytes", n)
		assert.Equal(t, 0, card.Count(transceiver.AuthA), "uid of %d bytes", n)
	}
}
