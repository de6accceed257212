package mifare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTransportAccess(t *testing.T) {
	t.Parallel()

	ac, err := DecodeAccess(TransportAccess)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Equal(t, "000", ac[i].String(), "group %d", i)
	}
	assert.Equal(t, "001", ac[3].String())
	assert.Equal(t, "key A write A, access read/write A, key B read/write A", ac[3].Describe(true))
	assert.Equal(t, "read AB, write AB, increment AB, decrement AB", ac[0].Describe(false))
}

func TestEncodeAccessRoundTrip(t *testing.T) {
	t.Parallel()

	ac := AccessConditions{
		{C1: true},
		{C2: true, C3: true},
		{C1: true, C2: true, C3: true},
		{C1: true, C3: true},
	}
	raw := EncodeAccess(ac, 0x69)
	assert.Equal(t, byte(0x69), raw[3])

	got, err := DecodeAccess(raw)
	require.NoError(t, err)
	assert.Equal(t, ac, got)

	assert.Equal(t, TransportAccess, EncodeAccess(AccessConditions{{}, {}, {}, {C3: true}}, 0x69))
}

func TestDecodeAccessInvertedMismatch(t *testing.T) {
	t.Parallel()

	raw := TransportAccess
	raw[0] = 0x00

	_, err := DecodeAccess(raw)
	assert.ErrorIs(t, err, ErrAccessBitsInverted)
}

func TestGuessSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		atqa [2]byte
		sak  byte
		want CardSize
	}{
		{name: "1K", atqa: [2]byte{0x00, 0x04}, sak: 0x08, want: Size1K},
		{name: "4K", atqa: [2]byte{0x00, 0x02}, sak: 0x18, want: Size4K},
		{name: "Mini", atqa: [2]byte{0x00, 0x04}, sak: 0x09, want: SizeMini},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GuessSize(tt.atqa, tt.sak))
		})
	}

	assert.Equal(t, 20, SizeMini.Blocks())
	assert.Equal(t, 1024, Size1K.Bytes())
	assert.Equal(t, 4096, Size4K.Bytes())
}

func TestClassifyATS(t *testing.T) {
	t.Parallel()

	plus := []byte{0x0C, 0x75, 0x77, 0x80, 0x02, 0xC1, 0x05, 0x2F, 0x2F, 0x01}
	plus2K, magic2 := ClassifyATS(plus, [2]byte{0x00, 0x04})
	assert.True(t, plus2K)
	assert.False(t, magic2)

	plus2K, _ = ClassifyATS(plus, [2]byte{0x00, 0x02})
	assert.False(t, plus2K, "4K ATQA never downgrades to 2K")

	gen2 := []byte{0x09, 0x78, 0x00, 0x91, 0x02, 0xDA, 0xBC, 0x19, 0x10}
	plus2K, magic2 = ClassifyATS(gen2, [2]byte{0x00, 0x04})
	assert.False(t, plus2K)
	assert.True(t, magic2)

	plus2K, magic2 = ClassifyATS(nil, [2]byte{})
	assert.False(t, plus2K)
	assert.False(t, magic2)
}

func TestSizeForBytes(t *testing.T) {
	t.Parallel()

	s, ok := SizeForBytes(320)
	assert.True(t, ok)
	assert.Equal(t, SizeMini, s)

	s, ok = SizeForBytes(4096)
	assert.True(t, ok)
	assert.Equal(t, Size4K, s)

	_, ok = SizeForBytes(1000)
	assert.False(t, ok)
}
