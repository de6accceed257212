package dump

import (
	"bytes"
	"testing"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func miniDump(t *testing.T) afero.Fs {
	t.Helper()

	img := make([]byte, mifare.SizeMini.Bytes())
	copy(img, []byte{0x01, 0x02, 0x03, 0x04, 0x04})
	for s := 0; s < 5; s++ {
		_, trailer := mifare.SectorBounds(s)
		copy(img[trailer*16:], []byte{
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
			0xFF, 0x07, 0x80, 0x69,
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		})
	}

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "mini.mfd", img, 0o644))

	return fs
}

func TestInspectText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, runInspect(&buf, miniDump(t), "mini.mfd", "text"))

	out := buf.String()
	assert.Contains(t, out, "Card Mini, UID 01020304, BCC ok\n")
	assert.Contains(t, out, "\nSector 4 (blocks 16-19)\n")
	assert.Contains(t, out, "Key A FFFFFFFFFFFF  Key B FFFFFFFFFFFF  Access FF078069\n")
	assert.Contains(t, out, "group 3  001  key A write A, access read/write A, key B read/write A")
	assert.NotContains(t, out, "Sector 5")
}

func TestInspectYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, runInspect(&buf, miniDump(t), "mini.mfd", "yaml"))

	var got struct {
		Size     string `yaml:"size"`
		BCCValid bool   `yaml:"bcc_valid"`
		Sectors  []struct {
			Sector      int  `yaml:"sector"`
			AccessValid bool `yaml:"access_valid"`
		} `yaml:"sectors"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Mini", got.Size)
	assert.True(t, got.BCCValid)
	require.Len(t, got.Sectors, 5)
	assert.True(t, got.Sectors[4].AccessValid)
}

func TestInspectErrors(t *testing.T) {
	t.Parallel()

	fs := miniDump(t)
	require.NoError(t, afero.WriteFile(fs, "short.mfd", make([]byte, 10), 0o644))

	assert.ErrorIs(t, runInspect(&bytes.Buffer{}, fs, "short.mfd", "text"), errorcodes.ErrFormat)
	assert.Error(t, runInspect(&bytes.Buffer{}, fs, "missing.mfd", "text"))
	assert.Error(t, runInspect(&bytes.Buffer{}, fs, "mini.mfd", "xml"))
}
