package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDefaults(t *testing.T) {
	viper.Reset()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	require.NoError(t, Initialize(""))

	cfg := Get()
	assert.Equal(t, "libnfc", cfg.Device.Driver)
	assert.True(t, cfg.Access.TolerateFailures)
	assert.Equal(t, 4455, cfg.Server.Port)
	assert.Equal(t, "human", cfg.Log.Format)

	_, err := os.Stat(filepath.Join(home, ".go_mfra", "config.yaml"))
	assert.NoError(t, err, "default config file is created")
}

func TestInitializeEnvOverride(t *testing.T) {
	viper.Reset()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("GOMFRA_DEVICE_DRIVER", "sim")
	t.Setenv("GOMFRA_ACCESS_TOLERATE_FAILURES", "false")

	require.NoError(t, Initialize(""))

	assert.Equal(t, "sim", Get().Device.Driver)
	assert.False(t, Get().Access.TolerateFailures)
}

func TestInitializeExplicitFile(t *testing.T) {
	viper.Reset()
	t.Setenv("HOME", t.TempDir())

	file := filepath.Join(t.TempDir(), "mfra.yaml")
	content := `device:
  driver: pcsc
  reader_index: 2
keys:
  extra:
    - "112233445566"
    - "a0b0c0d0e0f0"
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	require.NoError(t, Initialize(file))

	cfg := Get()
	assert.Equal(t, "pcsc", cfg.Device.Driver)
	assert.Equal(t, 2, cfg.Device.ReaderIndex)

	keys, err := cfg.ExtraKeys()
	require.NoError(t, err)
	assert.Equal(t, []mifare.Key{
		{0x11, 0x22, 0x33, 0x44, 0x55, 0x66},
		{0xA0, 0xB0, 0xC0, 0xD0, 0xE0, 0xF0},
	}, keys)
}

func TestExtraKeysInvalid(t *testing.T) {
	var cfg Config
	cfg.Keys.Extra = []string{"nothex"}

	_, err := cfg.ExtraKeys()
	assert.Error(t, err)
}
