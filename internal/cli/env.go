package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/andrei-cloud/go_mfra/internal/config"
	"github.com/andrei-cloud/go_mfra/internal/device"
	"github.com/andrei-cloud/go_mfra/internal/logging"
	"github.com/andrei-cloud/go_mfra/internal/plugins"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// InitLogging configures the global logger from log.level and log.format,
// with command line flags overriding the config file through viper.
func InitLogging() {
	level := strings.TrimSpace(strings.ToLower(viper.GetString("log.level")))
	format := strings.TrimSpace(strings.ToLower(viper.GetString("log.format")))

	logging.InitLogger(level == "debug", format != "json")
	if level == "error" {
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	} else if level == "warn" {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}

// DeviceOptions returns the reader selection from configuration.
func DeviceOptions() device.Options {
	cfg := config.Get()

	return device.Options{
		Driver:      cfg.Device.Driver,
		Connstring:  cfg.Device.Connstring,
		ReaderIndex: cfg.Device.ReaderIndex,
	}
}

// OpenDevice opens the configured reader.
func OpenDevice() (transceiver.Transceiver, error) {
	return device.Open(DeviceOptions(), log.Logger)
}

// LoadPlugins returns a plugin manager loaded from plugin.path.
func LoadPlugins(ctx context.Context, fs afero.Fs) (*plugins.Manager, error) {
	pm := plugins.NewManager(ctx, fs, log.Logger)
	if err := pm.LoadAll(config.Get().Plugin.Path); err != nil {
		return nil, fmt.Errorf("failed to load plugins: %w", err)
	}

	return pm, nil
}
