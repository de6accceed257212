// Package config loads go_mfra settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/spf13/viper"
)

const dirName = ".go_mfra"

var (
	configData Config
	v          *viper.Viper
)

// Config holds all configuration settings.
type Config struct {
	// Reader configuration
	Device struct {
		Driver      string
		Connstring  string
		ReaderIndex int `mapstructure:"reader_index"`
	}
	// Key guessing and key file handling
	Keys struct {
		Extra []string
		Force bool
	}
	// Key-source plugins
	Plugin struct {
		Path string
	}
	// Sector access policy
	Access struct {
		TolerateFailures bool `mapstructure:"tolerate_failures"`
	}
	// Reader bridge
	Server struct {
		Host string
		Port int
	}
	// Logging configuration
	Log struct {
		Level  string
		Format string
	}
}

// Initialize sets up the configuration system. A non-empty file overrides the
// search path.
func Initialize(file string) error {
	v = viper.GetViper()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/" + dirName)
		v.AddConfigPath("/etc/go_mfra/")
	}

	setDefaults()

	// Environment variables, e.g. GOMFRA_DEVICE_DRIVER.
	v.SetEnvPrefix("GOMFRA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if file == "" {
		if err := ensureConfig(); err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	configData = Config{}
	if err := v.Unmarshal(&configData); err != nil {
		return fmt.Errorf("unable to decode into config struct: %w", err)
	}

	return nil
}

// setDefaults sets default values for all configuration options.
func setDefaults() {
	v.SetDefault("device.driver", "libnfc")
	v.SetDefault("device.connstring", "")
	v.SetDefault("device.reader_index", 0)

	v.SetDefault("keys.extra", []string{})
	v.SetDefault("keys.force", false)

	v.SetDefault("plugin.path", "plugins")

	v.SetDefault("access.tolerate_failures", true)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 4455)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "human")
}

const defaultConfig = `# go_mfra configuration file
device:
  driver: libnfc        # libnfc, pcsc, remote or sim
  connstring: ""        # libnfc connstring or bridge address
  reader_index: 0       # PC/SC reader index

keys:
  extra: []             # additional hex keys tried after the built-in list
  force: false          # use a key file even when its UID does not match

plugin:
  path: plugins

access:
  tolerate_failures: true

server:
  host: localhost
  port: 4455

log:
  level: info
  format: human
`

// ensureConfig creates a default config file if none exists.
func ensureConfig() error {
	home := os.Getenv("HOME")
	if home == "" {
		return nil
	}

	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := os.WriteFile(configFile, []byte(defaultConfig), 0o644); err != nil {
			return err
		}
	}

	return nil
}

// ExtraKeys parses keys.extra into keys.
func (c *Config) ExtraKeys() ([]mifare.Key, error) {
	keys := make([]mifare.Key, 0, len(c.Keys.Extra))
	for _, s := range c.Keys.Extra {
		k, err := mifare.ParseKey(s)
		if err != nil {
			return nil, fmt.Errorf("keys.extra: %w", err)
		}
		keys = append(keys, k)
	}

	return keys, nil
}

// Get returns the current configuration.
func Get() *Config {
	return &configData
}

// GetViper returns the viper instance.
func GetViper() *viper.Viper {
	return v
}
