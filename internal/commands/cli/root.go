// Package cli provides the CLI command structure for go_mfra.
package cli

import (
	"fmt"

	"github.com/andrei-cloud/go_mfra/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// NewRootCommand creates and returns the root command with all subcommands.
func NewRootCommand() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:   "go_mfra",
		Short: "MIFARE Classic random sector access",
		Long: `Read and write individual sectors of MIFARE Classic tags, with key
guessing, key files and unlock support for magic cards.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// Initialize configuration before running any command.
			if err := config.Initialize(cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			return nil
		},
	}

	// Add persistent flags that affect all commands.
	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default is $HOME/.go_mfra/config.yaml)")

	// Add global flags that can override config file settings.
	rootCmd.PersistentFlags().
		String("log-level", "info", "logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "logging format (human, json)")
	rootCmd.PersistentFlags().String("driver", "", "reader driver (libnfc, pcsc, remote, sim)")
	rootCmd.PersistentFlags().String("device", "", "libnfc connstring, bridge address or sim card (size[:uid])")
	rootCmd.PersistentFlags().String("plugin-path", "plugins", "path to plugin directory")

	// Bind flags to viper.
	bindings := map[string]string{
		"log.level":         "log-level",
		"log.format":        "log-format",
		"device.driver":     "driver",
		"device.connstring": "device",
		"plugin.path":       "plugin-path",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", flag, err)
		}
	}

	// Register all commands.
	if err := RegisterCommands(rootCmd); err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	return rootCmd, nil
}
