// Package plugin provides key-source plugin commands.
package plugin

import "github.com/spf13/cobra"

// NewPluginCommand creates the main plugin command group.
func NewPluginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Key-source plugin commands",
		Long:  `Commands for managing WASM plugins that derive candidate keys from the card UID.`,
	}

	cmd.AddCommand(NewCreateCommand())
	cmd.AddCommand(NewListCommand())

	return cmd
}
