// Package cli provides centralized command registration.
package cli

import (
	shared "github.com/andrei-cloud/go_mfra/internal/cli"
	"github.com/andrei-cloud/go_mfra/internal/commands/cli/access"
	"github.com/andrei-cloud/go_mfra/internal/commands/cli/dump"
	"github.com/andrei-cloud/go_mfra/internal/commands/cli/info"
	"github.com/andrei-cloud/go_mfra/internal/commands/cli/keys"
	"github.com/andrei-cloud/go_mfra/internal/commands/cli/plugin"
	"github.com/andrei-cloud/go_mfra/internal/commands/cli/server"
	"github.com/spf13/cobra"
)

// RegisterCommands registers all root commands.
func RegisterCommands(root *cobra.Command) error {
	root.AddCommand(access.NewAccessCommand())
	root.AddCommand(info.NewInfoCommand())
	root.AddCommand(keys.NewKeysCommand())
	root.AddCommand(dump.NewDumpCommand())
	root.AddCommand(server.NewServeCommand())
	root.AddCommand(plugin.NewPluginCommand())

	shared.MarkUsageErrors(root)

	return nil
}
