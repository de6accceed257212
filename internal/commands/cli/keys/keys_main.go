// Package keys provides key listing commands.
package keys

import (
	"github.com/spf13/cobra"
)

// NewKeysCommand creates the keys command group.
func NewKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Candidate keys and key files",
		Long: `Inspect the keys used for authentication.
The candidate list is tried in order when no key file is given; a key file
holds the per-sector keys of one card.`,
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newShowCommand())

	return cmd
}
