package plugin

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/andrei-cloud/go_mfra/internal/cli"
	"github.com/andrei-cloud/go_mfra/internal/plugins"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed plugins",
		Long:  `List the key-source plugins found in plugin.path with their metadata.`,
		Args:  cobra.NoArgs,
		RunE:  runListPlugins,
	}
}

func runListPlugins(cmd *cobra.Command, _ []string) error {
	// Disable logging for CLI listing.
	log.Logger = log.Logger.Level(zerolog.Disabled)

	pm, err := cli.LoadPlugins(cmd.Context(), afero.NewOsFs())
	if err != nil {
		return err
	}
	defer func() {
		_ = pm.Close()
	}()

	return printPlugins(cmd.OutOrStdout(), pm.List())
}

func printPlugins(out io.Writer, infos []plugins.Info) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "Plugin\tVersion\tDescription\tAuthor")
	_, _ = fmt.Fprintln(w, "------\t-------\t-----------\t------")

	for _, p := range infos {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			p.Name,
			p.Version,
			p.Description,
			p.Author)
	}

	return w.Flush()
}
