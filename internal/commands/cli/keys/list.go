package keys

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/andrei-cloud/go_mfra/internal/cli"
	"github.com/andrei-cloud/go_mfra/internal/config"
	"github.com/andrei-cloud/go_mfra/internal/keystore"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List candidate keys in the order they are tried",
		Long: `List the built-in keys, the keys from keys.extra and, when --uid is
given, the keys the loaded plugins derive for that UID.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	cmd.Flags().String("uid", "", "card UID in hex to query key-source plugins")

	return cmd
}

type source struct {
	name string
	keys []mifare.Key
}

func runList(cmd *cobra.Command, _ []string) error {
	cli.InitLogging()

	extra, err := config.Get().ExtraKeys()
	if err != nil {
		return err
	}
	sources := []source{
		{name: "built-in", keys: keystore.DefaultKeys},
		{name: "config", keys: extra},
	}

	if uidHex, _ := cmd.Flags().GetString("uid"); uidHex != "" {
		uid, err := parseUID(uidHex)
		if err != nil {
			return err
		}

		pm, err := cli.LoadPlugins(cmd.Context(), afero.NewOsFs())
		if err != nil {
			return err
		}
		defer pm.Close()

		derived, err := pm.CandidateKeys(uid)
		if err != nil {
			return err
		}
		sources = append(sources, source{name: "plugins", keys: derived})
	}

	return printCandidates(cmd.OutOrStdout(), sources)
}

// printCandidates lists keys in trial order, marking repeats as skipped.
func printCandidates(w io.Writer, sources []source) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tKey\tSource")
	_, _ = fmt.Fprintln(tw, "-\t---\t------")

	seen := make(map[mifare.Key]bool)
	n := 0
	for _, src := range sources {
		for _, k := range src.keys {
			if seen[k] {
				_, _ = fmt.Fprintf(tw, "-\t%s\t%s (duplicate)\n", k, src.name)
				continue
			}
			seen[k] = true
			n++
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", n, k, src.name)
		}
	}

	return tw.Flush()
}
