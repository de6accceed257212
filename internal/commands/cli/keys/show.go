package keys

import (
	"encoding/hex"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/andrei-cloud/go_mfra/internal/cli"
	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/internal/keystore"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <keys.mfd>",
		Short: "Show the per-sector keys of a key file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.OutOrStdout(), afero.NewOsFs(), args[0])
		},
	}
}

func runShow(w io.Writer, fs afero.Fs, path string) error {
	info, err := fs.Stat(path)
	if err != nil {
		return fmt.Errorf("could not open keys file %s: %w", path, err)
	}
	size, ok := mifare.SizeForBytes(int(info.Size()))
	if !ok {
		return fmt.Errorf("%s is %d bytes: %w", path, info.Size(), errorcodes.ErrFormat)
	}

	store, err := keystore.LoadFile(fs, path, size.Blocks())
	if err != nil {
		return err
	}

	uid := store.UID()
	_, _ = fmt.Fprintf(w, "UID %s, %s\n\n", cli.FormatHex(uid[:]), size)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Sector\tTrailer\tKey A\tAccess\tKey B")
	_, _ = fmt.Fprintln(tw, "------\t-------\t-----\t------\t-----")
	for _, e := range store.Entries() {
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
			e.Sector, e.Block, e.KeyA, hex.EncodeToString(e.Access[:]), e.KeyB)
	}

	return tw.Flush()
}

func parseUID(s string) ([]byte, error) {
	uid, err := hex.DecodeString(s)
	if err != nil || len(uid) < mifare.UIDSize {
		return nil, fmt.Errorf("uid %q must be at least %d hex bytes", s, mifare.UIDSize)
	}

	return uid, nil
}
