// Package dump provides dump file commands.
package dump

import (
	"fmt"
	"io"
	"strings"

	"github.com/andrei-cloud/go_mfra/internal/dump"
	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewDumpCommand creates the dump command group.
func NewDumpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump file operations",
	}

	cmd.AddCommand(newInspectCommand())

	return cmd
}

func newInspectCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "inspect <dump.mfd>",
		Short: "Decode the blocks, keys and access conditions of a dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.OutOrStdout(), afero.NewOsFs(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, yaml)")

	return cmd
}

func runInspect(w io.Writer, fs afero.Fs, path, output string) error {
	info, err := fs.Stat(path)
	if err != nil {
		return fmt.Errorf("could not open dump file %s: %w", path, err)
	}
	size, ok := mifare.SizeForBytes(int(info.Size()))
	if !ok {
		return fmt.Errorf("%s is %d bytes: %w", path, info.Size(), errorcodes.ErrFormat)
	}

	d, err := dump.ReadFile(fs, path, size.Blocks())
	if err != nil {
		return err
	}
	report := dump.Inspect(d)

	switch strings.ToLower(output) {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return enc.Close()
	case "text", "":
		printText(w, report)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func printText(w io.Writer, r dump.Report) {
	bcc := "ok"
	if !r.BCCValid {
		bcc = "INVALID"
	}
	_, _ = fmt.Fprintf(w, "Card %s, UID %s, BCC %s\n", r.Size, r.UID, bcc)

	for _, s := range r.Sectors {
		_, _ = fmt.Fprintf(w, "\nSector %d (blocks %d-%d)\n", s.Sector, s.FirstBlock, s.Trailer)
		for i, b := range s.Blocks {
			_, _ = fmt.Fprintf(w, "  %3d  %s\n", s.FirstBlock+uint32(i), b)
		}

		valid := ""
		if !s.AccessValid {
			valid = " (inverted copy mismatch)"
		}
		_, _ = fmt.Fprintf(w, "  Key A %s  Key B %s  Access %s%s\n", s.KeyA, s.KeyB, s.Access, valid)
		for _, g := range s.Groups {
			_, _ = fmt.Fprintf(w, "    group %d  %s  %s\n", g.Group, g.Bits, g.Description)
		}
	}
}
