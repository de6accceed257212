// Package access provides the sector read/write command.
package access

import (
	"fmt"
	"os"

	"github.com/andrei-cloud/go_mfra/internal/cli"
	"github.com/andrei-cloud/go_mfra/internal/config"
	"github.com/andrei-cloud/go_mfra/internal/engine"
	"github.com/andrei-cloud/go_mfra/pkg/mifare"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

type options struct {
	read, write bool
	keyA, keyB  bool
	sectors     []int
	appendDump  bool
	unlock      bool
	force       bool
	strict      bool
	tui         bool
}

// NewAccessCommand creates the access command.
func NewAccessCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "access (-r|-w) (-a|-b) -s <sectorId>... <dump.mfd> [<keys.mfd>]",
		Short: "Read or write selected sectors of a MIFARE Classic tag",
		Long: `Read or write selected sectors of a MIFARE Classic tag.

The dump file is written when reading and read when writing. Without a key
file the built-in, configured and plugin-provided keys are tried in turn.`,
		Example: `  go_mfra access -r -a -s 1 -s 2 dump.mfd
  go_mfra access -w -b -s 0 -u dump.mfd keys.mfd`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.read, "read", "r", false, "read the tag into the dump file")
	f.BoolVarP(&opts.write, "write", "w", false, "write the dump file to the tag")
	f.BoolVarP(&opts.keyA, "key-a", "a", false, "authenticate with key A")
	f.BoolVarP(&opts.keyB, "key-b", "b", false, "authenticate with key B")
	f.IntSliceVarP(&opts.sectors, "sector", "s", nil, "sector id between 0 and 15, repeatable")
	f.BoolVarP(&opts.appendDump, "append", "p", false, "read into the existing dump, overwriting only the selected blocks")
	f.BoolVarP(&opts.unlock, "unlock", "u", false, "unlock mode for magic cards")
	f.BoolVarP(&opts.force, "force", "f", false, "use the key file even when its UID does not match")
	f.BoolVar(&opts.strict, "strict", false, "abort a sector at the first failed block")
	f.BoolVar(&opts.tui, "tui", true, "show live progress when attached to a terminal")

	cmd.MarkFlagsMutuallyExclusive("read", "write")
	cmd.MarkFlagsOneRequired("read", "write")
	cmd.MarkFlagsMutuallyExclusive("key-a", "key-b")
	cmd.MarkFlagsOneRequired("key-a", "key-b")
	_ = cmd.MarkFlagRequired("sector")

	_ = viper.BindPFlag("keys.force", f.Lookup("force"))

	return cmd
}

// request turns the parsed command line into an engine request.
func request(opts options, args []string) (engine.Request, error) {
	cfg := config.Get()

	req := engine.Request{
		Mode:     engine.ModeRead,
		KeyType:  mifare.KeyA,
		Sectors:  opts.sectors,
		DumpPath: args[0],
		Append:   opts.appendDump,
		Unlock:   opts.unlock,
		Force:    opts.force || cfg.Keys.Force,
		Tolerant: cfg.Access.TolerateFailures && !opts.strict,
	}
	if opts.write {
		req.Mode = engine.ModeWrite
	}
	if opts.keyB {
		req.KeyType = mifare.KeyB
	}
	if len(args) > 1 {
		req.KeyPath = args[1]
	}

	extra, err := cfg.ExtraKeys()
	if err != nil {
		return req, err
	}
	req.Extra = extra

	return req, nil
}

func run(cmd *cobra.Command, opts options, args []string) error {
	cli.InitLogging()

	req, err := request(opts, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Using dumpfile %s\n", req.DumpPath)
	if req.KeyPath != "" {
		_, _ = fmt.Fprintf(out, "Using keyfile %s\n", req.KeyPath)
	}

	fs := afero.NewOsFs()
	runner := &engine.Runner{
		FS:     fs,
		Open:   cli.OpenDevice,
		Logger: log.Logger,
	}

	if req.KeyPath == "" {
		pm, err := cli.LoadPlugins(cmd.Context(), fs)
		if err != nil {
			return err
		}
		defer pm.Close()
		runner.Keys = pm
	}

	if opts.tui && isTerminal(out) {
		return runTUI(runner, req)
	}

	runner.Observer = newPrinter(out)
	sum, err := runner.Run(req)
	if sum.Card != nil {
		_, _ = fmt.Fprintf(out, "Tag UID %s, %s\n", cli.FormatHex(sum.Card.Target.UID), sum.Card.Size)
	}

	return err
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}
