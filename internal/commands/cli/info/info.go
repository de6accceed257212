// Package info provides the tag discovery command.
package info

import (
	"fmt"
	"io"

	"github.com/andrei-cloud/go_mfra/internal/cli"
	"github.com/andrei-cloud/go_mfra/internal/engine"
	"github.com/andrei-cloud/go_mfra/internal/transceiver"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the tag in the field",
		Long: `Select the tag in the field and print its anticollision answers,
the guessed size and whether it is a direct-write magic card.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cli.InitLogging()

			tr, err := cli.OpenDevice()
			if err != nil {
				return fmt.Errorf("error opening NFC reader: %w", err)
			}
			defer tr.Close()

			return runInfo(cmd.OutOrStdout(), tr)
		},
	}
}

func runInfo(w io.Writer, tr transceiver.Transceiver) error {
	_, _ = fmt.Fprintf(w, "NFC reader: %s opened\n", tr)

	card, err := engine.Discover(tr, log.Logger)
	if err != nil {
		return err
	}

	cli.PrintTarget(w, card.Target)
	_, _ = fmt.Fprintf(w, "Size: %s (%d blocks)\n", card.Size, card.Blocks())
	_, _ = fmt.Fprintf(w, "MIFARE Classic: %t\n", card.Classic)
	_, _ = fmt.Fprintf(w, "Magic gen2: %t\n", card.Magic2)

	return nil
}
