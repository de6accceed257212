package cli

import (
	"errors"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/spf13/cobra"
)

// UsageError marks an error caused by invalid command line input.
type UsageError struct {
	Err error
}

func (e UsageError) Error() string { return e.Err.Error() }

func (e UsageError) Unwrap() error { return e.Err }

// Usage wraps err in a UsageError. A nil err stays nil.
func Usage(err error) error {
	if err == nil {
		return nil
	}

	return UsageError{Err: err}
}

// MarkUsageErrors makes cmd and its subcommands report flag parsing,
// positional argument, required flag and flag group errors as UsageError.
func MarkUsageErrors(cmd *cobra.Command) {
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return Usage(err)
	})
	markInput(cmd)
}

func markInput(cmd *cobra.Command) {
	if args := cmd.Args; args != nil {
		cmd.Args = func(c *cobra.Command, a []string) error {
			return Usage(args(c, a))
		}
	}

	// Cobra validates required flags and groups after PreRunE.
	if cmd.Runnable() {
		pre := cmd.PreRunE
		cmd.PreRunE = func(c *cobra.Command, a []string) error {
			if err := c.ValidateRequiredFlags(); err != nil {
				return Usage(err)
			}
			if err := c.ValidateFlagGroups(); err != nil {
				return Usage(err)
			}
			if pre != nil {
				return pre(c, a)
			}

			return nil
		}
	}

	for _, sub := range cmd.Commands() {
		markInput(sub)
	}
}

// ShowUsage reports whether err comes from invalid command line input, in
// which case the command usage is worth printing.
func ShowUsage(err error) bool {
	var ue UsageError
	if errors.As(err, &ue) {
		return true
	}

	return errors.Is(err, errorcodes.ErrInvalidSector)
}
