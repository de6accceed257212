package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/andrei-cloud/go_mfra/internal/errorcodes"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestShowUsage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "usage error", err: Usage(errors.New("accepts between 1 and 2 arg(s), received 0")), want: true},
		{name: "invalid sector", err: fmt.Errorf("sector 16: %w", errorcodes.ErrInvalidSector), want: true},
		{name: "missing file", err: fmt.Errorf("open keys.mfd: %w", os.ErrNotExist), want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "tag lost", err: fmt.Errorf("reselect: %w", errorcodes.ErrTagLost), want: false},
		{name: "auth", err: errorcodes.ErrAuthenticationFailed, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ShowUsage(tt.err))
		})
	}

	assert.NoError(t, Usage(nil))
}

// newUsageCommand builds a command shaped like the access command: grouped
// and required flags plus one or two positional arguments.
func newUsageCommand(runErr error, preRan *bool) *cobra.Command {
	root := &cobra.Command{Use: "root"}
	cmd := &cobra.Command{
		Use:  "do",
		Args: cobra.RangeArgs(1, 2),
		PreRunE: func(*cobra.Command, []string) error {
			*preRan = true
			return nil
		},
		RunE: func(*cobra.Command, []string) error {
			return runErr
		},
	}
	cmd.Flags().BoolP("read", "r", false, "")
	cmd.Flags().BoolP("write", "w", false, "")
	cmd.Flags().IntSliceP("sector", "s", nil, "")
	cmd.MarkFlagsMutuallyExclusive("read", "write")
	cmd.MarkFlagsOneRequired("read", "write")
	_ = cmd.MarkFlagRequired("sector")

	root.AddCommand(cmd)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	MarkUsageErrors(root)

	return root
}

func TestMarkUsageErrors(t *testing.T) {
	t.Parallel()

	missing := fmt.Errorf("open dump.mfd: %w", os.ErrNotExist)

	tests := []struct {
		name   string
		args   []string
		usage  bool
		preRan bool
	}{
		{name: "bad flag value", args: []string{"do", "-r", "-s", "x", "f"}, usage: true},
		{name: "unknown flag", args: []string{"do", "-r", "-s", "1", "--nope", "f"}, usage: true},
		{name: "no argument", args: []string{"do", "-r", "-s", "1"}, usage: true},
		{name: "too many arguments", args: []string{"do", "-r", "-s", "1", "a", "b", "c"}, usage: true},
		{name: "missing required flag", args: []string{"do", "-r", "f"}, usage: true},
		{name: "exclusive flags", args: []string{"do", "-r", "-w", "-s", "1", "f"}, usage: true},
		{name: "no flag of group", args: []string{"do", "-s", "1", "f"}, usage: true},
		{name: "runtime error", args: []string{"do", "-r", "-s", "1", "f"}, preRan: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var preRan bool
			root := newUsageCommand(missing, &preRan)
			root.SetArgs(tt.args)

			err := root.Execute()
			assert.Error(t, err)
			assert.Equal(t, tt.usage, ShowUsage(err))
			assert.Equal(t, tt.preRan, preRan, "existing PreRunE still runs")
			if !tt.usage {
				assert.ErrorIs(t, err, os.ErrNotExist)
			}
		})
	}
}
