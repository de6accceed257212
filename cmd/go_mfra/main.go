package main

import (
	"fmt"
	"os"

	"github.com/andrei-cloud/go_mfra/internal/cli"
	rootcli "github.com/andrei-cloud/go_mfra/internal/commands/cli"
)

func main() {
	root, err := rootcli.NewRootCommand()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	cmd, err := root.ExecuteC()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if cli.ShowUsage(err) {
			fmt.Fprint(os.Stderr, cmd.UsageString())
		}
		os.Exit(1)
	}
}
