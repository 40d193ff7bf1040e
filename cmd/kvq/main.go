// Command kvq loads CUE fixtures into an ordered key-value store and queries
// them.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/kvquery/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Failures were already written by the command's formatter.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != cli.ExitFailure {
			fmt.Fprintf(os.Stderr, "kvq: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
