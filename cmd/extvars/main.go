// Command extvars manages the extended variable registry of a block workspace.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/extvars/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil && !cli.Reported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
