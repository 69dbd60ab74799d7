// Command efsmcheck analyzes extended finite state machine models.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/efsmcheck/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
