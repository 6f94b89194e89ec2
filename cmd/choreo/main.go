// Command choreo compiles BPMN choreographies and checks running
// instances against them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/choreo/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
