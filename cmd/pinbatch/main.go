// Package main is the pinbatch command.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rshade/pinbatch/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev" //nolint:gochecknoglobals // Set by the linker

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI with args and returns the process exit code.
func run(args []string) int {
	root := cli.NewRootCmd(version)
	root.SetArgs(args)
	root.SilenceErrors = true

	err := root.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return cli.ExitCode(err)
}
