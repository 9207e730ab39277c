package main

import (
	"fmt"
	"os"

	"github.com/thanhtdvncc/dts-beam-tool/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
