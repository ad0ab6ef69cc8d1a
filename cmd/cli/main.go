package main

import (
	"fmt"
	"os"

	"github.com/limaJavier/csptimetabling/internal/cli"
)

func main() {
	err := cli.Execute()
	if err != nil && !cli.Silent(err) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(cli.ExitCode(err))
}
