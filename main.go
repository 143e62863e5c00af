package main

import (
	"fmt"
	"os"

	"github.com/Iron-Ham/conductor/internal/cmd"
	"github.com/Iron-Ham/conductor/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errors.ExitCode(err))
	}
}
