// Package main is the entry point for the drupaldbg CLI.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/thoreinstein/drupaldbg/cmd/drupaldbg/commands"
	"github.com/thoreinstein/drupaldbg/internal/errors"
)

func main() {
	err := commands.Execute()
	if err == nil {
		return
	}

	if !commands.IsSilentExit(err) {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		if s := errors.Suggestion(err); s != "" {
			fmt.Fprintf(os.Stderr, "%s %s\n", color.YellowString("Hint:"), s)
		}
	}
	os.Exit(errors.ExitCode(err))
}
