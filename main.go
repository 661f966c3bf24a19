// surveyctl - admin console and submission tool for the survey backend.
//
// - No args + interactive terminal → browse (TUI)
// - No args + no terminal → CLI help
// - Subcommands/flags → CLI mode
package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/surveyops/surveyctl/internal/cli"
)

func main() {
	args := os.Args[1:]
	if isBrowseMode(args) {
		args = []string{"browse"}
	}

	if err := cli.Execute(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// isBrowseMode reports whether a bare invocation should open the browser.
// Both stdin and stdout must be terminals; otherwise the user gets help.
func isBrowseMode(args []string) bool {
	if len(args) > 0 {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
