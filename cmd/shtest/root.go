// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the shtest command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/invowk/shtest/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	verbose      bool
	settingsName string
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shtest",
		Short: "Run shell snippets the way shell-driven tests do",
		Long: TitleStyle.Render("shtest") + SubtitleStyle.Render(" - run shell snippets the way shell-driven tests do") + `

shtest executes commands in a fresh embedded shell runspace, wrapped by
optional pre- and post-execution commands, and prints one value per line.
Every stderr line and a non-zero exit status is reported as an error.

` + SubtitleStyle.Render("Examples:") + `
  shtest run 'echo hello'
  shtest run --pre 'x=1' --var x 'x=$((x+1))'
  shtest run --module ./build/lib.sh 'greet world'
  shtest config show --settings ./shtest.cue`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&settingsName, "settings", "shtest", "settings file, or a bare name searched in the current directory")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newConfigCommand())
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the command line and returns the process exit code.
func Main() int {
	err := fang.Execute(
		context.Background(),
		newRootCommand(),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// Execute runs the command line and exits. It is called by main.main().
func Execute() {
	os.Exit(Main())
}

// newLogger returns the CLI logger, at debug level with --verbose.
func newLogger(w io.Writer) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{Prefix: "shtest", Level: level})
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// include their suggestions, and in verbose mode the error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderIssue writes the catalog entry for id to w, styled for terminals
// and plain otherwise.
func renderIssue(w io.Writer, id issue.Id) {
	i := issue.Get(id)
	if i == nil {
		return
	}

	style := "notty"
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		style = "dark"
	}
	rendered, err := i.Render(style)
	if err != nil {
		return
	}
	fmt.Fprint(w, rendered)
}
