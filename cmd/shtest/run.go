// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/invowk/shtest/internal/issue"
	"github.com/invowk/shtest/internal/watch"
	"github.com/invowk/shtest/pkg/settings"
	"github.com/invowk/shtest/pkg/shell"

	"github.com/spf13/cobra"
)

type runFlags struct {
	pre      []string
	post     []string
	vars     []string
	module   string
	dir      string
	builtins bool
	watch    bool
	patterns []string
}

func newRunCommand() *cobra.Command {
	var flags runFlags

	runCmd := &cobra.Command{
		Use:   "run [flags] <command>...",
		Short: "Execute commands in a fresh runspace",
		Long: `Execute commands in a fresh runspace.

The pre-execution commands, the given commands and the post-execution
commands run as one script. Each stdout line is printed as a value; each
stderr line is an error record. Any error record exits with status 1.

Flags override the shell.* keys of the settings file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.watch {
				return watchCommands(cmd, &flags, args)
			}
			return runCommands(cmd, &flags, args)
		},
	}

	runCmd.Flags().StringArrayVar(&flags.pre, "pre", nil, "pre-execution command (repeatable)")
	runCmd.Flags().StringArrayVar(&flags.post, "post", nil, "post-execution command (repeatable)")
	runCmd.Flags().StringArrayVar(&flags.vars, "var", nil, "print NAME=value for a variable after execution (repeatable)")
	runCmd.Flags().StringVar(&flags.module, "module", "", "script sourced into the runspace first")
	runCmd.Flags().StringVar(&flags.dir, "dir", "", "initial working directory")
	runCmd.Flags().BoolVar(&flags.builtins, "builtins", false, "use the portable core utilities (cat, cp, mkdir, mv, rm, touch)")
	runCmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "rerun whenever matching files change, until interrupted")
	runCmd.Flags().StringArrayVar(&flags.patterns, "watch-pattern", nil, "glob selecting watched files, relative to --dir (repeatable, default all)")
	return runCmd
}

func runCommands(cmd *cobra.Command, flags *runFlags, args []string) error {
	ctx := cmd.Context()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	logger := newLogger(stderr)

	s := settings.Open(settingsName)
	if err := s.Load(ctx); err != nil {
		renderIssue(stderr, issue.SettingsLoadFailedId)
		return &ExitError{Code: 2, Err: errors.New(formatErrorForDisplay(err, verbose))}
	}

	opts, err := shell.OptionsFromSettings(s)
	if err != nil {
		renderIssue(stderr, issue.SettingsLoadFailedId)
		return &ExitError{Code: 2, Err: errors.New(formatErrorForDisplay(err, verbose))}
	}
	opts = append(opts, shell.WithLogger(logger), shell.WithStdin(cmd.InOrStdin()))
	if cmd.Flags().Changed("module") {
		opts = append(opts, shell.WithModule(flags.module))
	}
	if cmd.Flags().Changed("dir") {
		opts = append(opts, shell.WithDir(flags.dir))
	}
	if cmd.Flags().Changed("builtins") {
		opts = append(opts, shell.WithBuiltins(flags.builtins))
	}

	session := shell.NewSession(opts...)
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("closing runspace", "err", err)
		}
	}()
	session.SetPreExecutionCommands(flags.pre...)
	session.SetPostExecutionCommands(flags.post...)

	res, err := session.Execute(ctx, args...)
	if res != nil {
		printResult(stdout, stderr, res)
	}
	if res != nil || err == nil {
		if verr := printVariables(stdout, session, flags.vars); verr != nil && err == nil {
			err = verr
		}
	}

	var loadErr *shell.ModuleLoadError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &loadErr):
		renderIssue(stderr, issue.ModuleNotBuiltId)
	case errors.Is(err, shell.ErrNoRunspace):
		renderIssue(stderr, issue.NoRunspaceId)
	case errors.Is(err, shell.ErrExecution) && verbose:
		renderIssue(stderr, issue.ScriptErrorsId)
	}
	return &ExitError{Code: 1, Err: err}
}

// watchCommands runs once, then again after every change under --dir.
// Failed runs are reported and do not stop the loop.
func watchCommands(cmd *cobra.Command, flags *runFlags, args []string) error {
	logger := newLogger(cmd.ErrOrStderr())
	rerun := func(_ context.Context, changed []string) error {
		if len(changed) > 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), SubtitleStyle.Render("changed: "+strings.Join(changed, ", ")))
		}
		if err := runCommands(cmd, flags, args); err != nil && !errors.As(err, new(*ExitError)) {
			return err
		}
		return nil
	}

	w, err := watch.New(watch.Config{
		Dir:      flags.dir,
		Patterns: flags.patterns,
		OnChange: rerun,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if err := rerun(cmd.Context(), nil); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), SubtitleStyle.Render("watching "+w.Dir()+", interrupt to stop"))
	return w.Run(cmd.Context())
}

func printResult(stdout, stderr io.Writer, res *shell.Result) {
	for _, v := range res.Values {
		fmt.Fprintln(stdout, v)
	}
	for _, rec := range res.Errors {
		fmt.Fprintln(stderr, ErrorStyle.Render("error:")+" "+rec.String())
	}
}

func printVariables(w io.Writer, session *shell.Session, names []string) error {
	for _, name := range names {
		value, err := session.GetVariableValue(name)
		if err != nil {
			return fmt.Errorf("reading variable %s: %w", name, err)
		}
		fmt.Fprintf(w, "%s=%s\n", name, formatValue(value))
	}
	return nil
}
