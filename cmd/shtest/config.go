// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/invowk/shtest/internal/issue"
	"github.com/invowk/shtest/pkg/settings"

	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect shtest settings",
		Long: `Inspect shtest settings.

Settings are read from the file named by --settings (default: shtest.cue,
shtest.yaml, shtest.yml, shtest.json or shtest.toml in the current
directory). SHTEST_<KEY> environment variables override file values, with
dots in the key written as underscores.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var asTOML bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the loaded settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, asTOML)
		},
	}
	showCmd.Flags().BoolVar(&asTOML, "toml", false, "print the settings as TOML")

	cfgCmd.AddCommand(showCmd)
	return cfgCmd
}

func showConfig(cmd *cobra.Command, asTOML bool) error {
	s := settings.Open(settingsName)
	if err := s.Load(cmd.Context()); err != nil {
		renderIssue(cmd.ErrOrStderr(), issue.SettingsLoadFailedId)
		return &ExitError{Code: 2, Err: errors.New(formatErrorForDisplay(err, verbose))}
	}

	out := cmd.OutOrStdout()
	if asTOML {
		text, err := marshalTOML(s.All())
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
		return nil
	}

	printSettings(out, s)
	return nil
}

func printSettings(w io.Writer, s *settings.Settings) {
	fmt.Fprintln(w, TitleStyle.Render("Current Settings"))
	fmt.Fprintln(w)

	if p := s.Path(); p != "" {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Settings file"), p)
	} else {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("Settings file"), SubtitleStyle.Render("(none found)"))
	}
	fmt.Fprintln(w)

	keys := s.Keys()
	if len(keys) == 0 {
		fmt.Fprintf(w, "%s\n", SubtitleStyle.Render("(no keys set)"))
		return
	}

	all := s.All()
	for _, key := range keys {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render(key), SuccessStyle.Render(fmt.Sprint(all[key])))
	}

	if missing := missingWellKnown(keys); len(missing) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %v\n", SubtitleStyle.Render("defaults in effect for:"), missing)
	}
}

func missingWellKnown(keys []string) []string {
	var missing []string
	for _, k := range []string{
		settings.KeyShellModule,
		settings.KeyShellDir,
		settings.KeyShellBuiltins,
		settings.KeyLogLevel,
		settings.KeyHarnessInsecureSkipVerify,
	} {
		if !slices.Contains(keys, k) {
			missing = append(missing, k)
		}
	}
	return missing
}
