// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/invowk/shtest/pkg/settings"

	"github.com/charmbracelet/log"
)

// OptionsFromSettings maps the shell.* and log.level keys of s to session
// options. Relative paths from the settings file are taken relative to that
// file; relative paths from environment overrides stay relative to the working
// directory. Options passed to NewSession after these override them.
func OptionsFromSettings(s *settings.Settings) ([]Option, error) {
	var opts []Option

	base := ""
	if p := s.Path(); p != "" {
		base = filepath.Dir(p)
	}
	rel := func(key, path string) string {
		if base == "" || filepath.IsAbs(path) || s.FromEnv(key) {
			return path
		}
		return filepath.Join(base, path)
	}

	if module, ok := s.Get(settings.KeyShellModule); ok && module != "" {
		opts = append(opts, WithModule(rel(settings.KeyShellModule, module)))
	}
	if dir, ok := s.Get(settings.KeyShellDir); ok && dir != "" {
		opts = append(opts, WithDir(rel(settings.KeyShellDir, dir)))
	}
	if s.Bool(settings.KeyShellBuiltins, false) {
		opts = append(opts, WithBuiltins(true))
	}
	if level, ok := s.Get(settings.KeyLogLevel); ok && level != "" {
		lvl, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", settings.KeyLogLevel, level, err)
		}
		opts = append(opts, WithLogger(log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "shtest",
			Level:  lvl,
		})))
	}
	return opts, nil
}
