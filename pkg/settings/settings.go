// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/invowk/shtest/internal/issue"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

type (
	// Settings is a lazily loaded, read-only view of a settings file plus
	// environment overrides. It is safe for concurrent use.
	Settings struct {
		name       string
		searchDirs []string
		envPrefix  string

		mu     sync.Mutex
		loaded bool
		err    error
		path   string
		v      *viper.Viper
	}

	// Option configures Settings.
	Option func(*Settings)
)

// WithSearchDirs sets the directories searched for a bare name, in order.
// The default is the current directory.
func WithSearchDirs(dirs ...string) Option {
	return func(s *Settings) {
		s.searchDirs = slices.Clone(dirs)
	}
}

// WithEnvPrefix changes the environment override prefix. An empty prefix
// disables environment overrides.
func WithEnvPrefix(prefix string) Option {
	return func(s *Settings) {
		s.envPrefix = prefix
	}
}

// Open returns settings for name without touching the filesystem.
// An empty name means environment overrides only.
func Open(name string, opts ...Option) *Settings {
	s := &Settings{
		name:       name,
		searchDirs: []string{"."},
		envPrefix:  DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the name given to Open.
func (s *Settings) Name() string {
	return s.name
}

// Load reads the settings file. Only the first call does any work; later calls
// return the cached result.
func (s *Settings) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked(ctx)
}

// Path returns the file the settings were read from, or "" when none was found.
func (s *Settings) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(context.Background()); err != nil {
		return ""
	}
	return s.path
}

// Get returns the value of key as a string and whether it is set.
func (s *Settings) Get(key string) (string, bool) {
	v := s.viper()
	if v == nil || !v.IsSet(key) {
		return "", false
	}
	return v.GetString(key), true
}

// FromEnv reports whether key is currently overridden by a non-empty
// environment variable.
func (s *Settings) FromEnv(key string) bool {
	if s.envPrefix == "" {
		return false
	}
	return os.Getenv(EnvName(s.envPrefix, key)) != ""
}

// EnvName returns the environment variable overriding key under prefix.
func EnvName(prefix, key string) string {
	return strings.ToUpper(prefix + "_" + strings.ReplaceAll(key, ".", "_"))
}

// String returns the value of key, or fallback when it is not set.
func (s *Settings) String(key, fallback string) string {
	if value, ok := s.Get(key); ok {
		return value
	}
	return fallback
}

// Bool returns the value of key as a bool, or fallback when it is not set or
// not a boolean.
func (s *Settings) Bool(key string, fallback bool) bool {
	v := s.viper()
	if v == nil || !v.IsSet(key) {
		return fallback
	}
	b, err := cast.ToBoolE(v.Get(key))
	if err != nil {
		return fallback
	}
	return b
}

// Keys returns every key read from the file, sorted. Environment-only
// overrides are not listed.
func (s *Settings) Keys() []string {
	v := s.viper()
	if v == nil {
		return []string{}
	}
	keys := v.AllKeys()
	slices.Sort(keys)
	return keys
}

// All returns the value of every key in Keys, with overrides applied.
func (s *Settings) All() map[string]any {
	v := s.viper()
	all := make(map[string]any)
	if v == nil {
		return all
	}
	for _, key := range v.AllKeys() {
		all[key] = v.Get(key)
	}
	return all
}

// viper loads on demand and returns nil when loading failed.
func (s *Settings) viper() *viper.Viper {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(context.Background()); err != nil {
		return nil
	}
	return s.v
}

func (s *Settings) loadLocked(ctx context.Context) error {
	if s.loaded {
		return s.err
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("load settings canceled: %w", ctx.Err())
	default:
	}

	s.v, s.path, s.err = load(s.name, s.searchDirs, s.envPrefix)
	s.loaded = true
	return s.err
}

func load(name string, dirs []string, envPrefix string) (*viper.Viper, string, error) {
	v := viper.New()
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	path, err := resolve(name, dirs)
	if err != nil || path == "" {
		return v, "", err
	}

	if err := readInto(v, path); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("load settings").
			WithResource(path).
			WithSuggestion("Check that the file is valid " + strings.TrimPrefix(filepath.Ext(path), ".")).
			WithSuggestion("Verify well-known keys have the expected types (shell.builtins is a bool)").
			WithSuggestion("Run 'shtest config show --settings " + name + "' to inspect the result").
			Wrap(err).
			BuildError()
	}
	return v, path, nil
}

// resolve maps name to a file. Names with a known extension must exist; bare
// names are searched and may match nothing.
func resolve(name string, dirs []string) (string, error) {
	if name == "" {
		return "", nil
	}

	if slices.Contains(extensions, strings.ToLower(filepath.Ext(name))) {
		if !fileExists(name) {
			return "", issue.NewErrorContext().
				WithOperation("load settings").
				WithResource(name).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use a bare name (without extension) to make the file optional").
				Wrap(fmt.Errorf("settings file not found: %s", name)).
				BuildError()
		}
		return name, nil
	}

	for _, dir := range dirs {
		for _, ext := range extensions {
			candidate := filepath.Join(dir, name+ext)
			if fileExists(candidate) {
				return candidate, nil
			}
		}
	}
	return "", nil
}

func readInto(v *viper.Viper, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return loadCUEIntoViper(v, path)
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
