// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"io"

	"github.com/charmbracelet/log"
)

// Option configures a Session.
type Option func(*Session)

// WithModule sources the file at path into every runspace opened by Execute.
func WithModule(path string) Option {
	return func(s *Session) {
		s.modulePath = path
	}
}

// WithDir sets the initial working directory of each runspace.
func WithDir(dir string) Option {
	return func(s *Session) {
		s.runspaceOpts.Dir = dir
	}
}

// WithEnv adds "NAME=value" pairs to each runspace's environment.
func WithEnv(pairs ...string) Option {
	return func(s *Session) {
		s.runspaceOpts.Env = append(s.runspaceOpts.Env, pairs...)
	}
}

// WithInheritEnv controls whether runspaces start from the process
// environment. The default is true.
func WithInheritEnv(inherit bool) Option {
	return func(s *Session) {
		s.runspaceOpts.InheritEnv = inherit
	}
}

// WithBuiltins enables the in-process core utilities in each runspace.
func WithBuiltins(enabled bool) Option {
	return func(s *Session) {
		s.runspaceOpts.Builtins = enabled
	}
}

// WithStdin sets the standard input of every script.
func WithStdin(r io.Reader) Option {
	return func(s *Session) {
		s.runspaceOpts.Stdin = r
	}
}

// WithLogger replaces the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}
