// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"
)

// Session sequences commands against a single live Runspace.
// It is not safe for concurrent use.
type Session struct {
	modulePath   string
	runspaceOpts RunspaceOptions
	logger       *log.Logger

	pre  []string
	post []string

	runspace    *Runspace
	lastResults []string
	lastErrors  []ErrorRecord
}

// NewSession creates a session. No runspace is opened until Execute.
func NewSession(opts ...Option) *Session {
	s := &Session{
		runspaceOpts: RunspaceOptions{InheritEnv: true},
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "shtest",
			Level:  log.WarnLevel,
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ModulePath returns the module sourced by Execute, or "".
func (s *Session) ModulePath() string {
	return s.modulePath
}

// SetPreExecutionCommands replaces the commands run before each Execute body.
func (s *Session) SetPreExecutionCommands(cmds ...string) {
	s.pre = slices.Clone(cmds)
}

// SetPostExecutionCommands replaces the commands run after each Execute body.
func (s *Session) SetPostExecutionCommands(cmds ...string) {
	s.post = slices.Clone(cmds)
}

// PreExecutionCommands returns a copy of the pre-execution commands.
func (s *Session) PreExecutionCommands() []string {
	return slices.Clone(s.pre)
}

// PostExecutionCommands returns a copy of the post-execution commands.
func (s *Session) PostExecutionCommands() []string {
	return slices.Clone(s.post)
}

// Runspace returns the current runspace, or nil before the first Execute.
func (s *Session) Runspace() *Runspace {
	return s.runspace
}

// LastResults returns the values of the most recent invocation.
func (s *Session) LastResults() []string {
	return s.lastResults
}

// LastErrors returns the error records of the most recent invocation.
func (s *Session) LastErrors() []ErrorRecord {
	return s.lastErrors
}

// Execute runs pre ++ cmds ++ post in a fresh runspace.
//
// The previous runspace, if any, is closed first. When the session has a
// module it is sourced before the script; a failure returns *ModuleLoadError.
// Otherwise the behavior is that of ExecuteInExistingRunspace.
func (s *Session) Execute(ctx context.Context, cmds ...string) (*Result, error) {
	if err := s.Close(); err != nil {
		return nil, err
	}

	rs, err := OpenRunspace(s.runspaceOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open runspace: %w", err)
	}
	s.runspace = rs
	s.logger.Debug("opened runspace", "id", rs.ID(), "dir", rs.Dir())

	if s.modulePath != "" {
		if err := s.LoadModule(ctx, s.modulePath); err != nil {
			return nil, err
		}
	}

	return s.ExecuteInExistingRunspace(ctx, joinCommands(s.pre, cmds, s.post))
}

// ExecuteInExistingRunspace joins cmds with newlines and runs them as one
// script in the current runspace, keeping its state.
//
// LastResults and LastErrors are updated before returning. If the script
// produced error records the Result is returned together with an
// *ExecutionError.
func (s *Session) ExecuteInExistingRunspace(ctx context.Context, cmds ...string) (*Result, error) {
	rs, err := s.openRunspace()
	if err != nil {
		return nil, err
	}

	script := joinCommands(cmds)
	s.logger.Debug("executing script", "id", rs.ID(), "script", script)

	res, err := rs.Invoke(ctx, script)
	if err != nil {
		return nil, err
	}

	s.lastResults = res.Values
	s.lastErrors = res.Errors

	if res.HasErrors() {
		s.logger.Warn("script produced errors", "id", rs.ID(), "count", len(res.Errors))
		return res, res.Err()
	}
	return res, nil
}

// GetVariableValue returns the named variable of the current runspace,
// unwrapped as described by Unwrap.
func (s *Session) GetVariableValue(name string) (any, error) {
	rs, err := s.openRunspace()
	if err != nil {
		return nil, err
	}
	return rs.Value(name)
}

// LoadModule sources the file at path into the current runspace.
// Any failure is returned as *ModuleLoadError wrapping the original error.
func (s *Session) LoadModule(ctx context.Context, path string) error {
	if _, err := s.openRunspace(); err != nil {
		return err
	}

	quoted, err := syntax.Quote(path, syntax.LangBash)
	if err != nil {
		return &ModuleLoadError{Path: path, Cause: err}
	}

	s.logger.Debug("loading module", "path", path)
	if _, err := s.ExecuteInExistingRunspace(ctx, "source "+quoted); err != nil {
		return &ModuleLoadError{Path: path, Cause: err}
	}
	return nil
}

// Close closes the current runspace. Results and errors stay available.
func (s *Session) Close() error {
	if s.runspace == nil || s.runspace.Closed() {
		return nil
	}
	s.logger.Debug("closing runspace", "id", s.runspace.ID())
	return s.runspace.Close()
}

func (s *Session) openRunspace() (*Runspace, error) {
	if s.runspace == nil || s.runspace.Closed() {
		return nil, ErrNoRunspace
	}
	return s.runspace, nil
}
