// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/invowk/shtest/internal/builtin"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// envCaptureCommand is intercepted by the runspace to snapshot the
// interpreter environment, which is not otherwise reachable from outside.
const envCaptureCommand = "shtest-capture-env"

var runspaceSeq atomic.Uint64

type (
	// RunspaceOptions configures a new Runspace.
	RunspaceOptions struct {
		// Dir is the initial working directory. Empty means the process working directory.
		Dir string
		// Env holds extra "NAME=value" pairs. They override inherited variables.
		Env []string
		// InheritEnv starts the runspace with the process environment.
		InheritEnv bool
		// Builtins enables the in-process core utilities (cat, cp, mkdir, mv, rm, touch).
		Builtins bool
		// Stdin is the script's standard input. Nil means no input.
		Stdin io.Reader
	}

	// Runspace is one isolated interpreter. Variables, functions and the
	// working directory persist across Invoke calls until Close.
	Runspace struct {
		id         uint64
		runner     *interp.Runner
		stdout     bytes.Buffer
		stderr     bytes.Buffer
		env        expand.Environ
		lastStatus uint8
		closed     bool
	}
)

// OpenRunspace creates a runspace ready to invoke scripts.
func OpenRunspace(opts RunspaceOptions) (*Runspace, error) {
	rs := &Runspace{id: runspaceSeq.Add(1)}

	var env []string
	if opts.InheritEnv {
		env = append(env, os.Environ()...)
	}
	env = append(env, opts.Env...)

	handlers := []func(interp.ExecHandlerFunc) interp.ExecHandlerFunc{rs.captureHandler}
	if opts.Builtins {
		handlers = append(handlers, builtin.ExecHandler(builtin.Default))
	}

	runnerOpts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(opts.Stdin, &rs.stdout, &rs.stderr),
		interp.ExecHandlers(handlers...),
	}
	if opts.Dir != "" {
		runnerOpts = append(runnerOpts, interp.Dir(opts.Dir))
	}

	runner, err := interp.New(runnerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}
	runner.Reset()
	rs.runner = runner

	return rs, nil
}

// ID returns a process-unique identifier, increasing with each OpenRunspace.
func (r *Runspace) ID() uint64 {
	return r.id
}

// Closed reports whether Close has been called.
func (r *Runspace) Closed() bool {
	return r.closed
}

// Close releases the interpreter. It is safe to call more than once.
func (r *Runspace) Close() error {
	r.closed = true
	r.runner = nil
	r.env = nil
	return nil
}

// Dir returns the interpreter's current working directory.
func (r *Runspace) Dir() string {
	if r.closed {
		return ""
	}
	return r.runner.Dir
}

// Invoke parses and runs script, returning the values and error records
// produced by this invocation only. The returned error is non-nil only
// when the runspace is closed; script failures are reported as records.
func (r *Runspace) Invoke(ctx context.Context, script string) (*Result, error) {
	if r.closed {
		return nil, ErrRunspaceClosed
	}

	r.stdout.Reset()
	r.stderr.Reset()
	res := &Result{Script: script, Values: []string{}, Errors: []ErrorRecord{}}

	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "")
	if err != nil {
		res.ExitStatus = 2
		res.Errors = append(res.Errors, ErrorRecord{Category: CategoryParse, Message: err.Error()})
		r.lastStatus = res.ExitStatus
		return res, nil
	}

	runErr := r.runner.Run(ctx, prog)

	res.Values = splitLines(r.stdout.String())
	res.Errors = stderrRecords(r.stderr.String())

	if runErr != nil {
		var status interp.ExitStatus
		if errors.As(runErr, &status) {
			res.ExitStatus = uint8(status)
			res.Errors = append(res.Errors, ErrorRecord{
				Category:   CategoryExitStatus,
				Message:    fmt.Sprintf("exit status %d", uint8(status)),
				ExitStatus: uint8(status),
			})
		} else {
			res.ExitStatus = 1
			res.Errors = append(res.Errors, ErrorRecord{Category: CategoryRuntime, Message: runErr.Error()})
		}
	}
	r.lastStatus = res.ExitStatus

	return res, nil
}

// Variable returns the named variable as the interpreter currently sees it.
// The boolean is false when the variable is not set.
func (r *Runspace) Variable(name string) (expand.Variable, bool, error) {
	env, err := r.environ()
	if err != nil {
		return expand.Variable{}, false, err
	}
	v := env.Get(name)
	return v, v.Set, nil
}

// Value returns the named variable unwrapped to a Go value; see Unwrap.
func (r *Runspace) Value(name string) (any, error) {
	env, err := r.environ()
	if err != nil {
		return nil, err
	}
	return Unwrap(env, env.Get(name)), nil
}

// environ refreshes the environment snapshot by running the capture command,
// which exits with the previous status so that $? is left untouched.
func (r *Runspace) environ() (expand.Environ, error) {
	if r.closed {
		return nil, ErrRunspaceClosed
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(envCaptureCommand), "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse capture command: %w", err)
	}

	r.env = nil
	runErr := r.runner.Run(context.Background(), prog)
	var status interp.ExitStatus
	if runErr != nil && !errors.As(runErr, &status) {
		return nil, fmt.Errorf("failed to read runspace environment: %w", runErr)
	}
	if r.env == nil {
		return nil, fmt.Errorf("failed to read runspace environment: %s was not reached", envCaptureCommand)
	}

	return r.env, nil
}

func (r *Runspace) captureHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) != 1 || args[0] != envCaptureCommand {
			return next(ctx, args)
		}
		r.env = interp.HandlerCtx(ctx).Env
		if r.lastStatus != 0 {
			return interp.ExitStatus(r.lastStatus)
		}
		return nil
	}
}
