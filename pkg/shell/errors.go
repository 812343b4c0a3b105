// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoRunspace is returned by operations that need an open runspace
	// when none has been opened by Execute.
	ErrNoRunspace = errors.New("no open runspace; call Execute first")

	// ErrRunspaceClosed is returned when invoking a closed runspace.
	ErrRunspaceClosed = errors.New("runspace is closed")

	// ErrExecution is the sentinel wrapped by ExecutionError.
	ErrExecution = errors.New("script produced errors")

	// ErrModuleNotBuilt is the sentinel wrapped by ModuleLoadError.
	ErrModuleNotBuilt = errors.New("module missing or not built")
)

type (
	// ExecutionError carries every error record produced by one invocation.
	ExecutionError struct {
		Script  string
		Records []ErrorRecord
	}

	// ModuleLoadError reports a module that could not be sourced into a runspace.
	// Cause is the original failure, usually an *ExecutionError.
	ModuleLoadError struct {
		Path  string
		Cause error
	}
)

// Error lists the record count and messages.
func (e *ExecutionError) Error() string {
	msgs := make([]string, len(e.Records))
	for i, r := range e.Records {
		msgs[i] = r.Message
	}
	return fmt.Sprintf("%s (%d): %s", ErrExecution, len(e.Records), strings.Join(msgs, "; "))
}

// Is makes errors.Is(err, ErrExecution) true.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}

// Error includes the path and a hint that the module may need building.
func (e *ModuleLoadError) Error() string {
	return fmt.Sprintf("load module %q: %s (did you build it?): %v", e.Path, ErrModuleNotBuilt, e.Cause)
}

// Unwrap returns the original failure.
func (e *ModuleLoadError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrModuleNotBuilt) true.
func (e *ModuleLoadError) Is(target error) bool {
	return target == ErrModuleNotBuilt
}
