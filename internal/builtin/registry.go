// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type (
	// Command is a utility runnable from a runspace.
	Command interface {
		// Name returns the command name as typed in a script.
		Name() string
		// Run executes the command. args[0] is the command name.
		Run(ctx context.Context, args []string) error
	}

	// Registry maps command names to implementations. It is safe for concurrent use.
	Registry struct {
		mu       sync.RWMutex
		commands map[string]Command
	}
)

// Default holds the u-root core utilities registered at init.
var Default = NewRegistry()

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command.
// Panics on an empty or duplicate name; registration happens at init time.
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := cmd.Name()
	if name == "" {
		panic("builtin: cannot register command with empty name")
	}
	if _, exists := r.commands[name]; exists {
		panic(fmt.Sprintf("builtin: command %q already registered", name))
	}
	r.commands[name] = cmd
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
