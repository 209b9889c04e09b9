// Package actions holds the capability interface through which the engine
// invokes external actions. The engine depends on the interface only; concrete
// actions register themselves under a name and version and stay opaque.
package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	goversion "github.com/hashicorp/go-version"
)

var (
	ErrUnknownAction     = errors.New("unknown action")
	ErrNoMatchingVersion = errors.New("no registered version matches the pin")
)

// Invocation carries everything an action receives from the step that
// references it.
type Invocation struct {
	// Inputs are the step's "with" parameters.
	Inputs map[string]string

	// Dir is the job environment's workspace directory.
	Dir string

	// Env is the process-style environment of the job, "KEY=value" pairs.
	Env []string

	// Log receives the action's output.
	Log io.Writer
}

// Action is a named, versioned external capability: (parameters) -> outcome.
// A returned error is the action signaling failure; the owning step fails.
type Action interface {
	Execute(ctx context.Context, invocation Invocation) error
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(ctx context.Context, invocation Invocation) error

func (f ActionFunc) Execute(ctx context.Context, invocation Invocation) error {
	return f(ctx, invocation)
}

type registeredAction struct {
	version *goversion.Version
	raw     string
	action  Action
}

// Registry maps action references to registered implementations.
type Registry struct {
	mu      sync.RWMutex
	entries map[string][]registeredAction
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string][]registeredAction),
	}
}

// Register adds an implementation for an action name at a version. The
// version must parse; registering the same name and version twice replaces
// the earlier implementation.
func (r *Registry) Register(name, rawVersion string, action Action) error {
	parsed, err := goversion.NewVersion(rawVersion)
	if err != nil {
		return fmt.Errorf("parse version %q of action %q: %w", rawVersion, name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.entries[name] {
		if existing.version.Equal(parsed) {
			r.entries[name][i] = registeredAction{version: parsed, raw: rawVersion, action: action}
			return nil
		}
	}

	r.entries[name] = append(r.entries[name], registeredAction{
		version: parsed,
		raw:     rawVersion,
		action:  action,
	})

	// highest version first, so Resolve can take the first match
	sort.Slice(r.entries[name], func(i, j int) bool {
		return r.entries[name][i].version.GreaterThan(r.entries[name][j].version)
	})

	return nil
}

// Resolve finds the implementation for a "name@pin" reference. An exact
// version match wins; otherwise the highest registered version whose major
// segment satisfies the pin is chosen, so a "v4" pin resolves a registered
// "4.2.2".
func (r *Registry) Resolve(name, pin string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	registered, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}

	for _, entry := range registered {
		if entry.raw == pin {
			return entry.action, nil
		}
	}

	pinned, err := goversion.NewVersion(pin)
	if err != nil {
		return nil, fmt.Errorf("action %q: parse version pin %q: %w", name, pin, err)
	}

	for _, entry := range registered {
		if entry.version.Equal(pinned) {
			return entry.action, nil
		}
	}

	// entries are sorted highest first
	for _, entry := range registered {
		if entry.version.Segments()[0] == pinned.Segments()[0] {
			return entry.action, nil
		}
	}

	return nil, fmt.Errorf("%w: %s@%s", ErrNoMatchingVersion, name, pin)
}
