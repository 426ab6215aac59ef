// Package capability defines the external functions workers may call while
// executing a task, and the built-in document and job search capabilities.
package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Parameters describes the JSON object a capability accepts.
type Parameters struct {
	// Properties maps parameter names to JSON schema fragments.
	Properties map[string]any
	// Required lists the parameters that must be present.
	Required []string
}

// Capability is an external function a worker can invoke by name.
type Capability interface {
	Name() string
	Description() string
	Parameters() Parameters
	Invoke(ctx context.Context, input json.RawMessage) (string, error)
}

// Func adapts a plain function into a Capability.
type Func struct {
	FuncName        string
	FuncDescription string
	Params          Parameters
	Fn              func(ctx context.Context, input json.RawMessage) (string, error)
}

func (f *Func) Name() string           { return f.FuncName }
func (f *Func) Description() string    { return f.FuncDescription }
func (f *Func) Parameters() Parameters { return f.Params }

func (f *Func) Invoke(ctx context.Context, input json.RawMessage) (string, error) {
	return f.Fn(ctx, input)
}

// Set is a named collection of capabilities.
type Set struct {
	mu   sync.RWMutex
	caps map[string]Capability
}

// NewSet creates a set holding caps.
func NewSet(caps ...Capability) *Set {
	s := &Set{caps: make(map[string]Capability)}
	for _, c := range caps {
		s.caps[c.Name()] = c
	}
	return s
}

// Add registers a capability, replacing any with the same name.
func (s *Set) Add(c Capability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caps[c.Name()] = c
}

// Get returns the capability registered under name.
func (s *Set) Get(name string) (Capability, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.caps[name]
	return c, ok
}

// Names returns the registered capability names, sorted.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.caps))
	for n := range s.caps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Invoke dispatches a call by name. Unknown names are reported as errors.
func Invoke(ctx context.Context, caps []Capability, name string, input json.RawMessage) (string, error) {
	for _, c := range caps {
		if c.Name() == name {
			return c.Invoke(ctx, input)
		}
	}
	return "", fmt.Errorf("unknown capability: %s", name)
}

// decodeInput unmarshals a capability input into v with a uniform error.
func decodeInput(name string, input json.RawMessage, v any) error {
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	if err := json.Unmarshal(input, v); err != nil {
		return fmt.Errorf("%s: invalid input: %w", name, err)
	}
	return nil
}
