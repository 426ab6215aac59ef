package models

import (
	"errors"
	"strings"
)

// Worker is a capability-bearing agent that executes task instructions.
// Workers are immutable once registered; tasks refer to them by Role.
type Worker struct {
	// Role is the unique name of the worker (e.g. "Resume Parser").
	Role string `json:"role" yaml:"role"`
	// Goal states what the worker is trying to achieve.
	Goal string `json:"goal" yaml:"goal"`
	// Backstory holds the behavioural constraints given to the worker.
	Backstory string `json:"backstory,omitempty" yaml:"backstory"`
	// Capabilities names the external functions the worker may invoke.
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities"`
	// AllowDelegation lets the worker hand sub-work to other workers.
	AllowDelegation bool `json:"allow_delegation" yaml:"allow_delegation"`
}

// Validate checks that the worker has the fields the orchestrator relies on.
func (w Worker) Validate() error {
	if strings.TrimSpace(w.Role) == "" {
		return errors.New("worker role is required")
	}
	if strings.TrimSpace(w.Goal) == "" {
		return errors.New("worker " + w.Role + ": goal is required")
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (w Worker) Clone() Worker {
	c := w
	if w.Capabilities != nil {
		c.Capabilities = append([]string(nil), w.Capabilities...)
	}
	return c
}
