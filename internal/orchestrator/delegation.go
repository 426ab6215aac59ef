package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ShayCichocki/jobhunt/internal/capability"
	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// DelegateWorkName is the capability offered to workers that may delegate.
const DelegateWorkName = "delegate_work"

type depthKey struct{}

// delegationDepth returns how many delegations deep ctx is.
func delegationDepth(ctx context.Context) int {
	d, _ := ctx.Value(depthKey{}).(int)
	return d
}

// delegateWork lets one worker ask another registered worker for help.
// The nested call is schema free and its answer goes back to the delegator
// as a capability result, so the outer task still yields one result.
type delegateWork struct {
	o      *Orchestrator
	phase  string
	taskID string
	from   models.Worker
}

func (d *delegateWork) Name() string { return DelegateWorkName }

func (d *delegateWork) Description() string {
	return fmt.Sprintf("Delegate a focused piece of work to a coworker and receive their answer. Coworkers: %s.",
		strings.Join(d.coworkers(), ", "))
}

func (d *delegateWork) Parameters() capability.Parameters {
	return capability.Parameters{
		Properties: map[string]any{
			"coworker": map[string]any{
				"type":        "string",
				"enum":        d.coworkers(),
				"description": "Role of the coworker to ask",
			},
			"task": map[string]any{
				"type":        "string",
				"description": "What the coworker should do",
			},
			"context": map[string]any{
				"type":        "string",
				"description": "Everything the coworker needs to know; they cannot see your task",
			},
		},
		Required: []string{"coworker", "task"},
	}
}

func (d *delegateWork) coworkers() []string {
	var out []string
	for _, role := range d.o.registry.Roles() {
		if role != d.from.Role {
			out = append(out, role)
		}
	}
	return out
}

func (d *delegateWork) Invoke(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Coworker string `json:"coworker"`
		Task     string `json:"task"`
		Context  string `json:"context"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("%s: invalid input: %w", DelegateWorkName, err)
	}
	if strings.TrimSpace(in.Task) == "" {
		return "", fmt.Errorf("%s: task is required", DelegateWorkName)
	}
	if in.Coworker == d.from.Role {
		return "", fmt.Errorf("%s: cannot delegate to yourself", DelegateWorkName)
	}

	depth := delegationDepth(ctx) + 1
	if depth > d.o.maxDelegationDepth {
		return "", fmt.Errorf("%s: delegation depth %d exceeds limit %d", DelegateWorkName, depth, d.o.maxDelegationDepth)
	}

	coworker, err := d.o.registry.Lookup(in.Coworker)
	if err != nil {
		return "", fmt.Errorf("%s: %w", DelegateWorkName, err)
	}

	caps, err := d.o.capabilitiesFor(d.phase, d.taskID, coworker, depth)
	if err != nil {
		return "", fmt.Errorf("%s: %w", DelegateWorkName, err)
	}

	d.o.logger.Log("[delegate] task %s: %s -> %s (depth %d)", d.taskID, d.from.Role, coworker.Role, depth)
	d.o.emit(OrchestratorEvent{
		Type:      EventDelegated,
		Phase:     d.phase,
		TaskID:    d.taskID,
		Worker:    coworker.Role,
		Message:   fmt.Sprintf("%s asked %s", d.from.Role, coworker.Role),
		Timestamp: time.Now(),
	})

	resp, err := d.o.executor.Execute(context.WithValue(ctx, depthKey{}, depth), Request{
		TaskID:       d.taskID,
		Worker:       coworker,
		System:       systemPrompt(coworker),
		Prompt:       delegatedPrompt(d.from.Role, in.Task, in.Context),
		Capabilities: caps,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %s failed: %w", DelegateWorkName, coworker.Role, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%s: %s returned no response", DelegateWorkName, coworker.Role)
	}
	return resp.Output, nil
}
