// Package pipeline chains phases and checkpoints over an explicit state value.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ShayCichocki/jobhunt/internal/checkpoint"
	"github.com/ShayCichocki/jobhunt/internal/orchestrator"
)

// ErrStop ends a pipeline early without failing it. Steps return it from
// Apply or Select when there is nothing left to do.
var ErrStop = errors.New("pipeline stopped")

// PhaseRunner runs a single phase. *orchestrator.Orchestrator satisfies it.
type PhaseRunner interface {
	RunPhase(ctx context.Context, phase *orchestrator.Phase, params map[string]any) (*orchestrator.PhaseResult, error)
}

// Step is one phase followed by an optional checkpoint. S is the state
// carried from step to step.
type Step[S any] struct {
	// Name identifies the step in errors and logs.
	Name string
	// Phase is the assembled phase to run.
	Phase *orchestrator.Phase
	// Inputs builds the phase parameters from the state.
	Inputs func(state *S) (map[string]any, error)
	// Apply stores the phase result in the state.
	Apply func(state *S, result *orchestrator.PhaseResult) error
	// Fields lists the checkpoint fields to collect after Apply. A step with
	// no Fields function has no checkpoint.
	Fields func(state *S) []checkpoint.FieldSpec
	// Review is what the checkpoint shows the user. Defaults to the phase's
	// final result.
	Review func(state *S, result *orchestrator.PhaseResult) any
	// Select stores the checkpoint selections in the state.
	Select func(state *S, sel checkpoint.Selection) error
}

// Hooks observe step boundaries.
type Hooks struct {
	StepStarted  func(name string)
	StepFinished func(name string, err error)
}

// Driver runs steps in order and fails fast on the first error.
type Driver[S any] struct {
	runner PhaseRunner
	gate   checkpoint.Gate
	hooks  Hooks
}

// NewDriver creates a driver. gate may be nil when no step has a checkpoint.
func NewDriver[S any](runner PhaseRunner, gate checkpoint.Gate, hooks Hooks) *Driver[S] {
	return &Driver[S]{runner: runner, gate: gate, hooks: hooks}
}

// Run executes steps against state. It returns stopped=true when a step
// returned ErrStop; the remaining steps are skipped and err is nil.
func (d *Driver[S]) Run(ctx context.Context, state *S, steps []Step[S]) (stopped bool, err error) {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		if d.hooks.StepStarted != nil {
			d.hooks.StepStarted(step.Name)
		}
		err := d.runStep(ctx, state, step)
		if d.hooks.StepFinished != nil {
			d.hooks.StepFinished(step.Name, err)
		}

		if errors.Is(err, ErrStop) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("step %s: %w", step.Name, err)
		}
	}
	return false, nil
}

func (d *Driver[S]) runStep(ctx context.Context, state *S, step Step[S]) error {
	if step.Phase == nil {
		return errors.New("no phase")
	}

	var params map[string]any
	if step.Inputs != nil {
		p, err := step.Inputs(state)
		if err != nil {
			return fmt.Errorf("inputs: %w", err)
		}
		params = p
	}

	result, err := d.runner.RunPhase(ctx, step.Phase, params)
	if err != nil {
		return err
	}

	if step.Apply != nil {
		if err := step.Apply(state, result); err != nil {
			return err
		}
	}

	if step.Fields == nil {
		return nil
	}
	fields := step.Fields(state)
	if len(fields) == 0 {
		return nil
	}
	if d.gate == nil {
		return errors.New("checkpoint required but no gate configured")
	}

	var review any = result.Final()
	if step.Review != nil {
		review = step.Review(state, result)
	}

	sel, err := d.gate.CollectSelections(ctx, review, fields)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if step.Select != nil {
		return step.Select(state, sel)
	}
	return nil
}
