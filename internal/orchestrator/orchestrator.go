package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/jobhunt/internal/capability"
	"github.com/ShayCichocki/jobhunt/internal/extract"
	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// Orchestrator runs phases: it renders each task, hands it to the assigned
// worker through the Executor and keeps only output that passes extraction.
type Orchestrator struct {
	executor           Executor
	registry           *WorkerRegistry
	capabilities       *capability.Set
	logger             *DebugLogger
	observers          []Observer
	taskTimeout        time.Duration
	maxDelegationDepth int
}

// New creates an Orchestrator. The registry must hold every worker the
// phases it runs refer to.
func New(executor Executor, registry *WorkerRegistry, opts ...Option) *Orchestrator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = NopLogger()
	}

	caps := o.capabilities
	if caps == nil {
		caps = capability.NewSet()
	}

	return &Orchestrator{
		executor:           executor,
		registry:           registry,
		capabilities:       caps,
		logger:             logger,
		observers:          o.observers,
		taskTimeout:        o.taskTimeout,
		maxDelegationDepth: o.maxDelegationDepth,
	}
}

// PhaseResult holds the structured results of a completed phase.
type PhaseResult struct {
	// Phase is the phase name.
	Phase string
	// Order lists the task IDs in the order they ran.
	Order   []string
	results map[string]map[string]any
}

// Get returns the structured result of a task.
func (r *PhaseResult) Get(taskID string) (map[string]any, bool) {
	rec, ok := r.results[taskID]
	return rec, ok
}

// Final returns the result of the last task in the phase.
func (r *PhaseResult) Final() map[string]any {
	if len(r.Order) == 0 {
		return nil
	}
	return r.results[r.Order[len(r.Order)-1]]
}

// Decode converts a task's structured result into target.
func (r *PhaseResult) Decode(taskID string, target any) error {
	rec, ok := r.results[taskID]
	if !ok {
		return fmt.Errorf("no result for task %s", taskID)
	}
	return extract.Decode(rec, target)
}

// RunPhase executes every task of phase in order, seeding the execution
// context with params. It stops on the first failure; a failed phase yields
// no result. Tasks never run before all of their dependencies succeeded.
func (o *Orchestrator) RunPhase(ctx context.Context, phase *Phase, params map[string]any) (*PhaseResult, error) {
	if phase == nil {
		return nil, errors.New("run phase: nil phase")
	}

	// Resolve capabilities up front so a bad reference fails before any worker runs.
	for _, w := range phase.Workers() {
		if _, err := o.capabilitiesFor(phase.name, "", w, 0); err != nil {
			return nil, fmt.Errorf("phase %s: %w", phase.name, err)
		}
	}

	o.logger.Log("[phase] %s: starting, order=%v", phase.name, phase.order)
	phaseStart := time.Now()
	o.emit(OrchestratorEvent{Type: EventPhaseStarted, Phase: phase.name, Timestamp: phaseStart})

	result, err := o.runTasks(ctx, phase, NewExecutionContext(params))
	if err != nil {
		o.logger.Log("[phase] %s: failed: %v", phase.name, err)
		o.emit(OrchestratorEvent{
			Type:      EventPhaseFailed,
			Phase:     phase.name,
			Error:     err,
			Timestamp: time.Now(),
			Duration:  time.Since(phaseStart),
		})
		return nil, err
	}

	o.logger.Log("[phase] %s: completed in %s", phase.name, time.Since(phaseStart))
	o.emit(OrchestratorEvent{
		Type:      EventPhaseCompleted,
		Phase:     phase.name,
		Timestamp: time.Now(),
		Duration:  time.Since(phaseStart),
	})
	return result, nil
}

func (o *Orchestrator) runTasks(ctx context.Context, phase *Phase, ectx *ExecutionContext) (*PhaseResult, error) {
	result := &PhaseResult{
		Phase:   phase.name,
		results: make(map[string]map[string]any, len(phase.order)),
	}

	g, err := phase.graph(o.logger)
	if err != nil {
		return nil, fmt.Errorf("phase %s: %w", phase.name, err)
	}

	for _, id := range phase.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !g.IsReady(id) {
			return nil, fmt.Errorf("phase %s: task %s scheduled before its dependencies completed", phase.name, id)
		}

		record, err := o.runTask(ctx, phase, phase.tasks[id], ectx, result)
		if err != nil {
			return nil, err
		}

		result.results[id] = record
		result.Order = append(result.Order, id)
		ectx.Set(id, record)
		g.MarkComplete(id)
	}

	return result, nil
}

func (o *Orchestrator) runTask(ctx context.Context, phase *Phase, task models.TaskSpec, ectx *ExecutionContext, done *PhaseResult) (map[string]any, error) {
	worker := phase.workers[task.Worker]

	prompt, err := ectx.Render(task.ID, task.Description)
	if err != nil {
		return nil, err
	}

	deps := make([]upstream, 0, len(task.DependsOn))
	for _, dep := range task.DependsOn {
		deps = append(deps, upstream{taskID: dep, record: done.results[dep]})
	}

	caps, err := o.capabilitiesFor(phase.name, task.ID, worker, 0)
	if err != nil {
		return nil, err
	}

	fail := func(err error) error {
		return &TaskExecutionError{Phase: phase.name, TaskID: task.ID, Worker: worker.Role, Err: err}
	}

	start := time.Now()
	o.logger.Log("[task] %s: starting with %s (%d capabilities)", task.ID, worker.Role, len(caps))
	o.emit(OrchestratorEvent{
		Type:      EventTaskStarted,
		Phase:     phase.name,
		TaskID:    task.ID,
		Worker:    worker.Role,
		Status:    models.TaskStatusRunning,
		Timestamp: start,
	})

	resp, err := o.execute(ctx, task.ID, Request{
		TaskID:       task.ID,
		Worker:       worker,
		System:       systemPrompt(worker),
		Prompt:       taskPrompt(prompt, deps, phase.schemaText[task.Schema]),
		Capabilities: caps,
	})
	if err != nil {
		o.taskFailed(phase.name, task, worker, start, nil, err)
		return nil, fail(err)
	}

	record, err := extract.Extract(resp.Output, phase.schemas[task.Schema])
	if err != nil {
		o.taskFailed(phase.name, task, worker, start, resp, err)
		return nil, fail(err)
	}

	o.logger.Log("[task] %s: completed in %s (tokens in=%d out=%d)", task.ID, time.Since(start), resp.TokensIn, resp.TokensOut)
	o.emit(OrchestratorEvent{
		Type:      EventTaskCompleted,
		Phase:     phase.name,
		TaskID:    task.ID,
		Worker:    worker.Role,
		Status:    models.TaskStatusDone,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		TokensIn:  resp.TokensIn,
		TokensOut: resp.TokensOut,
	})
	return record, nil
}

type executeResult struct {
	resp *Response
	err  error
}

// execute runs one worker call under the task timeout. The deadline holds
// even when the executor ignores ctx: a late answer is discarded.
func (o *Orchestrator) execute(ctx context.Context, taskID string, req Request) (*Response, error) {
	taskCtx := ctx
	if o.taskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, o.taskTimeout)
		defer cancel()
	}
	timedOut := func() bool {
		return errors.Is(taskCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	}

	done := make(chan executeResult, 1)
	go func() {
		resp, err := o.executor.Execute(taskCtx, req)
		done <- executeResult{resp: resp, err: err}
	}()

	select {
	case res := <-done:
		if timedOut() {
			return nil, &TimeoutError{TaskID: taskID, Timeout: o.taskTimeout}
		}
		if res.err != nil {
			return nil, res.err
		}
		if res.resp == nil {
			return nil, errors.New("executor returned no response")
		}
		return res.resp, nil
	case <-taskCtx.Done():
		if timedOut() {
			return nil, &TimeoutError{TaskID: taskID, Timeout: o.taskTimeout}
		}
		return nil, ctx.Err()
	}
}

func (o *Orchestrator) taskFailed(phase string, task models.TaskSpec, worker models.Worker, start time.Time, resp *Response, err error) {
	o.logger.Log("[task] %s: failed after %s: %v", task.ID, time.Since(start), err)
	ev := OrchestratorEvent{
		Type:      EventTaskFailed,
		Phase:     phase,
		TaskID:    task.ID,
		Worker:    worker.Role,
		Status:    models.TaskStatusFailed,
		Error:     err,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
	}
	if resp != nil {
		ev.TokensIn, ev.TokensOut = resp.TokensIn, resp.TokensOut
	}
	o.emit(ev)
}

// capabilitiesFor resolves a worker's capability names and adds delegation
// when the worker allows it and depth is still under the limit.
func (o *Orchestrator) capabilitiesFor(phase, taskID string, w models.Worker, depth int) ([]capability.Capability, error) {
	caps := make([]capability.Capability, 0, len(w.Capabilities)+1)
	for _, name := range w.Capabilities {
		c, ok := o.capabilities.Get(name)
		if !ok {
			return nil, &NotFoundError{Kind: "capability", Name: name}
		}
		caps = append(caps, c)
	}
	if w.AllowDelegation && depth < o.maxDelegationDepth && o.registry.Count() > 1 {
		caps = append(caps, &delegateWork{o: o, phase: phase, taskID: taskID, from: w})
	}
	return caps, nil
}

func (o *Orchestrator) emit(ev OrchestratorEvent) {
	for _, obs := range o.observers {
		obs.OnEvent(ev)
	}
}
