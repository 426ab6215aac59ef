package orchestrator

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/ShayCichocki/jobhunt/internal/graph"
	"github.com/ShayCichocki/jobhunt/internal/schema"
	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// PhaseOption configures phase assembly.
type PhaseOption func(*phaseOptions)

type phaseOptions struct {
	logger *DebugLogger
}

// WithPhaseLogger logs dependency resolution while the phase is assembled.
func WithPhaseLogger(l *DebugLogger) PhaseOption {
	return func(o *phaseOptions) { o.logger = l }
}

// Phase is a validated, ordered group of tasks that runs as one unit.
// It is built by NewPhase and never changes afterwards.
type Phase struct {
	name     string
	declared []models.TaskSpec
	tasks    map[string]models.TaskSpec
	order    []string
	workers map[string]models.Worker
	schemas map[string]*openapi3.Schema
	// schemaText caches the JSON rendering of each task's output contract.
	schemaText map[string]string
}

// NewPhase assembles a phase from tasks in declared order. It resolves every
// worker and schema reference and rejects unknown dependencies, duplicate IDs
// and dependency cycles (*graph.CycleError), so no worker ever runs for a
// phase that cannot complete.
func NewPhase(name string, tasks []models.TaskSpec, registry *WorkerRegistry, schemas *schema.Catalog, opts ...PhaseOption) (*Phase, error) {
	var po phaseOptions
	for _, opt := range opts {
		opt(&po)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("phase %s: no tasks", name)
	}

	p := &Phase{
		name:       name,
		tasks:      make(map[string]models.TaskSpec, len(tasks)),
		workers:    make(map[string]models.Worker),
		schemas:    make(map[string]*openapi3.Schema),
		schemaText: make(map[string]string),
	}

	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("phase %s: %w", name, err)
		}
		w, err := registry.Lookup(t.Worker)
		if err != nil {
			return nil, fmt.Errorf("phase %s: task %s: %w", name, t.ID, err)
		}
		s, ok := schemas.Get(t.Schema)
		if !ok {
			return nil, fmt.Errorf("phase %s: task %s: %w", name, t.ID, &NotFoundError{Kind: "schema", Name: t.Schema})
		}
		text, err := schema.Describe(s)
		if err != nil {
			return nil, fmt.Errorf("phase %s: task %s: %w", name, t.ID, err)
		}

		t.DependsOn = append([]string(nil), t.DependsOn...)
		p.declared = append(p.declared, t)
		p.tasks[t.ID] = t
		p.workers[w.Role] = w
		p.schemas[t.Schema] = s
		p.schemaText[t.Schema] = text
	}

	g, err := p.graph(po.logger)
	if err != nil {
		return nil, fmt.Errorf("phase %s: %w", name, err)
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("phase %s: %w", name, err)
	}
	p.order = order

	return p, nil
}

// Name returns the phase name.
func (p *Phase) Name() string { return p.name }

// Order returns task IDs in execution order.
func (p *Phase) Order() []string { return append([]string(nil), p.order...) }

// Workers returns the distinct workers referenced by the phase.
func (p *Phase) Workers() []models.Worker {
	out := make([]models.Worker, 0, len(p.workers))
	for _, id := range p.order {
		w := p.workers[p.tasks[id].Worker]
		dup := false
		for _, seen := range out {
			if seen.Role == w.Role {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, w)
		}
	}
	return out
}

// graph builds a fresh dependency graph over the declared tasks. Each run
// gets its own so completion state is never shared between runs.
func (p *Phase) graph(logger *DebugLogger) (*graph.DependencyGraph, error) {
	g := graph.New()
	if logger != nil {
		g.SetDebugLog(logger.With("phase " + p.name).Log)
	}
	if err := g.Build(p.declared); err != nil {
		return nil, err
	}
	return g, nil
}
