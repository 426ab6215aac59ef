// Package orchestrator runs phases of dependent tasks against registered
// workers.
//
// The orchestrator package provides functionality for:
//   - Worker registry: named workers with goals, constraints and capabilities
//   - Phase assembly: validating task references and ordering tasks by dependency
//   - Phase execution: rendering task templates, invoking workers and extracting
//     schema-conforming results that later tasks receive as context
//
// A phase is assembled once and is rejected before any worker runs if it
// refers to an unknown worker or schema, or if its dependencies form a cycle.
// During a run, tasks execute one at a time in a stable topological order that
// keeps the declared order wherever dependencies allow.
//
// Example usage:
//
//	reg := orchestrator.NewWorkerRegistry()
//	_ = reg.Register(models.Worker{Role: "Resume Parser", Goal: "..."})
//	phase, err := orchestrator.NewPhase("discovery", tasks, reg, schema.Default())
//	o := orchestrator.New(executor, reg, orchestrator.WithTaskTimeout(2*time.Minute))
//	result, err := o.RunPhase(ctx, phase, map[string]any{"resume_file": path})
package orchestrator
