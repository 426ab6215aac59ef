// Package graph provides a dependency graph for task scheduling.
package graph

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the task graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// CycleError reports a dependency cycle together with the tasks on it.
// It matches ErrCycleDetected with errors.Is.
type CycleError struct {
	// Path lists the task IDs around the cycle; the first ID is repeated at the end.
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return ErrCycleDetected.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCycleDetected, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// DependencyGraph represents a directed acyclic graph of task dependencies.
// Tasks are nodes, and edges represent "depends on" relationships.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps task ID to the task itself.
	nodes map[string]models.TaskSpec
	// order holds task IDs in the sequence they were declared.
	order []string
	// edges maps task ID to IDs of tasks it depends on.
	edges map[string][]string
	// completed tracks which tasks have produced a result.
	completed map[string]bool
	// debugLog is an optional logging function.
	debugLog func(format string, args ...interface{})
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:     make(map[string]models.TaskSpec),
		edges:     make(map[string][]string),
		completed: make(map[string]bool),
		debugLog:  func(format string, args ...interface{}) {}, // no-op by default
	}
}

// SetDebugLog sets the debug logging function.
func (g *DependencyGraph) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		g.debugLog = fn
	}
}

// Build constructs the dependency graph from tasks in declared order.
// Returns an error for duplicate IDs or unknown dependencies, and a
// *CycleError if the dependencies do not form a DAG.
func (g *DependencyGraph) Build(tasks []models.TaskSpec) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.debugLog("[graph.Build] building graph from %d tasks", len(tasks))

	// First pass: register all tasks as nodes.
	for _, task := range tasks {
		if _, dup := g.nodes[task.ID]; dup {
			return fmt.Errorf("duplicate task id %s", task.ID)
		}
		g.nodes[task.ID] = task
		g.order = append(g.order, task.ID)
		g.edges[task.ID] = nil
	}

	// Second pass: build edges from DependsOn fields.
	for _, task := range tasks {
		for _, depID := range task.DependsOn {
			if _, exists := g.nodes[depID]; !exists {
				return fmt.Errorf("task %s depends on unknown task %s", task.ID, depID)
			}
			g.edges[task.ID] = append(g.edges[task.ID], depID)
		}
	}

	if path := g.findCycleLocked(); path != nil {
		g.debugLog("[graph.Build] cycle: %v", path)
		return &CycleError{Path: path}
	}

	g.debugLog("[graph.Build] graph built successfully with %d nodes", len(g.nodes))
	return nil
}

// findCycleLocked returns the first cycle found, walking nodes in declared
// order so the reported path is deterministic. Assumes the lock is held.
func (g *DependencyGraph) findCycleLocked() []string {
	// Color states: 0 = white (unvisited), 1 = gray (in progress), 2 = black (done).
	colors := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		colors[id] = 1
		stack = append(stack, id)

		for _, depID := range g.edges[id] {
			switch colors[depID] {
			case 1:
				// Back edge: the cycle is the stack suffix starting at depID.
				for i, s := range stack {
					if s == depID {
						path := append([]string(nil), stack[i:]...)
						return append(path, depID)
					}
				}
			case 0:
				if path := visit(depID); path != nil {
					return path
				}
			}
		}

		stack = stack[:len(stack)-1]
		colors[id] = 2
		return nil
	}

	for _, id := range g.order {
		if colors[id] == 0 {
			if path := visit(id); path != nil {
				return path
			}
		}
	}
	return nil
}

// TopologicalSort returns task IDs in an order where all dependencies come
// before the tasks that depend on them. Among tasks that are ready at the same
// time the one declared first wins, so the declared sequence is preserved
// wherever the dependencies allow it.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if path := g.findCycleLocked(); path != nil {
		return nil, &CycleError{Path: path}
	}

	remaining := make(map[string]int, len(g.nodes))
	for id, deps := range g.edges {
		remaining[id] = len(deps)
	}
	dependents := g.dependentsLocked()

	placed := make(map[string]bool, len(g.nodes))
	result := make([]string, 0, len(g.nodes))
	for len(result) < len(g.order) {
		next := ""
		for _, id := range g.order {
			if !placed[id] && remaining[id] == 0 {
				next = id
				break
			}
		}
		if next == "" {
			// Unreachable after the cycle check.
			return nil, ErrCycleDetected
		}
		placed[next] = true
		result = append(result, next)
		for _, d := range dependents[next] {
			remaining[d]--
		}
	}

	return result, nil
}

// dependentsLocked inverts the edge map. Assumes the lock is held.
func (g *DependencyGraph) dependentsLocked() map[string][]string {
	out := make(map[string][]string, len(g.nodes))
	for _, id := range g.order {
		for _, dep := range g.edges[id] {
			out[dep] = append(out[dep], id)
		}
	}
	return out
}

// IsReady reports whether every dependency of taskID has been marked complete.
func (g *DependencyGraph) IsReady(taskID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, depID := range g.edges[taskID] {
		if !g.completed[depID] {
			g.debugLog("[graph.IsReady] task %s: dep %s not complete", taskID, depID)
			return false
		}
	}
	return true
}

// MarkComplete marks a task as completed in the graph.
func (g *DependencyGraph) MarkComplete(taskID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.debugLog("[graph.MarkComplete] marking task %s as complete", taskID)
	g.completed[taskID] = true
}
