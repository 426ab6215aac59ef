package orchestrator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// WorkerRegistry holds the workers available to phases, keyed by role.
// Workers are stored as copies so registered definitions cannot change.
type WorkerRegistry struct {
	// workers maps role to worker definition.
	workers map[string]models.Worker
	// mu protects workers.
	mu sync.RWMutex
}

// NewWorkerRegistry creates an empty registry.
func NewWorkerRegistry() *WorkerRegistry {
	return &WorkerRegistry{
		workers: make(map[string]models.Worker),
	}
}

// Register adds a worker. Invalid workers and duplicate roles are rejected.
func (r *WorkerRegistry) Register(w models.Worker) error {
	if err := w.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workers[w.Role]; exists {
		return fmt.Errorf("worker %q already registered", w.Role)
	}
	r.workers[w.Role] = w.Clone()
	return nil
}

// Lookup returns a copy of the worker registered under role.
func (r *WorkerRegistry) Lookup(role string) (models.Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workers[role]
	if !ok {
		return models.Worker{}, &NotFoundError{Kind: "worker", Name: role}
	}
	return w.Clone(), nil
}

// Roles returns all registered roles, sorted.
func (r *WorkerRegistry) Roles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]string, 0, len(r.workers))
	for role := range r.workers {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// Count returns the number of registered workers.
func (r *WorkerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}
