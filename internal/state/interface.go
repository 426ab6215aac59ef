package state

import "io"

// RunStore handles run-level persistence operations.
type RunStore interface {
	CreateRun(r *Run) error
	GetRun(id string) (*Run, error)
	FinishRun(id string, status RunStatus, runErr error) error
	ListRuns(limit int) ([]Run, error)
}

// TaskRunStore handles task execution persistence operations.
type TaskRunStore interface {
	StartTaskRun(t *TaskRun) error
	FinishTaskRun(t *TaskRun) error
	ListTaskRuns(runID string) ([]TaskRun, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// StateStore defines the interface for run history persistence.
type StateStore interface {
	io.Closer
	Migrator
	RunStore
	TaskRunStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ StateStore   = (*DB)(nil)
	_ Migrator     = (*DB)(nil)
	_ RunStore     = (*DB)(nil)
	_ TaskRunStore = (*DB)(nil)
)
