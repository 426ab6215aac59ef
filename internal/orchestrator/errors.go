package orchestrator

import (
	"fmt"
	"time"
)

// NotFoundError reports a reference to a worker, schema or capability that
// was never registered.
type NotFoundError struct {
	// Kind is what was looked up: "worker", "schema" or "capability".
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %q", e.Kind, e.Name)
}

// MissingParameterError reports a template placeholder with no value in the
// execution context. It is raised before the worker is invoked.
type MissingParameterError struct {
	TaskID string
	Name   string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("task %s: missing parameter {%s}", e.TaskID, e.Name)
}

// TimeoutError reports that a worker did not answer within the task timeout.
type TimeoutError struct {
	TaskID  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task %s timed out after %s", e.TaskID, e.Timeout)
}

// TaskExecutionError wraps any failure while running a task: the worker call,
// a timeout or extraction of its output.
type TaskExecutionError struct {
	Phase  string
	TaskID string
	Worker string
	Err    error
}

func (e *TaskExecutionError) Error() string {
	return fmt.Sprintf("phase %s: task %s (%s) failed: %v", e.Phase, e.TaskID, e.Worker, e.Err)
}

func (e *TaskExecutionError) Unwrap() error { return e.Err }
