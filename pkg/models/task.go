package models

import (
	"errors"
	"fmt"
	"strings"
)

// TaskStatus represents the current state of a task execution.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates a worker is executing the task.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusDone indicates the task produced a structured result.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusFailed indicates the task failed.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusDone, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// TaskSpec is a declarative unit of work: an instruction template, the worker
// assigned to it, the output contract it must satisfy and the upstream tasks
// whose results it receives as context.
type TaskSpec struct {
	// ID is the unique identifier for this task within a phase.
	ID string `json:"id" yaml:"id"`
	// Description is the instruction template. Named placeholders use the
	// {name} form and are filled from the execution context.
	Description string `json:"description" yaml:"description"`
	// Worker is the role of the worker assigned to the task.
	Worker string `json:"worker" yaml:"worker"`
	// Schema names the expected output contract.
	Schema string `json:"schema" yaml:"schema"`
	// DependsOn lists task IDs whose results must exist before this task runs.
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on"`
}

// Validate checks the task for missing required fields.
func (t TaskSpec) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("task id is required")
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("task %s: description is required", t.ID)
	}
	if strings.TrimSpace(t.Worker) == "" {
		return fmt.Errorf("task %s: worker is required", t.ID)
	}
	if strings.TrimSpace(t.Schema) == "" {
		return fmt.Errorf("task %s: schema is required", t.ID)
	}
	for _, dep := range t.DependsOn {
		if dep == t.ID {
			return fmt.Errorf("task %s depends on itself", t.ID)
		}
	}
	return nil
}
