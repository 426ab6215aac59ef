package orchestrator

import (
	"time"

	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventPhaseStarted indicates a phase has started.
	EventPhaseStarted EventType = "phase_started"
	// EventPhaseCompleted indicates every task in a phase produced a result.
	EventPhaseCompleted EventType = "phase_completed"
	// EventPhaseFailed indicates a phase stopped on an error.
	EventPhaseFailed EventType = "phase_failed"
	// EventTaskStarted indicates a task has started execution.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted indicates a task completed successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a task failed.
	EventTaskFailed EventType = "task_failed"
	// EventDelegated indicates a worker handed sub-work to a coworker.
	EventDelegated EventType = "delegated"
)

// OrchestratorEvent represents an event emitted by the orchestrator.
// These events are used to update the TUI and track progress.
type OrchestratorEvent struct {
	// Type is the kind of event.
	Type EventType
	// Phase is the name of the running phase.
	Phase string
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// Worker is the role of the worker running the task.
	Worker string
	// Status is the task status after the event.
	Status models.TaskStatus
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Duration is the elapsed time for completion and failure events.
	Duration time.Duration
	// TokensIn and TokensOut count tokens spent by the task.
	TokensIn  int64
	TokensOut int64
}

// Observer receives orchestrator events synchronously, in order.
// Implementations must not block for long.
type Observer interface {
	OnEvent(OrchestratorEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(OrchestratorEvent)

// OnEvent calls f.
func (f ObserverFunc) OnEvent(e OrchestratorEvent) { f(e) }
