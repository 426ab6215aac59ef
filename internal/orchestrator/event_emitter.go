package orchestrator

import (
	"sync"
	"sync/atomic"
	"time"
)

// emitWait is how long Emit waits on a full buffer before dropping.
const emitWait = 100 * time.Millisecond

// EventEmitter forwards events to a buffered channel so a slow subscriber,
// such as the progress display, never stalls a phase. It implements Observer.
type EventEmitter struct {
	events       chan OrchestratorEvent
	logger       *DebugLogger
	droppedCount atomic.Uint64
	closeOnce    sync.Once
}

// NewEventEmitter creates an emitter buffering up to bufferSize events.
// Dropped events are reported to logger, which may be nil.
func NewEventEmitter(bufferSize int, logger *DebugLogger) *EventEmitter {
	return &EventEmitter{
		events: make(chan OrchestratorEvent, bufferSize),
		logger: logger,
	}
}

// OnEvent implements Observer.
func (e *EventEmitter) OnEvent(event OrchestratorEvent) {
	e.Emit(event)
}

// Emit queues an event. On a full buffer it waits briefly, then drops it.
func (e *EventEmitter) Emit(event OrchestratorEvent) {
	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
	case <-time.After(emitWait):
		count := e.droppedCount.Add(1)
		if count%10 == 1 {
			e.logger.Log("[events] buffer full, dropped %s for task %q (total dropped: %d)", event.Type, event.TaskID, count)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events.
func (e *EventEmitter) Events() <-chan OrchestratorEvent {
	return e.events
}

// Close closes the events channel. Emit must not be called afterwards.
func (e *EventEmitter) Close() {
	e.closeOnce.Do(func() { close(e.events) })
}
