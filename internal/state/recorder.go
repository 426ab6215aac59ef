package state

import (
	"sync"

	"github.com/ShayCichocki/jobhunt/internal/orchestrator"
)

// Recorder writes task executions of one run to the store as orchestrator
// events arrive. Storage errors do not interrupt the run; the first one is
// kept and reported by Err.
type Recorder struct {
	store TaskRunStore
	runID string

	mu      sync.Mutex
	running map[string]*TaskRun
	err     error
}

// NewRecorder creates a Recorder for runID.
func NewRecorder(store TaskRunStore, runID string) *Recorder {
	return &Recorder{
		store:   store,
		runID:   runID,
		running: make(map[string]*TaskRun),
	}
}

var _ orchestrator.Observer = (*Recorder)(nil)

// OnEvent implements orchestrator.Observer.
func (r *Recorder) OnEvent(e orchestrator.OrchestratorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := e.Phase + "/" + e.TaskID
	switch e.Type {
	case orchestrator.EventTaskStarted:
		t := &TaskRun{
			RunID:     r.runID,
			Phase:     e.Phase,
			TaskID:    e.TaskID,
			Worker:    e.Worker,
			Status:    TaskRunRunning,
			StartedAt: e.Timestamp,
		}
		if err := r.store.StartTaskRun(t); err != nil {
			r.keep(err)
			return
		}
		r.running[key] = t

	case orchestrator.EventTaskCompleted, orchestrator.EventTaskFailed:
		t, ok := r.running[key]
		if !ok {
			return
		}
		delete(r.running, key)

		t.Status = TaskRunCompleted
		if e.Type == orchestrator.EventTaskFailed {
			t.Status = TaskRunFailed
			if e.Error != nil {
				t.Error = e.Error.Error()
			}
		}
		t.Duration = e.Duration
		t.TokensIn = e.TokensIn
		t.TokensOut = e.TokensOut
		r.keep(r.store.FinishTaskRun(t))
	}
}

func (r *Recorder) keep(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}

// Err returns the first storage error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
