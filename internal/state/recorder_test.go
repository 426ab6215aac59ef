package state

import (
	"errors"
	"testing"
	"time"

	"github.com/ShayCichocki/jobhunt/internal/orchestrator"
)

func TestRecorderStoresTaskOutcomes(t *testing.T) {
	db := setupTestDB(t)

	run := NewRun("cv.md", nil)
	if err := db.CreateRun(run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	rec := NewRecorder(db, run.ID)
	now := time.Now()
	events := []orchestrator.OrchestratorEvent{
		{Type: orchestrator.EventPhaseStarted, Phase: "discovery", Timestamp: now},
		{Type: orchestrator.EventTaskStarted, Phase: "discovery", TaskID: "parse_resume", Worker: "Resume Analyst", Timestamp: now},
		{Type: orchestrator.EventTaskCompleted, Phase: "discovery", TaskID: "parse_resume", Worker: "Resume Analyst", Duration: 2 * time.Second, TokensIn: 10, TokensOut: 5},
		{Type: orchestrator.EventTaskStarted, Phase: "discovery", TaskID: "career_fit", Worker: "Career Advisor", Timestamp: now},
		{Type: orchestrator.EventTaskFailed, Phase: "discovery", TaskID: "career_fit", Worker: "Career Advisor", Error: errors.New("no fenced block")},
		{Type: orchestrator.EventPhaseFailed, Phase: "discovery"},
	}
	for _, e := range events {
		rec.OnEvent(e)
	}
	if err := rec.Err(); err != nil {
		t.Fatalf("recorder error: %v", err)
	}

	tasks, err := db.ListTaskRuns(run.ID)
	if err != nil {
		t.Fatalf("ListTaskRuns: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d task runs, want 2", len(tasks))
	}
	if tasks[0].TaskID != "parse_resume" || tasks[0].Status != TaskRunCompleted || tasks[0].TokensIn != 10 {
		t.Errorf("unexpected first task run %+v", tasks[0])
	}
	if tasks[1].TaskID != "career_fit" || tasks[1].Status != TaskRunFailed || tasks[1].Error != "no fenced block" {
		t.Errorf("unexpected second task run %+v", tasks[1])
	}
}

type failingStore struct{ TaskRunStore }

func (failingStore) StartTaskRun(*TaskRun) error { return errors.New("disk full") }

func TestRecorderKeepsFirstError(t *testing.T) {
	rec := NewRecorder(failingStore{}, "run")
	rec.OnEvent(orchestrator.OrchestratorEvent{Type: orchestrator.EventTaskStarted, Phase: "p", TaskID: "a"})
	rec.OnEvent(orchestrator.OrchestratorEvent{Type: orchestrator.EventTaskCompleted, Phase: "p", TaskID: "a"})

	if err := rec.Err(); err == nil || err.Error() != "disk full" {
		t.Errorf("Err() = %v, want disk full", err)
	}
}
