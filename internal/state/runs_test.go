package state

import (
	"errors"
	"testing"
	"time"
)

func TestCreateAndGetRun(t *testing.T) {
	db := setupTestDB(t)

	r := NewRun("/tmp/cv.md", []string{"ML Engineer", "Data Scientist"})
	if r.ID == "" {
		t.Fatal("NewRun should assign an id")
	}
	if err := db.CreateRun(r); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	got, err := db.GetRun(r.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got == nil {
		t.Fatal("run not found")
	}
	if got.Resume != "/tmp/cv.md" || got.Status != RunRunning {
		t.Errorf("unexpected run %+v", got)
	}
	if len(got.Roles) != 2 || got.Roles[1] != "Data Scientist" {
		t.Errorf("roles = %v", got.Roles)
	}
	if got.FinishedAt != nil {
		t.Error("running run should have no finish time")
	}
}

func TestGetRunMissing(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetRun("nope")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil run, got %+v", got)
	}
}

func TestFinishRun(t *testing.T) {
	db := setupTestDB(t)

	r := NewRun("cv.md", nil)
	if err := db.CreateRun(r); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := db.FinishRun(r.ID, RunFailed, errors.New("phase discovery: boom")); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := db.GetRun(r.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != RunFailed || got.Error != "phase discovery: boom" {
		t.Errorf("unexpected run %+v", got)
	}
	if got.FinishedAt == nil {
		t.Error("expected finish time")
	}

	if err := db.FinishRun("missing", RunCompleted, nil); err == nil {
		t.Error("expected error finishing unknown run")
	}
}

func TestListRunsLimit(t *testing.T) {
	db := setupTestDB(t)

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		r := NewRun("cv.md", nil)
		r.StartedAt = base.Add(time.Duration(i) * time.Minute)
		if err := db.CreateRun(r); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
		ids = append(ids, r.ID)
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("runs not newest first: %v, %v", runs[0].ID, runs[1].ID)
	}
}

func TestTaskRunLifecycle(t *testing.T) {
	db := setupTestDB(t)

	r := NewRun("cv.md", nil)
	if err := db.CreateRun(r); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	tr := &TaskRun{RunID: r.ID, Phase: "discovery", TaskID: "parse_resume", Worker: "Resume Analyst", StartedAt: time.Now()}
	if err := db.StartTaskRun(tr); err != nil {
		t.Fatalf("StartTaskRun: %v", err)
	}
	if tr.ID == 0 || tr.Status != TaskRunRunning {
		t.Fatalf("unexpected task run after start %+v", tr)
	}

	tr.Status = TaskRunCompleted
	tr.Duration = 1500 * time.Millisecond
	tr.TokensIn = 120
	tr.TokensOut = 80
	if err := db.FinishTaskRun(tr); err != nil {
		t.Fatalf("FinishTaskRun: %v", err)
	}

	tasks, err := db.ListTaskRuns(r.ID)
	if err != nil {
		t.Fatalf("ListTaskRuns: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d task runs, want 1", len(tasks))
	}
	got := tasks[0]
	if got.Status != TaskRunCompleted || got.Duration != 1500*time.Millisecond || got.TokensIn != 120 || got.TokensOut != 80 {
		t.Errorf("unexpected task run %+v", got)
	}
}

func TestRecoveryManager(t *testing.T) {
	db := setupTestDB(t)

	stale := NewRun("cv.md", nil)
	stale.StartedAt = time.Now().Add(-2 * time.Hour)
	fresh := NewRun("cv.md", nil)
	done := NewRun("cv.md", nil)
	done.StartedAt = stale.StartedAt
	for _, r := range []*Run{stale, fresh, done} {
		if err := db.CreateRun(r); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
	}
	if err := db.FinishRun(done.ID, RunCompleted, nil); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := db.StartTaskRun(&TaskRun{RunID: stale.ID, Phase: "job_search", TaskID: "job_search", Worker: "Job Researcher", StartedAt: stale.StartedAt}); err != nil {
		t.Fatalf("StartTaskRun: %v", err)
	}

	rm := NewRecoveryManager(db, time.Hour)
	found, err := rm.CheckForInterrupted()
	if err != nil {
		t.Fatalf("CheckForInterrupted: %v", err)
	}
	if len(found) != 1 || found[0].RunID != stale.ID || found[0].RunningTasks != 1 {
		t.Fatalf("unexpected interrupted runs %+v", found)
	}

	n, err := rm.CleanAll()
	if err != nil {
		t.Fatalf("CleanAll: %v", err)
	}
	if n != 1 {
		t.Errorf("cleaned %d runs, want 1", n)
	}

	got, _ := db.GetRun(stale.ID)
	if got.Status != RunInterrupted {
		t.Errorf("status = %s, want interrupted", got.Status)
	}
	tasks, _ := db.ListTaskRuns(stale.ID)
	if len(tasks) != 1 || tasks[0].Status != TaskRunFailed {
		t.Errorf("unfinished task not failed: %+v", tasks)
	}

	if err := rm.Clean(stale.ID); err == nil {
		t.Error("cleaning an already closed run should fail")
	}
}
