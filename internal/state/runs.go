package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the status of a pipeline run.
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunStopped     RunStatus = "stopped"
	RunFailed      RunStatus = "failed"
	RunInterrupted RunStatus = "interrupted"
)

// TaskRunStatus represents the outcome of one task execution.
type TaskRunStatus string

const (
	TaskRunRunning   TaskRunStatus = "running"
	TaskRunCompleted TaskRunStatus = "completed"
	TaskRunFailed    TaskRunStatus = "failed"
)

// Run is one invocation of the pipeline.
type Run struct {
	ID         string     `json:"id"`
	Resume     string     `json:"resume"`
	Roles      []string   `json:"roles"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Status     RunStatus  `json:"status"`
	Error      string     `json:"error"`
}

// TaskRun is one task execution within a run.
type TaskRun struct {
	ID        int64         `json:"id"`
	RunID     string        `json:"run_id"`
	Phase     string        `json:"phase"`
	TaskID    string        `json:"task_id"`
	Worker    string        `json:"worker"`
	Status    TaskRunStatus `json:"status"`
	Error     string        `json:"error"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	TokensIn  int64         `json:"tokens_in"`
	TokensOut int64         `json:"tokens_out"`
}

// NewRun returns a running Run with a fresh ID.
func NewRun(resume string, roles []string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Resume:    resume,
		Roles:     append([]string(nil), roles...),
		StartedAt: time.Now(),
		Status:    RunRunning,
	}
}

// Run CRUD operations

// CreateRun inserts a new run.
func (db *DB) CreateRun(r *Run) error {
	roles, err := json.Marshal(r.Roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO runs (id, resume, roles, started_at, status)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.Resume, string(roles), formatTime(r.StartedAt), string(r.Status))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. It returns nil, nil when the run does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, resume, roles, started_at, finished_at, status, error
		FROM runs WHERE id = ?
	`, id)

	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// FinishRun records the final status of a run.
func (db *DB) FinishRun(id string, status RunStatus, runErr error) error {
	var msg sql.NullString
	if runErr != nil {
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}

	result, err := db.Exec(`
		UPDATE runs SET status = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, string(status), msg, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: no run with id %s", id)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `
		SELECT id, resume, roles, started_at, finished_at, status, error
		FROM runs ORDER BY started_at DESC, rowid DESC
	`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// ListRunsByStatus returns runs with the given status, most recent first.
func (db *DB) ListRunsByStatus(status RunStatus) ([]Run, error) {
	rows, err := db.Query(`
		SELECT id, resume, roles, started_at, finished_at, status, error
		FROM runs WHERE status = ? ORDER BY started_at DESC, rowid DESC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var roles, runErr, finishedAt sql.NullString
	var startedAt string
	if err := row.Scan(&r.ID, &r.Resume, &roles, &startedAt, &finishedAt, &r.Status, &runErr); err != nil {
		return nil, err
	}
	r.StartedAt, _ = parseTime(startedAt)
	r.FinishedAt = parseNullableTime(finishedAt)
	r.Error = runErr.String
	if roles.Valid && roles.String != "" {
		if err := json.Unmarshal([]byte(roles.String), &r.Roles); err != nil {
			return nil, fmt.Errorf("unmarshal roles: %w", err)
		}
	}
	return &r, nil
}

// TaskRun operations

// StartTaskRun inserts a running task execution and sets t.ID.
func (db *DB) StartTaskRun(t *TaskRun) error {
	if t.Status == "" {
		t.Status = TaskRunRunning
	}
	result, err := db.Exec(`
		INSERT INTO task_runs (run_id, phase, task_id, worker, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.RunID, t.Phase, t.TaskID, t.Worker, string(t.Status), formatTime(t.StartedAt))
	if err != nil {
		return fmt.Errorf("start task run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("task run id: %w", err)
	}
	t.ID = id
	return nil
}

// FinishTaskRun stores the outcome of a task execution.
func (db *DB) FinishTaskRun(t *TaskRun) error {
	var msg sql.NullString
	if t.Error != "" {
		msg = sql.NullString{String: t.Error, Valid: true}
	}
	_, err := db.Exec(`
		UPDATE task_runs SET status = ?, error = ?, duration_ms = ?, tokens_in = ?, tokens_out = ?
		WHERE id = ?
	`, string(t.Status), msg, t.Duration.Milliseconds(), t.TokensIn, t.TokensOut, t.ID)
	if err != nil {
		return fmt.Errorf("finish task run: %w", err)
	}
	return nil
}

// ListTaskRuns returns the task executions of a run in the order they started.
func (db *DB) ListTaskRuns(runID string) ([]TaskRun, error) {
	rows, err := db.Query(`
		SELECT id, run_id, phase, task_id, worker, status, error, started_at, duration_ms, tokens_in, tokens_out
		FROM task_runs WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list task runs: %w", err)
	}
	defer rows.Close()

	var out []TaskRun
	for rows.Next() {
		var t TaskRun
		var taskErr sql.NullString
		var startedAt string
		var durationMS int64
		if err := rows.Scan(&t.ID, &t.RunID, &t.Phase, &t.TaskID, &t.Worker, &t.Status, &taskErr,
			&startedAt, &durationMS, &t.TokensIn, &t.TokensOut); err != nil {
			return nil, fmt.Errorf("scan task run: %w", err)
		}
		t.Error = taskErr.String
		t.StartedAt, _ = parseTime(startedAt)
		t.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, t)
	}
	return out, rows.Err()
}
