package state

import (
	"database/sql"
	"fmt"
	"time"
)

// InterruptedRun describes a run left in the running state by a process
// that exited without finishing it.
type InterruptedRun struct {
	RunID        string
	StartedAt    time.Time
	RunningTasks int
}

// RecoveryManager detects and closes out interrupted runs.
type RecoveryManager struct {
	db *DB
	// staleAfter is how long a run may stay running before it counts as interrupted.
	staleAfter time.Duration
}

// NewRecoveryManager creates a RecoveryManager. Runs that have been running
// for longer than staleAfter are treated as interrupted.
func NewRecoveryManager(db *DB, staleAfter time.Duration) *RecoveryManager {
	return &RecoveryManager{db: db, staleAfter: staleAfter}
}

// CheckForInterrupted lists stale running runs, most recent first.
func (rm *RecoveryManager) CheckForInterrupted() ([]InterruptedRun, error) {
	runs, err := rm.db.ListRunsByStatus(RunRunning)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-rm.staleAfter)
	var out []InterruptedRun
	for _, r := range runs {
		if r.StartedAt.After(cutoff) {
			continue
		}
		tasks, err := rm.db.ListTaskRuns(r.ID)
		if err != nil {
			return nil, err
		}
		running := 0
		for _, t := range tasks {
			if t.Status == TaskRunRunning {
				running++
			}
		}
		out = append(out, InterruptedRun{RunID: r.ID, StartedAt: r.StartedAt, RunningTasks: running})
	}
	return out, nil
}

// Clean marks an interrupted run and its unfinished tasks as such.
func (rm *RecoveryManager) Clean(runID string) error {
	return rm.db.Transaction(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			UPDATE runs SET status = ?, error = ?, finished_at = ?
			WHERE id = ? AND status = ?
		`, string(RunInterrupted), "run interrupted", formatTime(time.Now()), runID, string(RunRunning))
		if err != nil {
			return fmt.Errorf("mark run interrupted: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("run %s is not running", runID)
		}

		if _, err := tx.Exec(`
			UPDATE task_runs SET status = ?, error = ?
			WHERE run_id = ? AND status = ?
		`, string(TaskRunFailed), "run interrupted", runID, string(TaskRunRunning)); err != nil {
			return fmt.Errorf("fail interrupted tasks: %w", err)
		}
		return nil
	})
}

// CleanAll closes out every interrupted run and returns how many were cleaned.
func (rm *RecoveryManager) CleanAll() (int, error) {
	runs, err := rm.CheckForInterrupted()
	if err != nil {
		return 0, err
	}
	for _, r := range runs {
		if err := rm.Clean(r.RunID); err != nil {
			return 0, err
		}
	}
	return len(runs), nil
}
