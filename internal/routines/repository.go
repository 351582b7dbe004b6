package routines

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/strefethen/music-agent-go/internal/db"
)

// Repository persists routine runs.
type Repository struct {
	reader *sql.DB
	writer *sql.DB
	now    func() time.Time
}

// NewRepository creates a run repository.
func NewRepository(dbPair DBPair) *Repository {
	return &Repository{reader: dbPair.Reader(), writer: dbPair.Writer(), now: time.Now}
}

// StartRun inserts a running row and returns it.
func (r *Repository) StartRun(ctx context.Context, routine, trigger string) (*Run, error) {
	run := &Run{
		Object:      "routine_run",
		RunID:       "run_" + uuid.NewString(),
		Routine:     routine,
		TriggeredBy: trigger,
		Status:      RunStatusRunning,
		StartedAt:   r.now().UTC(),
	}
	_, err := r.writer.ExecContext(ctx, `
		INSERT INTO routine_runs (run_id, routine, triggered_by, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.RunID, run.Routine, run.TriggeredBy, string(run.Status), db.FormatTime(run.StartedAt))
	if err != nil {
		return nil, err
	}
	return run, nil
}

// FinishRun stores the final status of run.
func (r *Repository) FinishRun(ctx context.Context, run *Run) error {
	ended := r.now().UTC()
	run.EndedAt = &ended
	_, err := r.writer.ExecContext(ctx, `
		UPDATE routine_runs SET status = ?, ended_at = ?, failed_step = ?, error = ?
		WHERE run_id = ?
	`, string(run.Status), db.FormatTime(ended), run.FailedStep, run.Error, run.RunID)
	return err
}

// ListRuns returns the most recent runs of a routine, newest first.
func (r *Repository) ListRuns(ctx context.Context, routine string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.reader.QueryContext(ctx, `
		SELECT run_id, routine, triggered_by, status, started_at, ended_at, failed_step, error
		FROM routine_runs
		WHERE routine = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, routine, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run        Run
			status     string
			startedAt  string
			endedAt    sql.NullString
			failedStep sql.NullInt64
			errText    sql.NullString
		)
		if err := rows.Scan(&run.RunID, &run.Routine, &run.TriggeredBy, &status, &startedAt, &endedAt, &failedStep, &errText); err != nil {
			return nil, err
		}
		run.Object = "routine_run"
		run.Status = RunStatus(status)
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		if endedAt.Valid {
			if t, err := time.Parse(time.RFC3339Nano, endedAt.String); err == nil {
				run.EndedAt = &t
			}
		}
		if failedStep.Valid {
			step := int(failedStep.Int64)
			run.FailedStep = &step
		}
		if errText.Valid {
			run.Error = &errText.String
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
