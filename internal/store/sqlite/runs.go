package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lu-zhengda/topsenders/internal/store"
)

func (j *DB) StartRun(ctx context.Context, run *store.Run) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, query, sampled, senders, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Query, run.Sampled, run.Senders, run.Started.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to start run %s: %w", run.ID, err)
	}
	return nil
}

func (j *DB) FinishRun(ctx context.Context, id string, finished time.Time) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ?`, finished.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to finish run %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

func (j *DB) GetRun(ctx context.Context, id string) (*store.Run, error) {
	var (
		r        store.Run
		query    sql.NullString
		finished sql.NullTime
	)
	err := j.db.QueryRowContext(ctx,
		`SELECT id, command, query, sampled, senders, started_at, finished_at FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Command, &query, &r.Sampled, &r.Senders, &r.Started, &finished)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	r.Query = query.String
	if finished.Valid {
		r.Finished = finished.Time
	}
	return &r, nil
}
