package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lu-zhengda/topsenders/internal/store"
)

func (j *DB) RecordMutation(ctx context.Context, rec store.MutationRecord) error {
	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO mutations (run_id, sender, target, found, mutated, failed, error, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Sender, rec.Target, rec.Found, rec.Mutated, rec.Failed, errText, rec.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record mutation for %s: %w", rec.Sender, err)
	}
	return nil
}

// ListMutations returns records newest first.
func (j *DB) ListMutations(ctx context.Context, opts store.ListMutationOptions) ([]store.MutationRecord, error) {
	var (
		where []string
		args  []any
	)
	if opts.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, opts.RunID)
	}
	if opts.Sender != "" {
		where = append(where, "sender = ?")
		args = append(args, opts.Sender)
	}

	q := `SELECT id, run_id, sender, target, found, mutated, failed, error, at FROM mutations`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY at DESC, id DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list mutations: %w", err)
	}
	defer rows.Close()

	var recs []store.MutationRecord
	for rows.Next() {
		var (
			r       store.MutationRecord
			errText sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Sender, &r.Target, &r.Found, &r.Mutated, &r.Failed, &errText, &r.At); err != nil {
			return nil, fmt.Errorf("failed to scan mutation: %w", err)
		}
		r.Error = errText.String
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
