package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/dockerdb/mongo-init/internal/model"
)

// RecordRun inserts a finished bootstrap run into the ledger.
func (r *Repository) RecordRun(ctx context.Context, run *model.BootstrapRun) error {
	query := `
		INSERT INTO bootstrap_runs (id, username, database, roles, status, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Username,
		run.Database,
		pq.Array(run.Roles),
		run.Status,
		run.Error,
		run.StartedAt,
		run.FinishedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to record bootstrap run: %w", err)
	}

	return nil
}

// ListRuns returns the most recent runs for a user, newest first.
func (r *Repository) ListRuns(ctx context.Context, database, username string, limit int) ([]*model.BootstrapRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, username, database, roles, status, error, started_at, finished_at
		FROM bootstrap_runs
		WHERE database = $1 AND username = $2
		ORDER BY started_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, database, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bootstrap runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.BootstrapRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bootstrap runs: %w", err)
	}

	return runs, nil
}

func scanRun(row pgx.Row) (*model.BootstrapRun, error) {
	var run model.BootstrapRun
	var roles []string

	err := row.Scan(
		&run.ID,
		&run.Username,
		&run.Database,
		pq.Array(&roles),
		&run.Status,
		&run.Error,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan bootstrap run: %w", err)
	}

	run.Roles = roles
	return &run, nil
}
