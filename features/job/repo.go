package job

import (
	"context"
	"database/sql"
)

type Repository interface {
	Record(ctx context.Context, f *Failure) error
	List(ctx context.Context) ([]Failure, error)
	Get(ctx context.Context, hash string) (*Failure, error)
	DeleteByHash(ctx context.Context, hash string) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Record upserts the failure for f.Hash, bumping attempts on repeat failures.
func (r *PostgresRepo) Record(ctx context.Context, f *Failure) error {
	query := `INSERT INTO tagging_failures (hash, path, filename, stage, error)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (hash) DO UPDATE SET
			path = EXCLUDED.path,
			filename = EXCLUDED.filename,
			stage = EXCLUDED.stage,
			error = EXCLUDED.error,
			attempts = tagging_failures.attempts + 1,
			last_failed_at = NOW()
		RETURNING attempts, first_failed_at, last_failed_at`
	return r.db.QueryRowContext(ctx, query, f.Hash, f.Path, f.Filename, f.Stage, f.Error).
		Scan(&f.Attempts, &f.FirstFailedAt, &f.LastFailedAt)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Failure, error) {
	query := `SELECT hash, path, filename, stage, error, attempts, first_failed_at, last_failed_at FROM tagging_failures ORDER BY last_failed_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Hash, &f.Path, &f.Filename, &f.Stage, &f.Error, &f.Attempts, &f.FirstFailedAt, &f.LastFailedAt); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, hash string) (*Failure, error) {
	f := &Failure{}
	query := `SELECT hash, path, filename, stage, error, attempts, first_failed_at, last_failed_at FROM tagging_failures WHERE hash = $1`
	err := r.db.QueryRowContext(ctx, query, hash).
		Scan(&f.Hash, &f.Path, &f.Filename, &f.Stage, &f.Error, &f.Attempts, &f.FirstFailedAt, &f.LastFailedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *PostgresRepo) DeleteByHash(ctx context.Context, hash string) error {
	query := `DELETE FROM tagging_failures WHERE hash = $1`
	_, err := r.db.ExecContext(ctx, query, hash)
	return err
}
