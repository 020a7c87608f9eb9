package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/sunwatch/internal/exposure"
)

// PostgresStore keeps exposure samples in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// EnsureSchema creates the samples table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS uv_exposure_samples (
			id         UUID PRIMARY KEY,
			value      DOUBLE PRECISION NOT NULL,
			unit       TEXT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS uv_exposure_samples_start_idx ON uv_exposure_samples (start_time)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveSample(ctx context.Context, sample exposure.Sample) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO uv_exposure_samples (id, value, unit, start_time, end_time)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		sample.ID, sample.Value, sample.Unit, sample.Start, sample.End,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSamples(ctx context.Context, from, to time.Time) ([]exposure.Sample, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, value, unit, start_time, end_time
		 FROM uv_exposure_samples
		 WHERE start_time >= $1 AND start_time <= $2
		 ORDER BY start_time`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}

	samples, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (exposure.Sample, error) {
		var sm exposure.Sample
		err := row.Scan(&sm.ID, &sm.Value, &sm.Unit, &sm.Start, &sm.End)
		sm.Start = sm.Start.UTC()
		sm.End = sm.End.UTC()
		return sm, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan samples: %w", err)
	}
	if len(samples) == 0 {
		return nil, ErrNotFound
	}
	return samples, nil
}
