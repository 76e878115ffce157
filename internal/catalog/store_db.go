package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 5 * time.Second
)

const snapshotSchema = `
	CREATE TABLE IF NOT EXISTS catalog_snapshots (
		id       BIGSERIAL PRIMARY KEY,
		version  INT         NOT NULL,
		taken_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		body     BYTEA       NOT NULL
	)
`

// PostgresSnapshotStore appends every saved snapshot as a new row; Load
// returns the most recent one.
type PostgresSnapshotStore struct {
	db *sql.DB
}

func NewPostgresSnapshotStore(db *sql.DB) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db}
}

func (s *PostgresSnapshotStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, snapshotSchema)
		return err
	})
}

func (s *PostgresSnapshotStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresSnapshotStore) Save(ctx context.Context, body []byte) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO catalog_snapshots (version, body)
			VALUES ($1, $2)
		`, SnapshotVersion, body)
		return err
	})
}

func (s *PostgresSnapshotStore) Load(ctx context.Context) ([]byte, bool, error) {
	var body []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT body
			FROM catalog_snapshots
			ORDER BY id DESC
			LIMIT 1
		`).Scan(&body)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
