package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/stamps/internal/document"
	"github.com/inamate/stamps/internal/typeid"
)

const schema = `
CREATE TABLE IF NOT EXISTS stamp_snapshots (
	id         TEXT PRIMARY KEY,
	version    INTEGER NOT NULL UNIQUE,
	document   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Snapshot is one saved version of the document.
type Snapshot struct {
	ID        string        `json:"id"`
	Version   int           `json:"version"`
	CreatedAt time.Time     `json:"createdAt"`
	Document  *document.SVG `json:"-"`
}

// PostgresStore appends every save as a new snapshot version.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and creates the snapshot table if
// needed.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Load returns the latest snapshot's document.
func (s *PostgresStore) Load(ctx context.Context) (*document.SVG, error) {
	snap, err := s.scanOne(ctx, `SELECT id, version, created_at, document
		FROM stamp_snapshots ORDER BY version DESC LIMIT 1`)
	if err != nil {
		return nil, err
	}
	return snap.Document, nil
}

// Save stores svg as the next snapshot version.
func (s *PostgresStore) Save(ctx context.Context, svg *document.SVG) error {
	_, err := s.Create(ctx, svg)
	return err
}

// Create stores svg as the next snapshot version and returns it.
func (s *PostgresStore) Create(ctx context.Context, svg *document.SVG) (*Snapshot, error) {
	data, err := document.Marshal(svg)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{ID: typeid.NewSnapshotID(), Document: svg}
	err = s.pool.QueryRow(ctx, `INSERT INTO stamp_snapshots (id, version, document)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2 FROM stamp_snapshots
		RETURNING version, created_at`, snap.ID, string(data)).Scan(&snap.Version, &snap.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return snap, nil
}

// Get returns the snapshot with the given id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	if err := typeid.Validate(id, typeid.PrefixSnapshot); err != nil {
		return nil, ErrNotFound
	}
	return s.scanOne(ctx, `SELECT id, version, created_at, document
		FROM stamp_snapshots WHERE id = $1`, id)
}

// List returns up to limit snapshots, newest first, without documents.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]Snapshot, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, version, created_at
		FROM stamp_snapshots ORDER BY version DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	snaps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Snapshot, error) {
		var snap Snapshot
		err := row.Scan(&snap.ID, &snap.Version, &snap.CreatedAt)
		return snap, err
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snaps, nil
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, args ...any) (*Snapshot, error) {
	var (
		snap Snapshot
		text string
	)
	err := s.pool.QueryRow(ctx, query, args...).Scan(&snap.ID, &snap.Version, &snap.CreatedAt, &text)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	snap.Document, err = document.Parse([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	return &snap, nil
}
