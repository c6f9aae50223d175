// Package snapshot persists last-known-good query data in a local SQLite file.
package snapshot

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/zerr"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Store implements ports.SnapshotStore on a SQLite database.
type Store struct {
	path string
	db   *sql.DB
}

// Open opens the database at path, creating the file and its schema when missing.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, zerr.Wrap(domain.ErrSnapshotOpenFailed, "snapshot path is required")
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o750); err != nil {
		return nil, openFailed(err, clean)
	}

	db, err := sql.Open("sqlite", clean+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, openFailed(err, clean)
	}
	// One writer at a time; the commit hook and the warm start run concurrently.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, openFailed(err, clean)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, openFailed(err, clean)
	}
	return &Store{path: clean, db: db}, nil
}

func openFailed(err error, path string) error {
	return domain.Tag(zerr.Wrap(errors.Join(domain.ErrSnapshotOpenFailed, err), "snapshot store unavailable"), "path", path)
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns every stored snapshot ordered by key.
func (s *Store) Load(ctx context.Context) ([]domain.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key_hash, query_key, resource, payload, fetched_at FROM snapshots ORDER BY query_key`)
	if err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrSnapshotReadFailed, err), "query snapshots")
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Snapshot
	for rows.Next() {
		var (
			snap      domain.Snapshot
			fetchedAt int64
		)
		if err := rows.Scan(&snap.KeyHash, &snap.Key, &snap.Resource, &snap.Payload, &fetchedAt); err != nil {
			return nil, zerr.Wrap(errors.Join(domain.ErrSnapshotReadFailed, err), "scan snapshot")
		}
		snap.FetchedAt = time.UnixMilli(fetchedAt).UTC()
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrSnapshotReadFailed, err), "iterate snapshots")
	}
	return out, nil
}

// Save inserts or replaces the snapshot of snap.KeyHash.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	if snap.KeyHash == "" {
		return zerr.Wrap(domain.ErrSnapshotWriteFailed, "snapshot key hash is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (key_hash, query_key, resource, payload, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key_hash) DO UPDATE SET
		    query_key = excluded.query_key,
		    resource = excluded.resource,
		    payload = excluded.payload,
		    fetched_at = excluded.fetched_at`,
		snap.KeyHash, snap.Key, snap.Resource, snap.Payload, snap.FetchedAt.UnixMilli(),
	)
	if err != nil {
		return domain.Tag(zerr.Wrap(errors.Join(domain.ErrSnapshotWriteFailed, err), "save snapshot"), "key", snap.Key)
	}
	return nil
}

// Delete removes the snapshot of keyHash.
func (s *Store) Delete(ctx context.Context, keyHash string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key_hash = ?`, keyHash); err != nil {
		return zerr.Wrap(errors.Join(domain.ErrSnapshotWriteFailed, err), "delete snapshot")
	}
	return nil
}

// Prune removes snapshots fetched before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE fetched_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, zerr.Wrap(errors.Join(domain.ErrSnapshotWriteFailed, err), "prune snapshots")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, zerr.Wrap(errors.Join(domain.ErrSnapshotWriteFailed, err), "prune snapshots")
	}
	return n, nil
}
