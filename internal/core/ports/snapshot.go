package ports

import (
	"context"
	"time"

	"go.trai.ch/tillsync/internal/core/domain"
)

// SnapshotStore persists last-known-good query data across restarts.
//
//go:generate mockgen -source=snapshot.go -destination=mocks/mock_snapshot.go -package=mocks
type SnapshotStore interface {
	// Load returns every stored snapshot.
	Load(ctx context.Context) ([]domain.Snapshot, error)
	// Save inserts or replaces the snapshot for its key hash.
	Save(ctx context.Context, snap domain.Snapshot) error
	// Delete removes the snapshot for keyHash. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, keyHash string) error
	// Prune removes snapshots fetched before cutoff and returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
