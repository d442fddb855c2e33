package ledger

import (
	"context"

	"github.com/google/uuid"
)

// SnapshotCache is the optional read-side cache for document snapshots.
// It serves display reads only; the validate-then-write paths always go
// to source data under the per-document lock. Implementations are free to
// serve slightly stale snapshots.
type SnapshotCache interface {
	// Get returns the cached snapshot and whether it was present
	Get(ctx context.Context, documentID uuid.UUID) (*DocumentSnapshot, bool)

	// Set stores a snapshot
	Set(ctx context.Context, snapshot *DocumentSnapshot)

	// Invalidate drops the snapshot for a document
	Invalidate(ctx context.Context, documentID uuid.UUID)
}
