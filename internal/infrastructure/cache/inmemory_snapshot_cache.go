package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	appledger "github.com/backoffice/ledger/internal/application/ledger"
)

// InMemorySnapshotCache implements SnapshotCache with a process-local map.
// Suitable for single-instance deployments and testing. It does not share
// state across instances.
type InMemorySnapshotCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]inMemoryEntry
	ttl     time.Duration
}

type inMemoryEntry struct {
	snapshot  appledger.DocumentSnapshot
	expiresAt time.Time
}

// NewInMemorySnapshotCache creates an in-memory snapshot cache.
// A non-positive ttl means entries never expire.
func NewInMemorySnapshotCache(ttl time.Duration) *InMemorySnapshotCache {
	return &InMemorySnapshotCache{
		entries: make(map[uuid.UUID]inMemoryEntry),
		ttl:     ttl,
	}
}

// Get returns the cached snapshot and whether it was present
func (c *InMemorySnapshotCache) Get(ctx context.Context, documentID uuid.UUID) (*appledger.DocumentSnapshot, bool) {
	c.mu.RLock()
	entry, ok := c.entries[documentID]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, documentID)
		c.mu.Unlock()
		return nil, false
	}

	snapshot := entry.snapshot
	return &snapshot, true
}

// Set stores a snapshot
func (c *InMemorySnapshotCache) Set(ctx context.Context, snapshot *appledger.DocumentSnapshot) {
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[snapshot.DocumentID] = inMemoryEntry{
		snapshot:  *snapshot,
		expiresAt: expiresAt,
	}
	c.mu.Unlock()
}

// Invalidate drops the snapshot for a document
func (c *InMemorySnapshotCache) Invalidate(ctx context.Context, documentID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, documentID)
	c.mu.Unlock()
}

// Len returns the number of live entries, for tests and diagnostics
func (c *InMemorySnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemorySnapshotCache implements SnapshotCache
var _ appledger.SnapshotCache = (*InMemorySnapshotCache)(nil)
