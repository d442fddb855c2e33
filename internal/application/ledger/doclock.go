package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrDocumentLocked is returned when the per-document lock cannot be
// acquired within the configured timeout. Retryable by the caller with
// backoff; never retried internally.
var ErrDocumentLocked = shared.NewDomainError("DOCUMENT_LOCKED", "Document is locked by another operation")

// documentLocks serializes read-then-write operations per document.
// The scope is exactly one document; unrelated documents never contend.
type documentLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*docLock
}

type docLock struct {
	ch   chan struct{}
	refs int
}

func newDocumentLocks() *documentLocks {
	return &documentLocks{locks: make(map[uuid.UUID]*docLock)}
}

// Acquire blocks until the document's lock is held, the timeout elapses,
// or the context is cancelled. On success it returns a release function
// the caller must invoke exactly once.
func (d *documentLocks) Acquire(ctx context.Context, documentID uuid.UUID, timeout time.Duration) (func(), error) {
	d.mu.Lock()
	entry, ok := d.locks[documentID]
	if !ok {
		entry = &docLock{ch: make(chan struct{}, 1)}
		d.locks[documentID] = entry
	}
	entry.refs++
	d.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case entry.ch <- struct{}{}:
		return func() {
			<-entry.ch
			d.release(documentID, entry)
		}, nil
	case <-timer.C:
		d.release(documentID, entry)
		return nil, ErrDocumentLocked
	case <-ctx.Done():
		d.release(documentID, entry)
		return nil, ErrDocumentLocked
	}
}

func (d *documentLocks) release(documentID uuid.UUID, entry *docLock) {
	d.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(d.locks, documentID)
	}
	d.mu.Unlock()
}
