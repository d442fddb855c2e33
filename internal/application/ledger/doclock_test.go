package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentLocks_AcquireAndRelease(t *testing.T) {
	locks := newDocumentLocks()
	ctx := context.Background()
	docID := uuid.New()

	release, err := locks.Acquire(ctx, docID, time.Second)
	require.NoError(t, err)
	release()

	// Lock is free again
	release, err = locks.Acquire(ctx, docID, time.Second)
	require.NoError(t, err)
	release()
}

func TestDocumentLocks_SecondAcquireTimesOut(t *testing.T) {
	locks := newDocumentLocks()
	ctx := context.Background()
	docID := uuid.New()

	release, err := locks.Acquire(ctx, docID, time.Second)
	require.NoError(t, err)
	defer release()

	_, err = locks.Acquire(ctx, docID, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrDocumentLocked)
}

func TestDocumentLocks_UnrelatedDocumentsDoNotContend(t *testing.T) {
	locks := newDocumentLocks()
	ctx := context.Background()

	releaseA, err := locks.Acquire(ctx, uuid.New(), time.Second)
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := locks.Acquire(ctx, uuid.New(), 20*time.Millisecond)
	require.NoError(t, err)
	releaseB()
}

func TestDocumentLocks_ContextCancellation(t *testing.T) {
	locks := newDocumentLocks()
	docID := uuid.New()

	release, err := locks.Acquire(context.Background(), docID, time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = locks.Acquire(ctx, docID, time.Second)
	assert.ErrorIs(t, err, ErrDocumentLocked)
}

func TestDocumentLocks_Serializes(t *testing.T) {
	locks := newDocumentLocks()
	ctx := context.Background()
	docID := uuid.New()

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Acquire(ctx, docID, 5*time.Second)
			require.NoError(t, err)
			defer release()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}

func TestDocumentLocks_EntryCleanup(t *testing.T) {
	locks := newDocumentLocks()
	ctx := context.Background()
	docID := uuid.New()

	release, err := locks.Acquire(ctx, docID, time.Second)
	require.NoError(t, err)
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}
