package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditgate/internal/queue"
)

type recordingToucher struct {
	mu          sync.Mutex
	tokenIDs    []uuid.UUID
	providers   []string
	tokenErr    error
	providerErr error
}

func (r *recordingToucher) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tokenErr != nil {
		return r.tokenErr
	}
	r.tokenIDs = append(r.tokenIDs, id)
	return nil
}

type recordingCredentialToucher struct {
	*recordingToucher
}

func (r *recordingCredentialToucher) TouchLastUsed(ctx context.Context, provider string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.providerErr != nil {
		return r.providerErr
	}
	r.providers = append(r.providers, provider)
	return nil
}

func newTestTouchWorker(t *testing.T) (*TouchWorker, *recordingToucher, queue.DeadLetterQueue) {
	t.Helper()

	cfg := &queue.Config{
		QueueName:    "touch",
		BatchSize:    10,
		BatchTimeout: 50 * time.Millisecond,
		MaxRetries:   1,
		RetryBackoff: 10 * time.Millisecond,
	}
	q := queue.NewMemoryQueue(cfg)
	dlq := queue.NewMemoryDeadLetterQueue()
	rec := &recordingToucher{}
	w := NewTouchWorker(q, dlq, rec, &recordingCredentialToucher{rec}, cfg)
	return w, rec, dlq
}

func TestTouchWorkerAppliesStamps(t *testing.T) {
	w, rec, _ := newTestTouchWorker(t)

	ctx := context.Background()
	tokenID := uuid.New()

	w.TouchToken(ctx, tokenID)
	w.TouchCredential(ctx, "openai")

	w.processBatch(ctx)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.tokenIDs, 1)
	assert.Equal(t, tokenID, rec.tokenIDs[0])
	assert.Equal(t, []string{"openai"}, rec.providers)
}

func TestTouchWorkerDedupesByTarget(t *testing.T) {
	w, rec, _ := newTestTouchWorker(t)

	ctx := context.Background()
	tokenID := uuid.New()

	// Several stamps for the same token within one batch collapse into
	// a single update.
	for i := 0; i < 5; i++ {
		w.TouchToken(ctx, tokenID)
	}
	w.TouchCredential(ctx, "anthropic")
	w.TouchCredential(ctx, "anthropic")

	w.processBatch(ctx)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.tokenIDs, 1)
	assert.Len(t, rec.providers, 1)
}

func TestTouchWorkerDeadLettersAfterRetries(t *testing.T) {
	w, rec, dlq := newTestTouchWorker(t)
	rec.tokenErr = errors.New("connection refused")

	ctx := context.Background()
	w.TouchToken(ctx, uuid.New())

	w.processBatch(ctx)

	items, err := dlq.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].Error, "connection refused")
}

func TestTouchWorkerStartStop(t *testing.T) {
	w, rec, _ := newTestTouchWorker(t)

	ctx := context.Background()
	w.Start(ctx)

	tokenID := uuid.New()
	w.TouchToken(ctx, tokenID)

	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.tokenIDs) == 1
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, w.Stop())
}

func TestTouchWorkerUnknownKind(t *testing.T) {
	w, _, dlq := newTestTouchWorker(t)

	ctx := context.Background()
	require.NoError(t, w.queue.Enqueue(ctx, &TouchUpdate{Kind: "bogus", Key: "x", At: time.Now()}))

	w.processBatch(ctx)

	items, err := dlq.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
