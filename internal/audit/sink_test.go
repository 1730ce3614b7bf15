package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryWriter struct {
	mu      sync.Mutex
	batches [][]*Record
}

func (w *memoryWriter) WriteBatch(ctx context.Context, records []*Record) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	batch := make([]*Record, len(records))
	copy(batch, records)
	w.batches = append(w.batches, batch)
	return "memory", nil
}

func (w *memoryWriter) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func TestBufferedSinkFlushesOnSize(t *testing.T) {
	writer := &memoryWriter{}
	sink := NewBufferedSink(writer, 100, 3, time.Hour)
	defer sink.Shutdown()

	for i := 0; i < 3; i++ {
		require.NoError(t, sink.Enqueue(&Record{TenantID: "t", Amount: int64(i)}))
	}

	assert.Eventually(t, func() bool {
		return writer.total() == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBufferedSinkFlushesOnInterval(t *testing.T) {
	writer := &memoryWriter{}
	sink := NewBufferedSink(writer, 100, 1000, 50*time.Millisecond)
	defer sink.Shutdown()

	require.NoError(t, sink.Enqueue(&Record{TenantID: "t", Amount: 1}))

	assert.Eventually(t, func() bool {
		return writer.total() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBufferedSinkFlushesOnShutdown(t *testing.T) {
	writer := &memoryWriter{}
	sink := NewBufferedSink(writer, 100, 1000, time.Hour)

	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Enqueue(&Record{TenantID: "t", Amount: int64(i)}))
	}

	sink.Shutdown()
	assert.Equal(t, 5, writer.total())

	// A second shutdown is a no-op.
	sink.Shutdown()
}

type blockingWriter struct {
	entered chan struct{}
	release chan struct{}
}

func (w *blockingWriter) WriteBatch(ctx context.Context, records []*Record) (string, error) {
	w.entered <- struct{}{}
	<-w.release
	return "blocked", nil
}

func TestBufferedSinkDropsWhenFull(t *testing.T) {
	writer := &blockingWriter{
		entered: make(chan struct{}, 10),
		release: make(chan struct{}),
	}
	sink := NewBufferedSink(writer, 1, 1, time.Hour)

	// First record triggers a flush that parks the goroutine inside
	// the writer.
	require.NoError(t, sink.Enqueue(&Record{TenantID: "t"}))
	<-writer.entered

	// Second record occupies the single buffer slot; everything after
	// that must drop.
	require.NoError(t, sink.Enqueue(&Record{TenantID: "t"}))
	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Enqueue(&Record{TenantID: "t"}))
	}
	assert.Equal(t, int64(5), sink.Dropped())

	close(writer.release)
	sink.Shutdown()
}

func TestNoopSink(t *testing.T) {
	sink := NewNoopSink()
	require.NoError(t, sink.Enqueue(&Record{TenantID: "t"}))
}
