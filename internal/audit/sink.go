// Package audit ships an append-only trail of ledger activity to
// long-term storage. Records are buffered in memory and flushed in
// batches; the trail is for offline reconciliation and dispute
// handling, not for serving reads.
package audit

import (
	"context"
	"sync"
	"time"

	"creditgate/internal/utils"
)

// Record is one ledger event as written to the audit trail.
type Record struct {
	Timestamp     time.Time      `json:"timestamp"`
	TransactionID string         `json:"transaction_id"`
	TenantID      string         `json:"tenant_id"`
	Kind          string         `json:"kind"`
	Amount        int64          `json:"amount"`
	BalanceAfter  int64          `json:"balance_after"`
	Description   string         `json:"description,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Sink receives audit records from the ledger.
type Sink interface {
	Enqueue(rec *Record) error
}

// NoopSink discards audit records. Used when the trail is disabled.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (s *NoopSink) Enqueue(rec *Record) error {
	return nil
}

// BatchWriter persists a batch of records somewhere durable.
type BatchWriter interface {
	WriteBatch(ctx context.Context, records []*Record) (string, error)
}

// BufferedSink accumulates records in memory and flushes them to a
// BatchWriter when the batch fills up or the flush interval elapses.
// Enqueue never blocks; if the buffer is full the record is dropped
// and counted.
type BufferedSink struct {
	writer        BatchWriter
	flushSize     int
	flushInterval time.Duration
	logger        *utils.Logger

	recordCh chan *Record
	doneCh   chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	dropped int64
}

// NewBufferedSink creates and starts a buffered sink.
func NewBufferedSink(writer BatchWriter, bufferSize, flushSize int, flushInterval time.Duration) *BufferedSink {
	if flushSize <= 0 {
		flushSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 30 * time.Second
	}

	s := &BufferedSink{
		writer:        writer,
		flushSize:     flushSize,
		flushInterval: flushInterval,
		logger:        utils.NewLogger("audit"),
		recordCh:      make(chan *Record, bufferSize),
		doneCh:        make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

// Enqueue queues a record for the next flush. Never blocks; a full
// buffer drops the record.
func (s *BufferedSink) Enqueue(rec *Record) error {
	select {
	case s.recordCh <- rec:
		return nil
	default:
		s.mu.Lock()
		s.dropped++
		dropped := s.dropped
		s.mu.Unlock()
		s.logger.Warn("Audit buffer full, dropping record", "total_dropped", dropped)
		return nil
	}
}

// Dropped returns the number of records lost to buffer overflow.
func (s *BufferedSink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *BufferedSink) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]*Record, 0, s.flushSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := s.writer.WriteBatch(ctx, batch); err != nil {
			s.logger.Error("Failed to flush audit batch", "count", len(batch), "error", err)
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-s.recordCh:
			batch = append(batch, rec)
			if len(batch) >= s.flushSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.doneCh:
			// Drain whatever is still queued, then flush once.
			for {
				select {
				case rec := <-s.recordCh:
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Shutdown flushes pending records and stops the flush goroutine.
func (s *BufferedSink) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.doneCh)
	s.wg.Wait()
}
