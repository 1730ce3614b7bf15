// Package queue provides the buffering layer for fire-and-forget work:
// last-used stamps and other updates that must never block or fail a
// request. Two backends are available: an in-memory channel queue for
// standalone deployments and a Redis list queue that survives restarts
// and supports distributed workers.
package queue

import (
	"context"
	"time"
)

// Queue buffers items for asynchronous batch processing.
type Queue interface {
	// Enqueue adds an item to the queue.
	Enqueue(ctx context.Context, item any) error

	// DequeueBatch waits up to wait for at least one item, then drains
	// up to maxItems more without blocking. Returns an empty slice on
	// timeout.
	DequeueBatch(ctx context.Context, maxItems int, wait time.Duration) ([]any, error)

	// Length returns the current queue length.
	Length(ctx context.Context) (int, error)

	// Close shuts down the queue.
	Close() error
}

// DeadLetterQueue collects items that exhausted their retries.
type DeadLetterQueue interface {
	Add(ctx context.Context, item any, cause error) error
	List(ctx context.Context, maxItems int) ([]DeadLetterItem, error)
	Remove(ctx context.Context, id string) error
	Close() error
}

// DeadLetterItem represents a failed item with its error context.
type DeadLetterItem struct {
	ID        string    `json:"id"`
	Item      any       `json:"item"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Config holds queue and worker configuration.
type Config struct {
	// QueueName is the name/key for the queue.
	QueueName string

	// BatchSize is the maximum number of items to process in a batch.
	BatchSize int

	// BatchTimeout is how long to wait before processing a partial batch.
	BatchTimeout time.Duration

	// MaxRetries is the maximum number of retry attempts per item.
	MaxRetries int

	// RetryBackoff is the initial backoff duration for retries.
	RetryBackoff time.Duration
}

// DefaultConfig returns default queue configuration.
func DefaultConfig(queueName string) *Config {
	return &Config{
		QueueName:    queueName,
		BatchSize:    100,
		BatchTimeout: 5 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 1 * time.Second,
	}
}
