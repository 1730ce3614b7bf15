package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"creditgate/internal/queue"
	"creditgate/internal/utils"
)

// Touch target kinds.
const (
	TouchKindToken      = "token"
	TouchKindCredential = "credential"
)

// TouchUpdate is a deferred last-used stamp for a token or credential.
type TouchUpdate struct {
	Kind string    `json:"kind"`
	Key  string    `json:"key"` // token id or provider name
	At   time.Time `json:"at"`
}

// TokenToucher stamps the last-used time on an access token.
type TokenToucher interface {
	TouchLastUsed(ctx context.Context, id uuid.UUID) error
}

// CredentialToucher stamps the last-used time on a provider credential.
type CredentialToucher interface {
	TouchLastUsed(ctx context.Context, provider string) error
}

// TouchWorker applies last-used stamps in batches, off the request
// path. Enqueueing is fire-and-forget: a slow or failed stamp never
// delays or fails the caller's response.
type TouchWorker struct {
	queue       queue.Queue
	dlq         queue.DeadLetterQueue
	tokens      TokenToucher
	credentials CredentialToucher
	config      *queue.Config
	logger      *utils.Logger
	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewTouchWorker creates a new touch worker
func NewTouchWorker(q queue.Queue, dlq queue.DeadLetterQueue, tokens TokenToucher, credentials CredentialToucher, config *queue.Config) *TouchWorker {
	if config == nil {
		config = queue.DefaultConfig("touch")
	}

	return &TouchWorker{
		queue:       q,
		dlq:         dlq,
		tokens:      tokens,
		credentials: credentials,
		config:      config,
		logger:      utils.NewLogger("touch-worker"),
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start starts the worker goroutine
func (w *TouchWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop gracefully stops the worker
func (w *TouchWorker) Stop() error {
	close(w.stopChan)
	<-w.stoppedChan
	return nil
}

// TouchToken enqueues a last-used stamp for an access token. Errors are
// logged and dropped.
func (w *TouchWorker) TouchToken(ctx context.Context, id uuid.UUID) {
	w.enqueue(ctx, &TouchUpdate{Kind: TouchKindToken, Key: id.String(), At: time.Now()})
}

// TouchCredential enqueues a last-used stamp for a provider credential.
// Errors are logged and dropped.
func (w *TouchWorker) TouchCredential(ctx context.Context, provider string) {
	w.enqueue(ctx, &TouchUpdate{Kind: TouchKindCredential, Key: provider, At: time.Now()})
}

func (w *TouchWorker) enqueue(ctx context.Context, update *TouchUpdate) {
	if err := w.queue.Enqueue(ctx, update); err != nil {
		w.logger.Warn("Dropping touch update", "kind", update.Kind, "key", update.Key, "error", err)
	}
}

func (w *TouchWorker) run(ctx context.Context) {
	defer close(w.stoppedChan)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Touch worker stopping")
			return
		case <-ctx.Done():
			w.logger.Info("Touch worker context cancelled")
			return
		default:
			w.processBatch(ctx)
		}
	}
}

func (w *TouchWorker) processBatch(ctx context.Context) {
	items, err := w.queue.DequeueBatch(ctx, w.config.BatchSize, w.config.BatchTimeout)
	if err != nil {
		w.logger.Error("Failed to dequeue touch updates", "error", err)
		time.Sleep(1 * time.Second) // back off on error
		return
	}

	if len(items) == 0 {
		return
	}

	// Dedupe by target, keeping the most recent stamp. Repeated calls
	// within one batch collapse into a single UPDATE.
	latest := make(map[string]*TouchUpdate, len(items))
	for _, item := range items {
		update, err := w.unmarshalItem(item)
		if err != nil {
			w.logger.Error("Failed to unmarshal touch update", "error", err)
			continue
		}

		key := update.Kind + ":" + update.Key
		if prev, ok := latest[key]; !ok || update.At.After(prev.At) {
			latest[key] = update
		}
	}

	for _, update := range latest {
		if err := w.processUpdate(ctx, update); err != nil {
			w.logger.Error("Failed to apply touch update",
				"kind", update.Kind, "key", update.Key, "error", err)
			if dlqErr := w.dlq.Add(ctx, update, err); dlqErr != nil {
				w.logger.Error("Failed to add touch update to DLQ", "error", dlqErr)
			}
		}
	}
}

func (w *TouchWorker) processUpdate(ctx context.Context, update *TouchUpdate) error {
	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := w.config.RetryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if lastErr = w.apply(ctx, update); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (w *TouchWorker) apply(ctx context.Context, update *TouchUpdate) error {
	switch update.Kind {
	case TouchKindToken:
		id, err := uuid.Parse(update.Key)
		if err != nil {
			return fmt.Errorf("invalid token id %q: %w", update.Key, err)
		}
		return w.tokens.TouchLastUsed(ctx, id)
	case TouchKindCredential:
		return w.credentials.TouchLastUsed(ctx, update.Key)
	default:
		return fmt.Errorf("unknown touch kind %q", update.Kind)
	}
}

// unmarshalItem converts a queue item into a TouchUpdate. Memory queues
// hand back the original value; Redis queues hand back raw JSON.
func (w *TouchWorker) unmarshalItem(item any) (*TouchUpdate, error) {
	switch v := item.(type) {
	case *TouchUpdate:
		return v, nil
	case json.RawMessage:
		var update TouchUpdate
		if err := json.Unmarshal(v, &update); err != nil {
			return nil, err
		}
		return &update, nil
	default:
		return nil, fmt.Errorf("unexpected item type %T", item)
	}
}
