package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryQueueEnqueueDequeue(t *testing.T) {
	q := NewMemoryQueue(DefaultConfig("test"))
	defer q.Close()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := q.Enqueue(ctx, i); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	items, err := q.DequeueBatch(ctx, 10, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("DequeueBatch failed: %v", err)
	}
	if len(items) != 5 {
		t.Errorf("got %d items, want 5", len(items))
	}
}

func TestMemoryQueueBatchLimit(t *testing.T) {
	q := NewMemoryQueue(DefaultConfig("test"))
	defer q.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if err := q.Enqueue(ctx, i); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	items, err := q.DequeueBatch(ctx, 3, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("DequeueBatch failed: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("got %d items, want 3", len(items))
	}

	length, err := q.Length(ctx)
	if err != nil {
		t.Fatalf("Length failed: %v", err)
	}
	if length != 7 {
		t.Errorf("Length = %d, want 7", length)
	}
}

func TestMemoryQueueTimeout(t *testing.T) {
	q := NewMemoryQueue(DefaultConfig("test"))
	defer q.Close()

	start := time.Now()
	items, err := q.DequeueBatch(context.Background(), 10, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("DequeueBatch failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("DequeueBatch returned before the wait elapsed")
	}
}

func TestMemoryQueueClosed(t *testing.T) {
	q := NewMemoryQueue(DefaultConfig("test"))
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := q.Enqueue(context.Background(), 1); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Enqueue on closed queue = %v, want ErrQueueClosed", err)
	}

	// Closing twice is fine.
	if err := q.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestMemoryQueueCloseUnblocksWaitingDequeue(t *testing.T) {
	q := NewMemoryQueue(DefaultConfig("test"))

	done := make(chan error, 1)
	go func() {
		_, err := q.DequeueBatch(context.Background(), 10, 5*time.Second)
		done <- err
	}()

	// Let the consumer park in its wait, then close. Close must not
	// block behind the waiting dequeue, and the dequeue must return
	// well before its wait elapses.
	time.Sleep(20 * time.Millisecond)
	start := time.Now()
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Close blocked behind a waiting DequeueBatch")
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrQueueClosed) {
			t.Errorf("DequeueBatch after close = %v, want ErrQueueClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("DequeueBatch did not return after Close")
	}
}

func TestMemoryDeadLetterQueue(t *testing.T) {
	dlq := NewMemoryDeadLetterQueue()
	ctx := context.Background()

	if err := dlq.Add(ctx, "item-1", errors.New("boom")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := dlq.Add(ctx, "item-2", errors.New("bang")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	items, err := dlq.List(ctx, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	if err := dlq.Remove(ctx, items[0].ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if err := dlq.Remove(ctx, "missing"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Remove(missing) = %v, want ErrItemNotFound", err)
	}
}
