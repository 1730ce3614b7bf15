package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisQueueEnqueueDequeue(t *testing.T) {
	client := newTestRedis(t)
	q := NewRedisQueue(client, DefaultConfig("test"))

	ctx := context.Background()

	type payload struct {
		Key string `json:"key"`
	}

	require.NoError(t, q.Enqueue(ctx, payload{Key: "a"}))
	require.NoError(t, q.Enqueue(ctx, payload{Key: "b"}))

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, length)

	items, err := q.DequeueBatch(ctx, 10, 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, items, 2)

	var first payload
	require.NoError(t, json.Unmarshal(items[0].(json.RawMessage), &first))
	assert.Equal(t, "a", first.Key, "FIFO order")
}

func TestRedisQueueBatchLimit(t *testing.T) {
	client := newTestRedis(t)
	q := NewRedisQueue(client, DefaultConfig("test"))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(ctx, i))
	}

	items, err := q.DequeueBatch(ctx, 2, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	length, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, length)
}

func TestRedisDeadLetterQueue(t *testing.T) {
	client := newTestRedis(t)
	dlq := NewRedisDeadLetterQueue(client, DefaultConfig("test"))

	ctx := context.Background()
	require.NoError(t, dlq.Add(ctx, map[string]string{"k": "v"}, errors.New("boom")))

	items, err := dlq.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "boom", items[0].Error)

	require.NoError(t, dlq.Remove(ctx, items[0].ID))

	err = dlq.Remove(ctx, items[0].ID)
	assert.True(t, errors.Is(err, ErrItemNotFound))
}
