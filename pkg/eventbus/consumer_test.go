package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickReader hands out one message every interval until its context ends.
type tickReader struct {
	interval time.Duration

	mu        sync.Mutex
	offset    int64
	committed []int64
}

func (r *tickReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-time.After(r.interval):
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offset++
	return kafka.Message{Topic: "orders", Offset: r.offset}, nil
}

func (r *tickReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *tickReader) Close() error { return nil }

func newTestGroup(r reader, cfg ConsumerConfig) *ConsumerGroup {
	cfg.setDefaults()
	return &ConsumerGroup{r: r, cfg: cfg}
}

func TestFetchLoop_WindowStartsAtFirstMessage(t *testing.T) {
	// messages arrive faster than the window, so no single fetch ever times out
	cg := newTestGroup(&tickReader{interval: 20 * time.Millisecond}, ConsumerConfig{
		Topic:        "orders",
		BatchSize:    1000,
		BatchTimeout: 100 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches := make(chan []kafka.Message, 1)
	go cg.fetchLoop(ctx, batches)

	select {
	case batch := <-batches:
		assert.NotEmpty(t, batch)
		assert.Less(t, len(batch), 20)
	case <-time.After(2 * time.Second):
		t.Fatal("batch window never closed")
	}
}

func TestFetchLoop_FlushesOnBatchSize(t *testing.T) {
	cg := newTestGroup(&tickReader{interval: time.Millisecond}, ConsumerConfig{
		Topic:        "orders",
		BatchSize:    3,
		BatchTimeout: time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches := make(chan []kafka.Message, 1)
	go cg.fetchLoop(ctx, batches)

	select {
	case batch := <-batches:
		require.Len(t, batch, 3)
		assert.Equal(t, int64(1), batch[0].Offset)
	case <-time.After(2 * time.Second):
		t.Fatal("full batch was not flushed")
	}
}

func TestHandle_CommitsAfterSuccess(t *testing.T) {
	r := &tickReader{}
	cg := newTestGroup(r, ConsumerConfig{Topic: "orders"})

	var got []Message
	ok := cg.handle(context.Background(), func(_ context.Context, batch []Message) error {
		got = batch
		return nil
	}, []kafka.Message{{Offset: 7}, {Offset: 8}})

	assert.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, []int64{7, 8}, r.committed)
}

func TestHandle_RetriesThenCommits(t *testing.T) {
	r := &tickReader{}
	cg := newTestGroup(r, ConsumerConfig{
		Topic:      "trades",
		MaxRetries: 2,
		BackoffMin: time.Millisecond,
		BackoffMax: 2 * time.Millisecond,
	})

	calls := 0
	ok := cg.handle(context.Background(), func(context.Context, []Message) error {
		calls++
		return errors.New("db down")
	}, []kafka.Message{{Offset: 1}})

	assert.True(t, ok)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int64{1}, r.committed)
}

func TestHandle_StopsWhenContextEnds(t *testing.T) {
	r := &tickReader{}
	cg := newTestGroup(r, ConsumerConfig{
		Topic:      "trades",
		MaxRetries: 5,
		BackoffMin: time.Second,
		BackoffMax: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	ok := cg.handle(ctx, func(context.Context, []Message) error {
		cancel()
		return errors.New("fail")
	}, []kafka.Message{{Offset: 1}})

	assert.False(t, ok)
	assert.Empty(t, r.committed)
}
