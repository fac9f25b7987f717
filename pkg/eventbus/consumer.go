package eventbus

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Time      time.Time
	Headers   map[string]string
}

// Handler processes one batch. Returning an error retries the whole batch.
type Handler func(ctx context.Context, batch []Message) error

type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	Topic       string
	WorkerCount int
	MaxRetries  int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	// Batch options
	BatchSize    int
	BatchTimeout time.Duration
}

func (cfg *ConsumerConfig) setDefaults() {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffMin == 0 {
		cfg.BackoffMin = 100 * time.Millisecond
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = 10 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 200 * time.Millisecond
	}
}

// reader is the part of *kafka.Reader the consumer group drives.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ConsumerGroup struct {
	r          reader
	cfg        ConsumerConfig
	prodForDLQ *Producer
}

func NewConsumerGroup(cfg ConsumerConfig) (*ConsumerGroup, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, fmt.Errorf("eventbus: brokers, topic and group id are required")
	}
	cfg.setDefaults()

	rd := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.FirstOffset,
		MaxWait:     500 * time.Millisecond,
		MinBytes:    1,
		MaxBytes:    10 << 20,
	})

	var prod *Producer
	if cfg.DLQTopic != "" {
		prod = NewProducer(ProducerConfig{Brokers: cfg.Brokers})
	}

	return &ConsumerGroup{r: rd, cfg: cfg, prodForDLQ: prod}, nil
}

func (cg *ConsumerGroup) Close() error {
	if cg == nil {
		return nil
	}
	if cg.prodForDLQ != nil {
		_ = cg.prodForDLQ.Close(context.Background())
	}
	if cg.r != nil {
		return cg.r.Close()
	}
	return nil
}

// Run fetches messages, groups them into batches of at most BatchSize (or
// whatever arrived within BatchTimeout) and hands them to handler on
// WorkerCount workers. Offsets are committed once a batch succeeds or has been
// moved to the DLQ. With WorkerCount 1 batches are handled in fetch order.
func (cg *ConsumerGroup) Run(ctx context.Context, handler Handler) error {
	if cg == nil || cg.r == nil {
		return ErrNotInitialized
	}

	batches := make(chan []kafka.Message, cg.cfg.WorkerCount)

	go cg.fetchLoop(ctx, batches)

	done := make(chan struct{}, cg.cfg.WorkerCount)
	for i := 0; i < cg.cfg.WorkerCount; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for ms := range batches {
				if !cg.handle(ctx, handler, ms) {
					return
				}
			}
		}()
	}

	var workerExited int
	for {
		select {
		case <-done:
			workerExited++
			if workerExited == cg.cfg.WorkerCount {
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// fetchLoop buffers messages and flushes when BatchSize is reached or
// BatchTimeout has passed since the first buffered message.
func (cg *ConsumerGroup) fetchLoop(ctx context.Context, batches chan<- []kafka.Message) {
	defer close(batches)

	var buf []kafka.Message
	var deadline time.Time
	flush := func() bool {
		if len(buf) == 0 {
			return true
		}
		select {
		case batches <- buf:
			buf = nil
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		var fetchCtx context.Context
		var cancel context.CancelFunc
		if len(buf) > 0 {
			fetchCtx, cancel = context.WithDeadline(ctx, deadline)
		} else {
			fetchCtx, cancel = context.WithCancel(ctx)
		}
		m, err := cg.r.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				// batch window closed
				if !flush() {
					return
				}
				continue
			}
			zap.S().Warnf("eventbus: fetch from %s failed: %v", cg.cfg.Topic, err)
			time.Sleep(200 * time.Millisecond)
			continue
		}

		if len(buf) == 0 {
			deadline = time.Now().Add(cg.cfg.BatchTimeout)
		}
		buf = append(buf, m)
		if len(buf) >= cg.cfg.BatchSize || !time.Now().Before(deadline) {
			if !flush() {
				return
			}
		}
	}
}

// handle runs one batch to completion. It returns false when ctx is done.
func (cg *ConsumerGroup) handle(ctx context.Context, handler Handler, ms []kafka.Message) bool {
	wrapped := make([]Message, len(ms))
	for i, m := range ms {
		wrapped[i] = wrapMessage(m)
	}

	var attempt int
	for {
		err := handler(ctx, wrapped)
		if err == nil {
			cg.commit(ctx, ms)
			return true
		}
		attempt++
		if attempt > cg.cfg.MaxRetries {
			zap.S().Errorf("eventbus: batch of %d from %s failed after %d attempts: %v", len(ms), cg.cfg.Topic, attempt, err)
			if cg.prodForDLQ != nil {
				for _, m := range ms {
					if err := cg.prodForDLQ.Publish(ctx, cg.cfg.DLQTopic, m.Key, m.Value, headersToMap(m.Headers)); err != nil {
						zap.S().Errorf("eventbus: publish to dlq %s: %v", cg.cfg.DLQTopic, err)
					}
				}
			}
			cg.commit(ctx, ms)
			return true
		}
		select {
		case <-time.After(backoffDuration(cg.cfg.BackoffMin, cg.cfg.BackoffMax, attempt)):
		case <-ctx.Done():
			return false
		}
	}
}

func (cg *ConsumerGroup) commit(ctx context.Context, ms []kafka.Message) {
	if err := cg.r.CommitMessages(ctx, ms...); err != nil {
		zap.S().Warnf("eventbus: commit %d messages on %s: %v", len(ms), cg.cfg.Topic, err)
	}
}

func wrapMessage(m kafka.Message) Message {
	return Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Time:      m.Time,
		Headers:   headersToMap(m.Headers),
	}
}

func headersToMap(hs []kafka.Header) map[string]string {
	out := map[string]string{}
	for _, h := range hs {
		out[h.Key] = string(h.Value)
	}
	return out
}

// backoffDuration is full-jitter exponential backoff capped at max.
func backoffDuration(min, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	pow := math.Pow(2, float64(attempt-1))
	d := time.Duration(float64(min) * pow)
	if d > max || d <= 0 {
		d = max
	}
	if d > 0 {
		d = time.Duration(rand.Int63n(int64(d)))
	}
	return d
}
