// Package eventbus carries order commands into the engine and trade events out
// of it over Kafka.
package eventbus

import (
	"context"
	"errors"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

var ErrNotInitialized = errors.New("eventbus: not initialized")

type ProducerConfig struct {
	Brokers      []string
	Balancer     kafka.Balancer
	BatchSize    int
	BatchBytes   int64
	BatchTimeout time.Duration
	RequiredAcks kafka.RequiredAcks
	Async        bool
}

func (cfg *ProducerConfig) setDefaults() {
	if cfg.Balancer == nil {
		cfg.Balancer = &kafka.Hash{}
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchBytes == 0 {
		cfg.BatchBytes = 1 << 20
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.RequiredAcks == 0 {
		cfg.RequiredAcks = kafka.RequireOne
	}
}

type Producer struct {
	w *kafka.Writer
}

func NewProducer(cfg ProducerConfig) *Producer {
	cfg.setDefaults()
	wr := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               cfg.Balancer,
		BatchSize:              cfg.BatchSize,
		BatchBytes:             cfg.BatchBytes,
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: true,
		RequiredAcks:           cfg.RequiredAcks,
		Async:                  cfg.Async,
	}
	return &Producer{w: wr}
}

// Publish writes one message. Messages sharing a key land on one partition and
// keep their relative order.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error {
	if p == nil || p.w == nil {
		return ErrNotInitialized
	}
	return p.w.WriteMessages(ctx, newMessage(topic, key, value, headers))
}

// PublishBatch writes msgs in one call, preserving their order.
func (p *Producer) PublishBatch(ctx context.Context, msgs []Message) error {
	if p == nil || p.w == nil {
		return ErrNotInitialized
	}
	if len(msgs) == 0 {
		return nil
	}
	out := make([]kafka.Message, len(msgs))
	for i, m := range msgs {
		out[i] = newMessage(m.Topic, m.Key, m.Value, m.Headers)
	}
	return p.w.WriteMessages(ctx, out...)
}

func (p *Producer) Close(ctx context.Context) error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}

func newMessage(topic string, key, value []byte, headers map[string]string) kafka.Message {
	var kh []kafka.Header
	for k, v := range headers {
		kh = append(kh, kafka.Header{Key: k, Value: []byte(v)})
	}
	return kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Headers: kh,
		Time:    time.Now(),
	}
}
