package depthcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/joripage/matchcore/pkg/orderbook"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "depth:"
	defaultTTL = time.Minute
)

var ErrDepthNotFound = errors.New("depth snapshot not found")

// Client is the subset of *redis.Client the store needs.
type Client interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Store keeps the latest L2 snapshot of each symbol in Redis.
type Store struct {
	client Client
	ttl    time.Duration
}

// NewStore returns a store writing with ttl. A non-positive ttl uses one minute.
func NewStore(client Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

func Key(symbol string) string {
	return keyPrefix + symbol
}

func (s *Store) Put(ctx context.Context, depth orderbook.Depth) error {
	b, err := json.Marshal(depth)
	if err != nil {
		return fmt.Errorf("encode depth %s: %w", depth.Symbol, err)
	}
	if err := s.client.Set(ctx, Key(depth.Symbol), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("set depth %s: %w", depth.Symbol, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, symbol string) (orderbook.Depth, error) {
	raw, err := s.client.Get(ctx, Key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return orderbook.Depth{}, fmt.Errorf("%w: %s", ErrDepthNotFound, symbol)
	}
	if err != nil {
		return orderbook.Depth{}, fmt.Errorf("get depth %s: %w", symbol, err)
	}

	var depth orderbook.Depth
	if err := json.Unmarshal(raw, &depth); err != nil {
		return orderbook.Depth{}, fmt.Errorf("decode depth %s: %w", symbol, err)
	}
	return depth, nil
}
