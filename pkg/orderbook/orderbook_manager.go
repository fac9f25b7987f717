package orderbook

import (
	"context"
	"sort"
	"sync"

	"github.com/joripage/matchcore/pkg/logging"
	"go.uber.org/zap"
)

type OrderBookManagerConfig struct {
	Symbols    []string // books created up front
	AutoCreate bool     // create a book on the first order for an unknown symbol
}

// TradeCallback receives the trades of one Submit call. It runs inside the
// symbol's lane, so callbacks for one symbol observe trades in order.
type TradeCallback func(ctx context.Context, trades []Trade)

// lane owns one book. Every match and cancel for the symbol holds mu for the
// whole call.
type lane struct {
	mu   sync.Mutex
	book *OrderBook
}

type OrderBookManager struct {
	books     sync.Map // symbol -> *lane
	cbMu      sync.RWMutex
	callbacks []TradeCallback
	cfg       *OrderBookManagerConfig
	logger    *logging.Logger
}

func NewOrderBookManager(cfg *OrderBookManagerConfig, logger *logging.Logger) *OrderBookManager {
	if cfg == nil {
		cfg = &OrderBookManagerConfig{AutoCreate: true}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &OrderBookManager{
		books:  sync.Map{},
		cfg:    cfg,
		logger: logger,
	}
	for _, symbol := range cfg.Symbols {
		s.books.LoadOrStore(symbol, &lane{book: NewOrderBook(symbol)})
	}
	return s
}

// Submit matches order against its symbol's book. Unknown symbols are
// rejected unless AutoCreate is set. The returned Order is a copy taken under
// the lane, so callers can read its state while later orders keep matching.
func (s *OrderBookManager) Submit(ctx context.Context, order *Order) ([]Trade, Order) {
	logger := logging.FromContext(ctx, s.logger)
	l, ok := s.getLane(order.Symbol)
	if !ok {
		order.reject()
		logger.Warn(ctx, "order rejected: unknown symbol",
			zap.String("order_id", order.ID),
			zap.String("symbol", order.Symbol))
		return nil, *order
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	trades := Match(l.book, order)

	fields := []zap.Field{
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.String("status", string(order.status)),
		zap.Int64("remaining", order.remaining),
		zap.Int("trades", len(trades)),
	}
	if order.status == REJECTED {
		logger.Warn(ctx, "order rejected", fields...)
	} else {
		logger.Debug(ctx, "order processed", fields...)
	}

	if len(trades) > 0 {
		s.cbMu.RLock()
		for _, cb := range s.callbacks {
			cb(ctx, trades)
		}
		s.cbMu.RUnlock()
	}
	return trades, *order
}

func (s *OrderBookManager) Cancel(ctx context.Context, symbol, orderID string) bool {
	l, ok := s.lookupLane(symbol)
	if !ok {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	canceled := l.book.Cancel(orderID)
	logging.FromContext(ctx, s.logger).Debug(ctx, "cancel order",
		zap.String("order_id", orderID),
		zap.String("symbol", symbol),
		zap.Bool("canceled", canceled))
	return canceled
}

func (s *OrderBookManager) Snapshot(symbol string, depth int) (Depth, bool) {
	l, ok := s.lookupLane(symbol)
	if !ok {
		return Depth{}, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.book.SnapshotDepth(depth), true
}

// Order returns a copy of a rested order taken under the symbol's lane.
func (s *OrderBookManager) Order(symbol, orderID string) (Order, bool) {
	l, ok := s.lookupLane(symbol)
	if !ok {
		return Order{}, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.book.Order(orderID)
	if !ok {
		return Order{}, false
	}
	return *o, true
}

func (s *OrderBookManager) Symbols() []string {
	var symbols []string
	s.books.Range(func(k, _ any) bool {
		symbols = append(symbols, k.(string))
		return true
	})
	sort.Strings(symbols)
	return symbols
}

func (s *OrderBookManager) RegisterTradeCallback(cb TradeCallback) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

func (s *OrderBookManager) lookupLane(symbol string) (*lane, bool) {
	if val, ok := s.books.Load(symbol); ok {
		return val.(*lane), true
	}
	return nil, false
}

func (s *OrderBookManager) getLane(symbol string) (*lane, bool) {
	if l, ok := s.lookupLane(symbol); ok {
		return l, true
	}
	if !s.cfg.AutoCreate || symbol == "" {
		return nil, false
	}

	actual, loaded := s.books.LoadOrStore(symbol, &lane{book: NewOrderBook(symbol)})
	if !loaded {
		s.logger.Info(context.Background(), "order book created", zap.String("symbol", symbol))
	}
	return actual.(*lane), true
}
