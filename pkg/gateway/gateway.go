package gateway

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/joripage/matchcore/pkg/eventbus"
	"github.com/joripage/matchcore/pkg/logging"
	"github.com/joripage/matchcore/pkg/orderbook"
	"go.uber.org/zap"
)

const requestIDHeader = "request_id"

// Publisher is the outbound side of the event bus.
type Publisher interface {
	PublishBatch(ctx context.Context, msgs []eventbus.Message) error
}

// DepthPublisher receives the latest L2 snapshot of every symbol a batch touched.
type DepthPublisher interface {
	Put(ctx context.Context, depth orderbook.Depth) error
}

type Config struct {
	TradeTopic    string
	ReportTopic   string
	SnapshotDepth int
}

// Gateway feeds order commands into the matching lanes and fans out the
// results. It adds nothing to the matching semantics.
type Gateway struct {
	cfg       Config
	manager   *orderbook.OrderBookManager
	publisher Publisher
	depth     DepthPublisher
	logger    *logging.Logger
}

// New wires a gateway. depth may be nil when no depth cache is configured.
func New(cfg Config, manager *orderbook.OrderBookManager, publisher Publisher, depth DepthPublisher, logger *logging.Logger) *Gateway {
	if cfg.SnapshotDepth <= 0 {
		cfg.SnapshotDepth = 10
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Gateway{
		cfg:       cfg,
		manager:   manager,
		publisher: publisher,
		depth:     depth,
		logger:    logger,
	}
}

// HandleBatch processes commands in order. Bad commands are reported and
// skipped; matching is never re-run, so publish failures are logged rather than
// returned to the consumer for a retry.
func (g *Gateway) HandleBatch(ctx context.Context, batch []eventbus.Message) error {
	var out []eventbus.Message
	touched := map[string]struct{}{}

	for _, m := range batch {
		msgCtx := logging.WithRequestID(ctx, m.Headers[requestIDHeader])
		msgCtx = logging.IntoContext(msgCtx, g.logger.With(
			zap.String("topic", m.Topic),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset)))
		msgs, symbol := g.handleMessage(msgCtx, m)
		out = append(out, msgs...)
		if symbol != "" {
			touched[symbol] = struct{}{}
		}
	}

	if len(out) > 0 && g.publisher != nil {
		if err := g.publisher.PublishBatch(ctx, out); err != nil {
			g.logger.Error(ctx, "publish results failed", zap.Int("messages", len(out)), zap.Error(err))
		}
	}

	g.publishDepth(ctx, touched)
	return nil
}

func (g *Gateway) handleMessage(ctx context.Context, m eventbus.Message) ([]eventbus.Message, string) {
	cmd, err := DecodeOrderCommand(m.Value)
	if err != nil {
		logging.FromContext(ctx, g.logger).Warn(ctx, "drop order command", zap.Error(err))
		return nil, ""
	}

	switch cmd.Action {
	case ActionCancel:
		return g.handleCancel(ctx, cmd), cmd.Symbol
	default:
		return g.handleNew(ctx, cmd), cmd.Symbol
	}
}

func (g *Gateway) handleNew(ctx context.Context, cmd *OrderCommand) []eventbus.Message {
	order, err := cmd.ToOrder()
	if err != nil {
		logging.FromContext(ctx, g.logger).Info(ctx, "order construction failed",
			zap.String("order_id", cmd.OrderID),
			zap.String("client_order_id", cmd.ClientOrderID),
			zap.Error(err))
		return g.reportMessages(OrderReport{
			OrderID:       cmd.OrderID,
			ClientOrderID: cmd.ClientOrderID,
			Symbol:        cmd.Symbol,
			Action:        ActionNew,
			Status:        orderbook.REJECTED,
			Reason:        err.Error(),
		})
	}

	trades, result := g.manager.Submit(ctx, order)

	msgs := make([]eventbus.Message, 0, len(trades)+1)
	for _, t := range trades {
		msgs = append(msgs, g.encode(g.cfg.TradeTopic, t.Symbol, NewTradeEvent(t))...)
	}

	report := newOrderReport(ActionNew, &result)
	if result.Status() == orderbook.REJECTED {
		report.Reason = "rejected by matching engine"
	}
	return append(msgs, g.reportMessages(report)...)
}

func (g *Gateway) handleCancel(ctx context.Context, cmd *OrderCommand) []eventbus.Message {
	if g.manager.Cancel(ctx, cmd.Symbol, cmd.OrderID) {
		if o, ok := g.manager.Order(cmd.Symbol, cmd.OrderID); ok {
			return g.reportMessages(newOrderReport(ActionCancel, &o))
		}
	}

	report := OrderReport{
		OrderID:       cmd.OrderID,
		ClientOrderID: cmd.ClientOrderID,
		Symbol:        cmd.Symbol,
		Action:        ActionCancel,
		Reason:        "order is not live",
	}
	if o, ok := g.manager.Order(cmd.Symbol, cmd.OrderID); ok {
		report.Status = o.Status()
		report.Remaining = o.Remaining()
		report.Filled = o.Filled()
	}
	return g.reportMessages(report)
}

func (g *Gateway) reportMessages(r OrderReport) []eventbus.Message {
	if g.cfg.ReportTopic == "" {
		return nil
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	return g.encode(g.cfg.ReportTopic, r.Symbol, r)
}

func (g *Gateway) encode(topic, key string, v any) []eventbus.Message {
	if topic == "" {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		g.logger.Error(context.Background(), "encode event", zap.String("topic", topic), zap.Error(err))
		return nil
	}
	return []eventbus.Message{{Topic: topic, Key: []byte(key), Value: b}}
}

func (g *Gateway) publishDepth(ctx context.Context, touched map[string]struct{}) {
	if g.depth == nil {
		return
	}
	symbols := make([]string, 0, len(touched))
	for s := range touched {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	for _, s := range symbols {
		depth, ok := g.manager.Snapshot(s, g.cfg.SnapshotDepth)
		if !ok {
			continue
		}
		if err := g.depth.Put(ctx, depth); err != nil {
			g.logger.Warn(ctx, "publish depth failed", zap.String("symbol", s), zap.Error(err))
		}
	}
}
