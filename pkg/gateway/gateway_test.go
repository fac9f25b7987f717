package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/joripage/matchcore/pkg/eventbus"
	"github.com/joripage/matchcore/pkg/logging"
	"github.com/joripage/matchcore/pkg/orderbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakePublisher struct {
	msgs []eventbus.Message
	err  error
}

func (f *fakePublisher) PublishBatch(_ context.Context, msgs []eventbus.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakePublisher) topic(topic string) []eventbus.Message {
	var out []eventbus.Message
	for _, m := range f.msgs {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

type fakeDepth struct {
	got map[string]orderbook.Depth
}

func (f *fakeDepth) Put(_ context.Context, d orderbook.Depth) error {
	if f.got == nil {
		f.got = map[string]orderbook.Depth{}
	}
	f.got[d.Symbol] = d
	return nil
}

func newTestGateway(symbols ...string) (*Gateway, *fakePublisher, *fakeDepth) {
	m := orderbook.NewOrderBookManager(&orderbook.OrderBookManagerConfig{Symbols: symbols}, nil)
	pub := &fakePublisher{}
	depth := &fakeDepth{}
	g := New(Config{TradeTopic: "trades", ReportTopic: "reports", SnapshotDepth: 5}, m, pub, depth, nil)
	return g, pub, depth
}

func cmdMessage(t *testing.T, cmd OrderCommand) eventbus.Message {
	t.Helper()
	b, err := json.Marshal(cmd)
	require.NoError(t, err)
	return eventbus.Message{Topic: "orders", Value: b}
}

func decodeReports(t *testing.T, msgs []eventbus.Message) []OrderReport {
	t.Helper()
	out := make([]OrderReport, len(msgs))
	for i, m := range msgs {
		require.NoError(t, json.Unmarshal(m.Value, &out[i]))
	}
	return out
}

func TestHandleBatch_MatchFlow(t *testing.T) {
	g, pub, depth := newTestGateway("AAPL")

	err := g.HandleBatch(context.Background(), []eventbus.Message{
		cmdMessage(t, OrderCommand{Action: ActionNew, OrderID: "S1", UserID: "u2", Symbol: "AAPL", Side: "sell", Type: "limit", Qty: 10, Price: "187.60"}),
		cmdMessage(t, OrderCommand{Action: ActionNew, OrderID: "B1", UserID: "u1", Symbol: "AAPL", Side: "BUY", Type: "LIMIT", Qty: 5, Price: "187.60"}),
	})
	require.NoError(t, err)

	trades := pub.topic("trades")
	require.Len(t, trades, 1)
	assert.Equal(t, []byte("AAPL"), trades[0].Key)

	var ev TradeEvent
	require.NoError(t, json.Unmarshal(trades[0].Value, &ev))
	assert.Equal(t, int64(18760), ev.Price)
	assert.Equal(t, "187.60", ev.PriceText)
	assert.Equal(t, int64(5), ev.Qty)
	assert.Equal(t, "S1", ev.MakerOrderID)
	assert.Equal(t, "B1", ev.TakerOrderID)
	assert.Equal(t, orderbook.BUY, ev.TakerSide)

	reports := decodeReports(t, pub.topic("reports"))
	require.Len(t, reports, 2)
	assert.Equal(t, orderbook.RESTING, reports[0].Status)
	assert.Equal(t, orderbook.FILLED, reports[1].Status)
	assert.Equal(t, int64(5), reports[1].Filled)

	require.Contains(t, depth.got, "AAPL")
	assert.Equal(t, []orderbook.Level{{Price: 18760, Qty: 5}}, depth.got["AAPL"].Asks)
}

func TestHandleBatch_Rejections(t *testing.T) {
	g, pub, _ := newTestGateway("AAPL")

	err := g.HandleBatch(context.Background(), []eventbus.Message{
		{Topic: "orders", Value: []byte("not json")},
		cmdMessage(t, OrderCommand{Action: "amend", Symbol: "AAPL"}),
		cmdMessage(t, OrderCommand{Action: ActionNew, OrderID: "Q0", Symbol: "AAPL", Side: "BUY", Type: "LIMIT", Qty: 0, Price: "1"}),
		cmdMessage(t, OrderCommand{Action: ActionNew, OrderID: "M1", Symbol: "AAPL", Side: "BUY", Type: "MARKET", Qty: 5}),
		cmdMessage(t, OrderCommand{Action: ActionNew, OrderID: "X1", Symbol: "MSFT", Side: "BUY", Type: "LIMIT", Qty: 5, Price: "1"}),
	})
	require.NoError(t, err)

	assert.Empty(t, pub.topic("trades"))
	reports := decodeReports(t, pub.topic("reports"))
	require.Len(t, reports, 3)

	assert.Equal(t, "Q0", reports[0].OrderID)
	assert.Equal(t, orderbook.REJECTED, reports[0].Status)
	assert.Contains(t, reports[0].Reason, "quantity")

	assert.Equal(t, "M1", reports[1].OrderID)
	assert.Equal(t, orderbook.REJECTED, reports[1].Status)

	assert.Equal(t, "X1", reports[2].OrderID)
	assert.Equal(t, orderbook.REJECTED, reports[2].Status)
}

func TestHandleBatch_Cancel(t *testing.T) {
	g, pub, depth := newTestGateway("AAPL")
	ctx := context.Background()

	require.NoError(t, g.HandleBatch(ctx, []eventbus.Message{
		cmdMessage(t, OrderCommand{Action: ActionNew, OrderID: "B1", Symbol: "AAPL", Side: "BUY", Type: "LIMIT", Qty: 5, Price: "1.00"}),
		cmdMessage(t, OrderCommand{Action: ActionCancel, OrderID: "B1", Symbol: "AAPL"}),
		cmdMessage(t, OrderCommand{Action: ActionCancel, OrderID: "B1", Symbol: "AAPL"}),
	}))

	reports := decodeReports(t, pub.topic("reports"))
	require.Len(t, reports, 3)
	assert.Equal(t, orderbook.CANCELED, reports[1].Status)
	assert.Empty(t, reports[1].Reason)
	assert.Equal(t, orderbook.CANCELED, reports[2].Status)
	assert.Equal(t, "order is not live", reports[2].Reason)

	assert.Equal(t, []orderbook.Level{{Price: 100, Qty: 0}}, depth.got["AAPL"].Bids)
}

func TestHandleBatch_PublishErrorIsNotRetried(t *testing.T) {
	g, pub, _ := newTestGateway("AAPL")
	pub.err = errors.New("broker down")

	err := g.HandleBatch(context.Background(), []eventbus.Message{
		cmdMessage(t, OrderCommand{Action: ActionNew, OrderID: "B1", Symbol: "AAPL", Side: "BUY", Type: "LIMIT", Qty: 5, Price: "1.00"}),
	})
	assert.NoError(t, err)
}

func TestDecodeOrderCommand(t *testing.T) {
	_, err := DecodeOrderCommand([]byte(`{"action":"cancel","symbol":"AAPL"}`))
	assert.ErrorIs(t, err, errMalformedCommand)

	_, err = DecodeOrderCommand([]byte(`{"action":"new"}`))
	assert.ErrorIs(t, err, errMalformedCommand)

	_, err = DecodeOrderCommand([]byte(`{"action":"replace","symbol":"AAPL"}`))
	assert.ErrorIs(t, err, errUnknownAction)

	cmd, err := DecodeOrderCommand([]byte(`{"action":" NEW ","symbol":"AAPL","side":"buy","type":"limit","qty":3,"price":"1.00"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionNew, cmd.Action)

	o, err := cmd.ToOrder()
	require.NoError(t, err)
	assert.Equal(t, orderbook.BUY, o.Side)
	assert.Equal(t, int64(100), o.Price)
}

func TestOrderCommand_ToOrder(t *testing.T) {
	_, err := (&OrderCommand{Symbol: "AAPL", Side: "BUY", Type: "MARKET", Qty: 1, Price: "1.00"}).ToOrder()
	assert.ErrorIs(t, err, orderbook.ErrUnexpectedPrice)

	_, err = (&OrderCommand{Symbol: "AAPL", Side: "BUY", Type: "LIMIT", Qty: 1}).ToOrder()
	assert.ErrorIs(t, err, orderbook.ErrMissingPrice)

	_, err = (&OrderCommand{Symbol: "AAPL", Side: "BUY", Type: "LIMIT", Qty: 1, Price: "1.005"}).ToOrder()
	assert.ErrorIs(t, err, orderbook.ErrInvalidPrice)

	o, err := (&OrderCommand{Symbol: "AAPL", Side: "sell", Type: "market", Qty: 2, ClientOrderID: "c-9"}).ToOrder()
	require.NoError(t, err)
	assert.Equal(t, orderbook.MARKET, o.Type)
	assert.Equal(t, "c-9", o.ClientOrderID)
	assert.NotEmpty(t, o.ID)
}

func TestHandleBatch_ManagerLogsCarryMessagePosition(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := orderbook.NewOrderBookManager(&orderbook.OrderBookManagerConfig{Symbols: []string{"AAPL"}}, nil)
	g := New(Config{ReportTopic: "reports"}, m, &fakePublisher{}, nil, logging.New(zap.New(core)))

	msg := cmdMessage(t, OrderCommand{Action: ActionNew, OrderID: "B1", Symbol: "AAPL", Side: "BUY", Type: "LIMIT", Qty: 5, Price: "1.00"})
	msg.Partition, msg.Offset = 2, 42
	msg.Headers = map[string]string{"request_id": "req-7"}
	require.NoError(t, g.HandleBatch(context.Background(), []eventbus.Message{msg}))

	// the manager has a nop logger of its own, so this entry came through the context
	entries := logs.FilterMessage("order processed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(42), fields["offset"])
	assert.Equal(t, int64(2), fields["partition"])
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "B1", fields["order_id"])
}
