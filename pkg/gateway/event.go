package gateway

import (
	"time"

	"github.com/joripage/matchcore/pkg/orderbook"
)

// TradeEvent is published on the trade topic for every trade, keyed by symbol.
type TradeEvent struct {
	TradeID      string         `json:"trade_id"`
	Symbol       string         `json:"symbol"`
	Price        int64          `json:"price"`
	PriceText    string         `json:"price_text"`
	Qty          int64          `json:"qty"`
	MakerOrderID string         `json:"maker_order_id"`
	TakerOrderID string         `json:"taker_order_id"`
	TakerSide    orderbook.Side `json:"taker_side"`
	Timestamp    time.Time      `json:"ts"`
}

func NewTradeEvent(t orderbook.Trade) TradeEvent {
	return TradeEvent{
		TradeID:      t.ID,
		Symbol:       t.Symbol,
		Price:        t.Price,
		PriceText:    orderbook.FormatPrice(t.Price),
		Qty:          t.Qty,
		MakerOrderID: t.MakerOrderID,
		TakerOrderID: t.TakerOrderID,
		TakerSide:    t.TakerSide,
		Timestamp:    t.Timestamp,
	}
}

// OrderReport tells the submitter what became of a command.
type OrderReport struct {
	OrderID       string                `json:"order_id,omitempty"`
	ClientOrderID string                `json:"client_order_id,omitempty"`
	Symbol        string                `json:"symbol"`
	Action        Action                `json:"action"`
	Status        orderbook.OrderStatus `json:"status"`
	Remaining     int64                 `json:"remaining"`
	Filled        int64                 `json:"filled"`
	Reason        string                `json:"reason,omitempty"`
	Timestamp     time.Time             `json:"ts"`
}

func newOrderReport(action Action, o *orderbook.Order) OrderReport {
	return OrderReport{
		OrderID:       o.ID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Action:        action,
		Status:        o.Status(),
		Remaining:     o.Remaining(),
		Filled:        o.Filled(),
		Timestamp:     time.Now(),
	}
}
