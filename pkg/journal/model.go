package journal

import (
	"time"

	"github.com/joripage/matchcore/pkg/gateway"
	"github.com/joripage/matchcore/pkg/orderbook"
)

type TradeRecord struct {
	TradeID      string    `gorm:"column:trade_id;primaryKey"`
	Symbol       string    `gorm:"column:symbol"`
	Price        int64     `gorm:"column:price"`
	Qty          int64     `gorm:"column:qty"`
	BuyOrderID   string    `gorm:"column:buy_order_id"`
	SellOrderID  string    `gorm:"column:sell_order_id"`
	MakerOrderID string    `gorm:"column:maker_order_id"`
	TakerOrderID string    `gorm:"column:taker_order_id"`
	TakerSide    string    `gorm:"column:taker_side"`
	ExecutedAt   time.Time `gorm:"column:executed_at"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (TradeRecord) TableName() string {
	return "trades"
}

func FromTradeEvent(ev gateway.TradeEvent) *TradeRecord {
	r := &TradeRecord{
		TradeID:      ev.TradeID,
		Symbol:       ev.Symbol,
		Price:        ev.Price,
		Qty:          ev.Qty,
		MakerOrderID: ev.MakerOrderID,
		TakerOrderID: ev.TakerOrderID,
		TakerSide:    string(ev.TakerSide),
		ExecutedAt:   ev.Timestamp,
	}
	if ev.TakerSide == orderbook.BUY {
		r.BuyOrderID, r.SellOrderID = ev.TakerOrderID, ev.MakerOrderID
	} else {
		r.BuyOrderID, r.SellOrderID = ev.MakerOrderID, ev.TakerOrderID
	}
	return r
}
