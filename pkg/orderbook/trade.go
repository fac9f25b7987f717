package orderbook

import (
	"time"

	"github.com/google/uuid"
)

// Trade records one match between a resting maker and an incoming taker.
type Trade struct {
	ID           string    `json:"trade_id"`
	Symbol       string    `json:"symbol"`
	Price        int64     `json:"price"`
	Qty          int64     `json:"qty"`
	MakerOrderID string    `json:"maker_order_id"`
	TakerOrderID string    `json:"taker_order_id"`
	TakerSide    Side      `json:"taker_side"`
	Timestamp    time.Time `json:"ts"`
}

func newTrade(symbol string, price, qty int64, maker, taker *Order) Trade {
	return Trade{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		Price:        price,
		Qty:          qty,
		MakerOrderID: maker.ID,
		TakerOrderID: taker.ID,
		TakerSide:    taker.Side,
		Timestamp:    time.Now(),
	}
}

// BuyOrderID returns the id of the buying side of the trade.
func (t Trade) BuyOrderID() string {
	if t.TakerSide == BUY {
		return t.TakerOrderID
	}
	return t.MakerOrderID
}

func (t Trade) SellOrderID() string {
	if t.TakerSide == SELL {
		return t.TakerOrderID
	}
	return t.MakerOrderID
}
