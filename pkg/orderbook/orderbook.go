// file: pkg/orderbook/orderbook.go

package orderbook

import (
	"container/heap"
	"fmt"

	"github.com/gammazero/deque"
)

// bookSide holds one side of the ladder. Queues carry order ids only; the
// orders themselves live in OrderBook.orders.
type bookSide struct {
	levels map[int64]*deque.Deque[string]
	prices *PriceHeap
}

func newBookSide(prices *PriceHeap) *bookSide {
	return &bookSide{
		levels: make(map[int64]*deque.Deque[string]),
		prices: prices,
	}
}

// OrderBook is the per-symbol book. It is not safe for concurrent use; the
// OrderBookManager serializes access per symbol.
type OrderBook struct {
	symbol string

	orders map[string]*Order

	bids *bookSide
	asks *bookSide
}

func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		symbol: symbol,
		orders: make(map[string]*Order),
		bids:   newBookSide(newBidHeap()),
		asks:   newBookSide(newAskHeap()),
	}
}

func (ob *OrderBook) Symbol() string {
	return ob.symbol
}

// Order looks up any order that has ever rested in this book.
func (ob *OrderBook) Order(orderID string) (*Order, bool) {
	o, ok := ob.orders[orderID]
	return o, ok
}

// Len is the number of orders the book has ever accepted.
func (ob *OrderBook) Len() int {
	return len(ob.orders)
}

func (ob *OrderBook) side(s Side) *bookSide {
	if s == BUY {
		return ob.bids
	}
	return ob.asks
}

// AddRestingLimit appends order to the tail of its price queue and marks it
// RESTING.
func (ob *OrderBook) AddRestingLimit(order *Order) error {
	if order.Symbol != ob.symbol {
		return fmt.Errorf("%w: %s != %s", ErrSymbolMismatch, order.Symbol, ob.symbol)
	}
	if order.Type != LIMIT || order.Price <= 0 {
		return fmt.Errorf("%w: order %s", ErrNotRestable, order.ID)
	}
	if _, ok := ob.orders[order.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, order.ID)
	}

	ob.orders[order.ID] = order

	s := ob.side(order.Side)
	q := s.levels[order.Price]
	if q == nil {
		q = &deque.Deque[string]{}
		s.levels[order.Price] = q
	}
	if !s.prices.Contains(order.Price) {
		heap.Push(s.prices, order.Price)
	}
	q.PushBack(order.ID)

	order.status = RESTING
	return nil
}

func (ob *OrderBook) BestBid() (int64, bool) {
	return ob.bids.prices.Peek()
}

func (ob *OrderBook) BestAsk() (int64, bool) {
	return ob.asks.prices.Peek()
}

// BestPrice returns the best price resting on side s.
func (ob *OrderBook) BestPrice(s Side) (int64, bool) {
	return ob.side(s).prices.Peek()
}

// BestResting returns the eligible order at the head of the best level of
// side s without dequeuing it. Ineligible head entries are discarded on the
// way, and levels that run dry are dropped from the price index.
func (ob *OrderBook) BestResting(s Side) (*Order, bool) {
	bs := ob.side(s)
	for {
		price, ok := bs.prices.Peek()
		if !ok {
			return nil, false
		}

		if q := bs.levels[price]; q != nil {
			for q.Len() > 0 {
				o := ob.orders[q.Front()]
				if o != nil && o.eligible() {
					return o, true
				}
				q.PopFront()
			}
		}

		heap.Pop(bs.prices)
		delete(bs.levels, price)
	}
}

// Cancel withdraws a live order. The queue entry stays behind and is reaped
// by a later BestResting scan.
func (ob *OrderBook) Cancel(orderID string) bool {
	o, ok := ob.orders[orderID]
	if !ok || !o.eligible() {
		return false
	}
	o.cancel()
	return true
}

// Level is one aggregated price level of an L2 snapshot.
type Level struct {
	Price int64 `json:"price"`
	Qty   int64 `json:"qty"`
}

type Depth struct {
	Symbol string  `json:"symbol"`
	Bids   []Level `json:"bids"`
	Asks   []Level `json:"asks"`
}

// SnapshotDepth aggregates the first n indexed levels per side, best first,
// summing the remaining quantity of eligible orders. It reads the book only:
// a level holding nothing but stale entries is still indexed and reports 0.
func (ob *OrderBook) SnapshotDepth(n int) Depth {
	return Depth{
		Symbol: ob.symbol,
		Bids:   ob.snapshotSide(ob.bids, n),
		Asks:   ob.snapshotSide(ob.asks, n),
	}
}

func (ob *OrderBook) snapshotSide(bs *bookSide, n int) []Level {
	levels := []Level{}
	if n <= 0 {
		return levels
	}
	for _, price := range bs.prices.Sorted() {
		q := bs.levels[price]
		if q == nil {
			continue
		}
		var total int64
		for i := 0; i < q.Len(); i++ {
			if o := ob.orders[q.At(i)]; o != nil && o.eligible() {
				total += o.remaining
			}
		}
		levels = append(levels, Level{Price: price, Qty: total})
		if len(levels) == n {
			break
		}
	}
	return levels
}
