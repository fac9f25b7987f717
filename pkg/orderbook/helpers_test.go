package orderbook

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testSymbol = "AAPL"

func limitOrder(t testing.TB, id string, side Side, qty, price int64) *Order {
	t.Helper()
	o, err := NewOrder("u-"+id, testSymbol, side, LIMIT, qty, WithPrice(price), WithOrderID(id))
	require.NoError(t, err)
	return o
}

// seed rests orders through the matcher, the only way orders enter a book.
func seed(t testing.TB, book *OrderBook, orders ...*Order) {
	t.Helper()
	for _, o := range orders {
		trades := Match(book, o)
		require.Empty(t, trades, "seed order %s crossed the book", o.ID)
		require.Equal(t, RESTING, o.Status())
	}
}

// liveLevels drops levels that only hold stale entries.
func liveLevels(levels []Level) []Level {
	out := []Level{}
	for _, l := range levels {
		if l.Qty > 0 {
			out = append(out, l)
		}
	}
	return out
}

func sumQty(trades []Trade) int64 {
	var total int64
	for _, tr := range trades {
		total += tr.Qty
	}
	return total
}
