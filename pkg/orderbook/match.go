package orderbook

// Match crosses taker against book under price-time priority and returns the
// trades in execution order. Makers trade at their resting price. Whatever is
// left of a limit taker rests in the book afterwards.
//
// Rejections are reported through the taker's status (REJECTED) with no
// trades; Match itself never fails. Only NEW orders are taken; any other order
// is returned untouched with no trades.
func Match(book *OrderBook, taker *Order) []Trade {
	var trades []Trade

	if taker.status != NEW {
		return trades
	}
	if taker.Symbol != book.symbol {
		taker.reject()
		return trades
	}
	// only limit orders are matched for now
	if taker.Type != LIMIT {
		taker.reject()
		return trades
	}
	if _, seen := book.orders[taker.ID]; seen {
		taker.reject()
		return trades
	}

	counterSide := taker.Side.Opposite()

	for taker.remaining > 0 {
		bestPrice, ok := book.BestPrice(counterSide)
		if !ok || !crosses(taker, bestPrice) {
			break
		}

		maker, ok := book.BestResting(counterSide)
		if !ok {
			break
		}
		// stale levels may have been reaped above
		if !crosses(taker, maker.Price) {
			break
		}

		qty := min(taker.remaining, maker.remaining)
		maker.fill(qty)
		taker.fill(qty)

		trades = append(trades, newTrade(book.symbol, maker.Price, qty, maker, taker))
	}

	if taker.remaining > 0 {
		// cannot fail: symbol, type and id were checked above
		_ = book.AddRestingLimit(taker)
	}

	return trades
}

// crosses reports whether taker's limit allows execution at price.
func crosses(taker *Order, price int64) bool {
	if taker.Side == BUY {
		return price <= taker.Price
	}
	return price >= taker.Price
}
