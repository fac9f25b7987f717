package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joripage/matchcore/pkg/orderbook"
)

func main() {
	var symbol string
	var depth int
	flag.StringVar(&symbol, "symbol", "AAPL", "Symbol of the demo book")
	flag.IntVar(&depth, "depth", 5, "Levels to print per side")
	flag.Parse()

	book := orderbook.NewOrderBook(symbol)

	sell, err := orderbook.NewOrder("seller", symbol, orderbook.SELL, orderbook.LIMIT, 10, orderbook.WithPrice(18760))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	buy, err := orderbook.NewOrder("buyer", symbol, orderbook.BUY, orderbook.LIMIT, 5, orderbook.WithPrice(18760))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, o := range []*orderbook.Order{sell, buy} {
		trades := orderbook.Match(book, o)
		fmt.Printf("submit %s\n", o)
		for _, t := range trades {
			fmt.Printf("  trade %s: %d @ %s buy=%s sell=%s\n",
				t.ID, t.Qty, orderbook.FormatPrice(t.Price), t.BuyOrderID(), t.SellOrderID())
		}
	}

	snap := book.SnapshotDepth(depth)
	fmt.Printf("\n%s depth\n", snap.Symbol)
	for _, l := range snap.Asks {
		fmt.Printf("  ASK %10s %d\n", orderbook.FormatPrice(l.Price), l.Qty)
	}
	for _, l := range snap.Bids {
		fmt.Printf("  BID %10s %d\n", orderbook.FormatPrice(l.Price), l.Qty)
	}
}
