package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/joripage/matchcore/pkg/orderbook"
)

const (
	minPrice = 10_000 // 100.00
	maxPrice = 20_000 // 200.00
	minQty   = 1
	maxQty   = 100
)

func randomOrder(rng *rand.Rand, id int, symbol string) *orderbook.Order {
	side := orderbook.BUY
	if rng.Intn(2) == 0 {
		side = orderbook.SELL
	}
	price := int64(minPrice + rng.Intn(maxPrice-minPrice+1))
	qty := int64(rng.Intn(maxQty-minQty+1) + minQty)

	o, err := orderbook.NewOrder("bench", symbol, side, orderbook.LIMIT, qty,
		orderbook.WithPrice(price),
		orderbook.WithOrderID(fmt.Sprintf("ORD-%07d", id)))
	if err != nil {
		log.Fatal(err)
	}
	return o
}

func main() {
	var numOrders int
	var cancelEvery int
	var seed int64
	flag.IntVar(&numOrders, "orders", 1_000_000, "Number of orders to submit")
	flag.IntVar(&cancelEvery, "cancel-every", 10, "Cancel a random earlier order every n submissions, 0 disables")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	const symbol = "ABC"
	ctx := context.Background()
	rng := rand.New(rand.NewSource(seed))

	obm := orderbook.NewOrderBookManager(&orderbook.OrderBookManagerConfig{
		Symbols: []string{symbol},
	}, nil)

	totalMatched := 0
	totalQty := int64(0)
	obm.RegisterTradeCallback(func(_ context.Context, trades []orderbook.Trade) {
		for _, t := range trades {
			totalMatched++
			totalQty += t.Qty
			if totalMatched <= 5 {
				log.Printf("match: BUY[%s] <=> SELL[%s] @ %s qty %d\n",
					t.BuyOrderID(), t.SellOrderID(), orderbook.FormatPrice(t.Price), t.Qty)
			}
		}
	})

	ids := make([]string, 0, numOrders)
	canceled := 0
	start := time.Now()
	for i := 0; i < numOrders; i++ {
		order := randomOrder(rng, i+1, symbol)
		_, _ = obm.Submit(ctx, order)
		ids = append(ids, order.ID)

		if cancelEvery > 0 && i%cancelEvery == 0 {
			if obm.Cancel(ctx, symbol, ids[rng.Intn(len(ids))]) {
				canceled++
			}
		}
	}
	elapsed := time.Since(start)

	snap, _ := obm.Snapshot(symbol, 1)

	fmt.Println("--------")
	fmt.Printf("Total Orders     : %d\n", numOrders)
	fmt.Printf("Total Matches    : %d\n", totalMatched)
	fmt.Printf("Total Matched Qty: %d\n", totalQty)
	fmt.Printf("Canceled         : %d\n", canceled)
	if len(snap.Bids) > 0 && len(snap.Asks) > 0 {
		fmt.Printf("Top of book      : %s / %s\n", orderbook.FormatPrice(snap.Bids[0].Price), orderbook.FormatPrice(snap.Asks[0].Price))
	}
	fmt.Printf("Time Taken       : %s (%.0f orders/s)\n", elapsed, float64(numOrders)/elapsed.Seconds())
}
