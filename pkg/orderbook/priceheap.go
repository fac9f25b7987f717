package orderbook

import "sort"

// PriceHeap implements heap.Interface over the distinct prices of one book
// side. The root is the best price for that side.
type PriceHeap struct {
	prices []int64
	less   func(i, j int64) bool
	index  map[int64]bool
}

func NewPriceHeap(less func(i, j int64) bool) *PriceHeap {
	return &PriceHeap{
		prices: []int64{},
		less:   less,
		index:  make(map[int64]bool),
	}
}

func newBidHeap() *PriceHeap {
	return NewPriceHeap(func(i, j int64) bool { return i > j }) // Max-heap
}

func newAskHeap() *PriceHeap {
	return NewPriceHeap(func(i, j int64) bool { return i < j }) // Min-heap
}

func (h PriceHeap) Len() int {
	return len(h.prices)
}

func (h PriceHeap) Less(i, j int) bool {
	return h.less(h.prices[i], h.prices[j])
}

func (h PriceHeap) Swap(i, j int) {
	h.prices[i], h.prices[j] = h.prices[j], h.prices[i]
}

// Push must only be reached through heap.Push for a price not yet in the
// heap; the book checks Contains first.
func (h *PriceHeap) Push(x any) {
	price := x.(int64)
	if !h.index[price] {
		h.index[price] = true
		h.prices = append(h.prices, price)
	}
}

func (h *PriceHeap) Pop() any {
	n := len(h.prices)
	price := h.prices[n-1]
	h.prices = h.prices[:n-1]
	delete(h.index, price)
	return price
}

func (h *PriceHeap) Peek() (int64, bool) {
	if len(h.prices) == 0 {
		return 0, false
	}
	return h.prices[0], true
}

func (h *PriceHeap) Contains(price int64) bool {
	return h.index[price]
}

// Sorted returns a best-first copy of the prices. The heap is untouched.
func (h *PriceHeap) Sorted() []int64 {
	out := make([]int64, len(h.prices))
	copy(out, h.prices)
	sort.Slice(out, func(i, j int) bool { return h.less(out[i], out[j]) })
	return out
}
