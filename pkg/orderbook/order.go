package orderbook

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

// Opposite returns the side an order of s matches against.
func (s Side) Opposite() Side {
	if s == BUY {
		return SELL
	}
	return BUY
}

type OrderType string

const (
	LIMIT  OrderType = "LIMIT"
	MARKET OrderType = "MARKET" // validated but never matched
)

type OrderStatus string

const (
	NEW      OrderStatus = "NEW"
	RESTING  OrderStatus = "RESTING"
	PARTIAL  OrderStatus = "PARTIAL"
	FILLED   OrderStatus = "FILLED"
	CANCELED OrderStatus = "CANCELED"
	REJECTED OrderStatus = "REJECTED"
)

// IsTerminal reports whether no further transition is possible from st.
func (st OrderStatus) IsTerminal() bool {
	return st == FILLED || st == CANCELED || st == REJECTED
}

// Order is a request to trade Qty units of Symbol. Exported fields are fixed at
// construction; the remaining quantity, status and active flag only change
// through the book and the matcher.
type Order struct {
	ID            string
	ClientOrderID string
	UserID        string
	Symbol        string
	Side          Side
	Type          OrderType
	Qty           int64
	Price         int64 // minor currency units, zero for MARKET
	CreatedAt     time.Time

	hasPrice       bool
	remaining      int64
	filledAtCancel int64
	status         OrderStatus
	active         bool
}

type OrderOption func(*Order)

// WithPrice sets the limit price in minor currency units.
func WithPrice(price int64) OrderOption {
	return func(o *Order) {
		o.Price = price
		o.hasPrice = true
	}
}

// WithOrderID overrides the generated order id.
func WithOrderID(id string) OrderOption {
	return func(o *Order) {
		if id != "" {
			o.ID = id
		}
	}
}

func WithClientOrderID(id string) OrderOption {
	return func(o *Order) {
		o.ClientOrderID = id
	}
}

// NewOrder validates and builds an order in status NEW. A failed construction
// is the only hard error an order can produce; everything later is reported
// through the order status.
func NewOrder(userID, symbol string, side Side, typ OrderType, qty int64, opts ...OrderOption) (*Order, error) {
	o := &Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Symbol: symbol,
		Side:   side,
		Type:   typ,
		Qty:    qty,
	}
	for _, opt := range opts {
		opt(o)
	}

	if side != BUY && side != SELL {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	switch typ {
	case LIMIT:
		if !o.hasPrice || o.Price <= 0 {
			return nil, fmt.Errorf("%w: got %d", ErrMissingPrice, o.Price)
		}
	case MARKET:
		if o.hasPrice {
			return nil, fmt.Errorf("%w: got %d", ErrUnexpectedPrice, o.Price)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrderType, typ)
	}

	o.CreatedAt = time.Now()
	o.remaining = qty
	o.status = NEW
	o.active = true
	return o, nil
}

// Remaining is the quantity still open for matching.
func (o *Order) Remaining() int64 { return o.remaining }

// Filled is the quantity executed so far. Canceled orders report what traded
// before the cancel.
func (o *Order) Filled() int64 {
	if o.status == CANCELED {
		return o.filledAtCancel
	}
	return o.Qty - o.remaining
}

func (o *Order) Status() OrderStatus { return o.status }

func (o *Order) Active() bool { return o.active }

func (o *Order) eligible() bool {
	return o.active && o.remaining > 0
}

func (o *Order) fill(qty int64) {
	o.remaining -= qty
	if o.remaining == 0 {
		o.status = FILLED
		o.active = false
		return
	}
	o.status = PARTIAL
}

func (o *Order) reject() {
	o.status = REJECTED
	o.active = false
}

func (o *Order) cancel() {
	o.filledAtCancel = o.Qty - o.remaining
	o.remaining = 0
	o.status = CANCELED
	o.active = false
}

func (o *Order) String() string {
	return fmt.Sprintf("%s %s %s %d@%d [%s %d/%d]", o.ID, o.Side, o.Type, o.Qty, o.Price, o.status, o.remaining, o.Qty)
}
