package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joripage/matchcore/pkg/orderbook"
)

type Action string

const (
	ActionNew    Action = "new"
	ActionCancel Action = "cancel"
)

// OrderCommand is the JSON body of a message on the order topic. Price is a
// major-unit decimal string ("187.60") and is omitted for market orders.
type OrderCommand struct {
	Action        Action `json:"action"`
	OrderID       string `json:"order_id,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side,omitempty"`
	Type          string `json:"type,omitempty"`
	Qty           int64  `json:"qty,omitempty"`
	Price         string `json:"price,omitempty"`
}

func DecodeOrderCommand(b []byte) (*OrderCommand, error) {
	cmd := &OrderCommand{}
	if err := json.Unmarshal(b, cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedCommand, err)
	}
	cmd.Action = Action(strings.ToLower(strings.TrimSpace(string(cmd.Action))))
	switch cmd.Action {
	case ActionNew:
	case ActionCancel:
		if cmd.OrderID == "" {
			return nil, fmt.Errorf("%w: cancel requires order_id", errMalformedCommand)
		}
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownAction, cmd.Action)
	}
	if cmd.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", errMalformedCommand)
	}
	return cmd, nil
}

// ToOrder builds the order a "new" command describes. Validation failures are
// returned from here and the order never reaches a book.
func (c *OrderCommand) ToOrder() (*orderbook.Order, error) {
	opts := []orderbook.OrderOption{
		orderbook.WithOrderID(c.OrderID),
		orderbook.WithClientOrderID(c.ClientOrderID),
	}
	if c.Price != "" {
		price, err := orderbook.ParsePrice(c.Price)
		if err != nil {
			return nil, err
		}
		opts = append(opts, orderbook.WithPrice(price))
	}

	side := orderbook.Side(strings.ToUpper(c.Side))
	typ := orderbook.OrderType(strings.ToUpper(c.Type))
	return orderbook.NewOrder(c.UserID, c.Symbol, side, typ, c.Qty, opts...)
}
