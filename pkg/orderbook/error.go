package orderbook

import "errors"

var (
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrMissingPrice     = errors.New("limit order requires a positive price")
	ErrUnexpectedPrice  = errors.New("market order must not carry a price")
	ErrInvalidSide      = errors.New("invalid order side")
	ErrInvalidOrderType = errors.New("invalid order type")
	ErrInvalidPrice     = errors.New("invalid order price")

	ErrSymbolMismatch = errors.New("order symbol does not match book symbol")
	ErrNotRestable    = errors.New("only priced limit orders can rest in the book")
	ErrDuplicateOrder = errors.New("duplicate order id")
)
