package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder_Validation(t *testing.T) {
	tests := []struct {
		name    string
		side    Side
		typ     OrderType
		qty     int64
		opts    []OrderOption
		wantErr error
	}{
		{name: "limit ok", side: BUY, typ: LIMIT, qty: 10, opts: []OrderOption{WithPrice(100)}},
		{name: "market ok", side: SELL, typ: MARKET, qty: 10},
		{name: "zero qty", side: BUY, typ: LIMIT, qty: 0, opts: []OrderOption{WithPrice(100)}, wantErr: ErrInvalidQuantity},
		{name: "negative qty", side: BUY, typ: LIMIT, qty: -1, opts: []OrderOption{WithPrice(100)}, wantErr: ErrInvalidQuantity},
		{name: "limit without price", side: BUY, typ: LIMIT, qty: 1, wantErr: ErrMissingPrice},
		{name: "limit zero price", side: BUY, typ: LIMIT, qty: 1, opts: []OrderOption{WithPrice(0)}, wantErr: ErrMissingPrice},
		{name: "limit negative price", side: SELL, typ: LIMIT, qty: 1, opts: []OrderOption{WithPrice(-5)}, wantErr: ErrMissingPrice},
		{name: "market with price", side: BUY, typ: MARKET, qty: 1, opts: []OrderOption{WithPrice(100)}, wantErr: ErrUnexpectedPrice},
		{name: "market with zero price", side: BUY, typ: MARKET, qty: 1, opts: []OrderOption{WithPrice(0)}, wantErr: ErrUnexpectedPrice},
		{name: "bad side", side: Side("HOLD"), typ: LIMIT, qty: 1, opts: []OrderOption{WithPrice(1)}, wantErr: ErrInvalidSide},
		{name: "bad type", side: BUY, typ: OrderType("STOP"), qty: 1, wantErr: ErrInvalidOrderType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewOrder("u1", "AAPL", tt.side, tt.typ, tt.qty, tt.opts...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, o)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, NEW, o.Status())
			assert.True(t, o.Active())
			assert.Equal(t, tt.qty, o.Remaining())
			assert.Zero(t, o.Filled())
			assert.False(t, o.CreatedAt.IsZero())
		})
	}
}

func TestNewOrder_IDs(t *testing.T) {
	a, err := NewOrder("u1", "AAPL", BUY, LIMIT, 1, WithPrice(1))
	require.NoError(t, err)
	b, err := NewOrder("u1", "AAPL", BUY, LIMIT, 1, WithPrice(1))
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)

	c, err := NewOrder("u1", "AAPL", BUY, LIMIT, 1, WithPrice(1), WithOrderID("O-1"), WithClientOrderID("C-1"))
	require.NoError(t, err)
	assert.Equal(t, "O-1", c.ID)
	assert.Equal(t, "C-1", c.ClientOrderID)

	d, err := NewOrder("u1", "AAPL", BUY, LIMIT, 1, WithPrice(1), WithOrderID(""))
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
}

func TestOrder_StateTransitions(t *testing.T) {
	o, err := NewOrder("u1", "AAPL", SELL, LIMIT, 10, WithPrice(100))
	require.NoError(t, err)

	o.fill(4)
	assert.Equal(t, PARTIAL, o.Status())
	assert.True(t, o.Active())
	assert.Equal(t, int64(6), o.Remaining())
	assert.Equal(t, int64(4), o.Filled())

	o.fill(6)
	assert.Equal(t, FILLED, o.Status())
	assert.False(t, o.Active())
	assert.True(t, o.Status().IsTerminal())

	c, err := NewOrder("u1", "AAPL", SELL, LIMIT, 10, WithPrice(100))
	require.NoError(t, err)
	c.fill(3)
	c.cancel()
	assert.Equal(t, CANCELED, c.Status())
	assert.Zero(t, c.Remaining())
	assert.Equal(t, int64(3), c.Filled())
	assert.False(t, c.Active())

	r, err := NewOrder("u1", "AAPL", SELL, MARKET, 10)
	require.NoError(t, err)
	r.reject()
	assert.Equal(t, REJECTED, r.Status())
	assert.False(t, r.Active())
	assert.False(t, RESTING.IsTerminal())
}

func TestSide_Opposite(t *testing.T) {
	assert.Equal(t, SELL, BUY.Opposite())
	assert.Equal(t, BUY, SELL.Opposite())
}

func TestTrade_BuySellIDs(t *testing.T) {
	tr := Trade{MakerOrderID: "M", TakerOrderID: "T", TakerSide: BUY}
	assert.Equal(t, "T", tr.BuyOrderID())
	assert.Equal(t, "M", tr.SellOrderID())

	tr.TakerSide = SELL
	assert.Equal(t, "M", tr.BuyOrderID())
	assert.Equal(t, "T", tr.SellOrderID())
}
