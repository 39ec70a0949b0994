package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder() WorkingOrder {
	return WorkingOrder{
		ID:          "11111111-1111-1111-1111-111111111111",
		Symbol:      "rb888",
		Side:        OrderSideBuy,
		Price:       105,
		Quantity:    1,
		Status:      OrderStatusSubmitted,
		Reason:      Reason{Reason: OrderReasonEntry},
		SubmittedAt: time.Now(),
	}
}

func TestWorkingOrderValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkingOrder)
		wantErr bool
	}{
		{name: "valid order", mutate: func(o *WorkingOrder) {}, wantErr: false},
		{name: "missing id", mutate: func(o *WorkingOrder) { o.ID = "" }, wantErr: true},
		{name: "non-uuid id", mutate: func(o *WorkingOrder) { o.ID = "order-1" }, wantErr: true},
		{name: "missing symbol", mutate: func(o *WorkingOrder) { o.Symbol = "" }, wantErr: true},
		{name: "bad side", mutate: func(o *WorkingOrder) { o.Side = "HOLD" }, wantErr: true},
		{name: "zero price", mutate: func(o *WorkingOrder) { o.Price = 0 }, wantErr: true},
		{name: "negative quantity", mutate: func(o *WorkingOrder) { o.Quantity = -1 }, wantErr: true},
		{name: "missing reason", mutate: func(o *WorkingOrder) { o.Reason = Reason{} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := validOrder()
			tt.mutate(&order)

			err := order.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestOrderSideIsExit(t *testing.T) {
	assert.False(t, OrderSideBuy.IsExit())
	assert.False(t, OrderSideShort.IsExit())
	assert.True(t, OrderSideSell.IsExit())
	assert.True(t, OrderSideCover.IsExit())
}

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.False(t, OrderStatusSubmitted.IsTerminal())
	assert.False(t, OrderStatusPartial.IsTerminal())
	assert.True(t, OrderStatusFilled.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusRejected.IsTerminal())
}

func TestPositionState(t *testing.T) {
	long := Position{Size: 2}
	assert.Equal(t, PositionStateLong, long.State())

	short := Position{Size: -1}
	assert.Equal(t, PositionStateShort, short.State())

	flat := Position{}
	assert.Equal(t, PositionStateFlat, flat.State())
}

func TestTickValidate(t *testing.T) {
	tick := Tick{
		Symbol:       "rb888",
		Price:        3500,
		Volume:       100,
		OpenInterest: 52000,
		Time:         time.Now(),
	}
	require.NoError(t, tick.Validate())

	tick.Price = 0
	require.Error(t, tick.Validate())
}

func TestNewBarFromTick(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 1, 0, time.UTC)
	tick := Tick{Symbol: "rb888", Price: 3500, Volume: 1000, OpenInterest: 52000, Time: at}

	bar := NewBarFromTick(tick, 40)

	assert.Equal(t, "rb888", bar.Symbol)
	assert.Equal(t, at, bar.Start)
	assert.Equal(t, 3500.0, bar.Open)
	assert.Equal(t, 3500.0, bar.High)
	assert.Equal(t, 3500.0, bar.Low)
	assert.Equal(t, 3500.0, bar.Close)
	assert.Equal(t, int64(40), bar.Volume)
	assert.Equal(t, int64(52000), bar.OpenInterest)
}
