package execution

import (
	"github.com/shopspring/decimal"

	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// Trade is one completed fill with its realized profit contribution.
// Realized PnL is non-zero only on fills that reduce exposure.
type Trade struct {
	Order       types.WorkingOrder
	Fill        types.FillEvent
	RealizedPnL decimal.Decimal
}

// SimulatedExecutor matches working orders against bars. It implements the
// Executor boundary synchronously but still reports outcomes through the
// event queue, so the lifecycle manager sees the same discrete-event shape a
// live venue would produce.
//
// Money math runs on decimals; bar prices convert at the boundary.
type SimulatedExecutor struct {
	live     map[string]types.WorkingOrder
	sequence []string
	events   []Event

	netPosition decimal.Decimal
	costBasis   decimal.Decimal
	realizedPnL decimal.Decimal
	trades      []Trade
}

// NewSimulatedExecutor creates an empty simulated venue.
func NewSimulatedExecutor() *SimulatedExecutor {
	return &SimulatedExecutor{
		live:        make(map[string]types.WorkingOrder),
		sequence:    nil,
		events:      nil,
		netPosition: decimal.Zero,
		costBasis:   decimal.Zero,
		realizedPnL: decimal.Zero,
		trades:      nil,
	}
}

// SubmitOrder accepts an order into the live book.
func (s *SimulatedExecutor) SubmitOrder(order types.WorkingOrder) error {
	if _, ok := s.live[order.ID]; ok {
		return errors.Newf(errors.ErrCodeInvalidOrder, "duplicate order id %s", order.ID)
	}

	s.live[order.ID] = order
	s.sequence = append(s.sequence, order.ID)

	return nil
}

// CancelOrder removes a live order and queues the cancellation confirmation.
func (s *SimulatedExecutor) CancelOrder(orderID string) error {
	order, ok := s.live[orderID]
	if !ok {
		return errors.Newf(errors.ErrCodeOrderNotFound, "order %s is not live", orderID)
	}

	s.remove(orderID)
	s.events = append(s.events, Event{
		Kind: EventKindStatus,
		Status: types.OrderStatusEvent{
			OrderID: order.ID,
			Status:  types.OrderStatusCancelled,
		},
	})

	return nil
}

// MatchBar sweeps the live book against one bar in submission order. Stops
// trigger when the bar range trades through the stop price; resting orders
// fill when the range touches their price. Fills execute at the order price.
func (s *SimulatedExecutor) MatchBar(bar types.Bar) {
	ids := make([]string, len(s.sequence))
	copy(ids, s.sequence)

	for _, id := range ids {
		order, ok := s.live[id]
		if !ok {
			continue
		}

		if !s.triggered(order, bar) {
			continue
		}

		s.remove(id)
		s.fill(order, bar)
	}
}

// NetPosition returns the signed net position.
func (s *SimulatedExecutor) NetPosition() float64 {
	return s.netPosition.InexactFloat64()
}

// RealizedPnL returns the accumulated realized profit.
func (s *SimulatedExecutor) RealizedPnL() float64 {
	return s.realizedPnL.InexactFloat64()
}

// Trades returns a copy of the completed fills.
func (s *SimulatedExecutor) Trades() []Trade {
	out := make([]Trade, len(s.trades))
	copy(out, s.trades)

	return out
}

// LiveOrders returns the resting book in submission order.
func (s *SimulatedExecutor) LiveOrders() []types.WorkingOrder {
	out := make([]types.WorkingOrder, 0, len(s.live))

	for _, id := range s.sequence {
		if order, ok := s.live[id]; ok {
			out = append(out, order)
		}
	}

	return out
}

// DrainEvents returns the queued events in venue order and clears the queue.
func (s *SimulatedExecutor) DrainEvents() []Event {
	out := s.events
	s.events = nil

	return out
}

func (s *SimulatedExecutor) triggered(order types.WorkingOrder, bar types.Bar) bool {
	buying := order.Side == types.OrderSideBuy || order.Side == types.OrderSideCover

	if order.IsStop {
		// A stop arms when the market trades through it against the resting
		// side: up through a buy stop, down through a sell stop.
		if buying {
			return bar.High >= order.Price
		}

		return bar.Low <= order.Price
	}

	if buying {
		return bar.Low <= order.Price
	}

	return bar.High >= order.Price
}

func (s *SimulatedExecutor) fill(order types.WorkingOrder, bar types.Bar) {
	price := decimal.NewFromFloat(order.Price)
	quantity := decimal.NewFromFloat(order.Quantity)

	signed := quantity
	if order.Side == types.OrderSideSell || order.Side == types.OrderSideShort {
		signed = quantity.Neg()
	}

	pnl := s.apply(price, signed)

	fillEvent := types.FillEvent{
		OrderID:     order.ID,
		Price:       order.Price,
		Quantity:    order.Quantity,
		NetPosition: s.netPosition.InexactFloat64(),
		Time:        bar.Start,
	}

	order.Status = types.OrderStatusFilled
	s.trades = append(s.trades, Trade{Order: order, Fill: fillEvent, RealizedPnL: pnl})

	// Fills are reported as fill events only; a separate terminal status
	// would race the fill at the consumer.
	s.events = append(s.events, Event{Kind: EventKindFill, Fill: fillEvent})
}

// apply updates the position and basis for one signed fill and returns its
// realized PnL contribution.
func (s *SimulatedExecutor) apply(price, signed decimal.Decimal) decimal.Decimal {
	before := s.netPosition
	s.netPosition = before.Add(signed)

	switch {
	case before.IsZero():
		s.costBasis = price

		return decimal.Zero
	case before.Sign() == signed.Sign():
		// Adding exposure: volume-weighted basis.
		total := before.Abs().Add(signed.Abs())
		s.costBasis = s.costBasis.Mul(before.Abs()).Add(price.Mul(signed.Abs())).Div(total)

		return decimal.Zero
	default:
		closed := decimal.Min(before.Abs(), signed.Abs())

		pnl := price.Sub(s.costBasis).Mul(closed)
		if before.Sign() < 0 {
			pnl = pnl.Neg()
		}

		s.realizedPnL = s.realizedPnL.Add(pnl)

		if s.netPosition.IsZero() {
			s.costBasis = decimal.Zero
		} else if s.netPosition.Sign() != before.Sign() {
			// Flipped through flat: the remainder opens at the fill price.
			s.costBasis = price
		}

		return pnl
	}
}

func (s *SimulatedExecutor) remove(orderID string) {
	delete(s.live, orderID)

	for i, id := range s.sequence {
		if id == orderID {
			s.sequence = append(s.sequence[:i], s.sequence[i+1:]...)

			break
		}
	}
}
