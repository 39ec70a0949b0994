// Package strategy holds the position state machine: the decision layer
// between evaluated signals and the order lifecycle manager.
package strategy

import (
	"go.uber.org/zap"

	"github.com/toriphy/cta-engine/internal/logger"
	"github.com/toriphy/cta-engine/internal/signal"
	"github.com/toriphy/cta-engine/internal/types"
)

// OrderRequest is one order the state machine wants issued this bar. The
// lifecycle manager owns IDs, submission and cancellation.
type OrderRequest struct {
	Side     types.OrderSide
	Price    float64
	Quantity float64
	IsStop   bool
	Reason   types.Reason
}

// Decision is the outcome of one state machine pass. When OCO is true the
// two requests form a one-cancels-other pair.
type Decision struct {
	Requests []OrderRequest
	OCO      bool
}

// StateMachine tracks the net position of a single instrument and decides,
// per closed warm bar, whether to enter, hold-and-protect, or do nothing.
//
// Transitions between FLAT, LONG and SHORT only happen on observed fills;
// the machine itself never assumes an order traded. A direct reversal is
// impossible: exposure must pass through FLAT first.
//
// Tie-break: when both entry condition sets hold on the same bar while
// flat, the long side is taken. This mirrors the reference behavior and is
// a deliberate, documented choice.
type StateMachine struct {
	symbol   string
	params   Params
	position types.Position
	// pendingEntry remembers the intended fill price of the outstanding
	// entry order so the cost basis reflects it once the fill arrives.
	pendingEntry float64
	log          *logger.Logger
}

// NewStateMachine creates a flat state machine for one instrument.
func NewStateMachine(symbol string, params Params, log *logger.Logger) (*StateMachine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &StateMachine{
		symbol:       symbol,
		params:       params,
		position:     types.Position{Symbol: symbol},
		pendingEntry: 0,
		log:          log,
	}, nil
}

// Position returns a copy of the tracked position.
func (m *StateMachine) Position() types.Position {
	return m.position
}

// State returns the current position state.
func (m *StateMachine) State() types.PositionState {
	return m.position.State()
}

// OnBar runs one transition pass for a closed, warm bar. The caller must
// guarantee warm-up; the machine itself never sees cold bars.
func (m *StateMachine) OnBar(bar types.Bar, evaluation signal.Evaluation) Decision {
	switch m.position.State() {
	case types.PositionStateFlat:
		return m.onFlatBar(bar, evaluation)
	case types.PositionStateLong:
		return m.onLongBar(bar)
	case types.PositionStateShort:
		return m.onShortBar(bar)
	}

	return Decision{}
}

// OnFill applies an observed fill. Entries set the cost basis to the
// intended entry price; a fill that flattens the position clears it.
func (m *StateMachine) OnFill(fill types.FillEvent) {
	wasFlat := m.position.Size == 0
	m.position.Size = fill.NetPosition

	if m.position.Size == 0 {
		m.position.CostBasis = 0
		m.pendingEntry = 0
		m.log.Info("position flattened",
			zap.String("symbol", m.symbol),
			zap.Float64("fill_price", fill.Price),
		)

		return
	}

	if wasFlat {
		basis := m.pendingEntry
		if basis == 0 {
			basis = fill.Price
		}

		m.position.CostBasis = basis
		m.log.Info("position opened",
			zap.String("symbol", m.symbol),
			zap.String("state", string(m.position.State())),
			zap.Float64("cost_basis", basis),
			zap.Float64("size", m.position.Size),
		)
	}
}

func (m *StateMachine) onFlatBar(bar types.Bar, evaluation signal.Evaluation) Decision {
	if !evaluation.LongEntry && !evaluation.ShortEntry {
		return Decision{}
	}

	// Arm the trailing anchors from the triggering bar.
	m.position.IntraTradeHigh = bar.High
	m.position.IntraTradeLow = bar.Low

	if m.params.UseOCOEntries {
		m.pendingEntry = 0

		return Decision{
			OCO: true,
			Requests: []OrderRequest{
				{
					Side:     types.OrderSideBuy,
					Price:    evaluation.Channel.Upper,
					Quantity: m.params.FixedSize,
					IsStop:   true,
					Reason:   types.Reason{Reason: types.OrderReasonBreakout, Message: "buy stop above channel"},
				},
				{
					Side:     types.OrderSideShort,
					Price:    evaluation.Channel.Lower,
					Quantity: m.params.FixedSize,
					IsStop:   true,
					Reason:   types.Reason{Reason: types.OrderReasonBreakout, Message: "sell stop below channel"},
				},
			},
		}
	}

	// Long first when both sides qualify on the same bar.
	if evaluation.LongEntry {
		price := bar.Close + m.params.EntryOffset
		m.pendingEntry = price

		return Decision{Requests: []OrderRequest{{
			Side:     types.OrderSideBuy,
			Price:    price,
			Quantity: m.params.FixedSize,
			IsStop:   false,
			Reason:   types.Reason{Reason: types.OrderReasonEntry, Message: "channel breakout long"},
		}}}
	}

	price := bar.Close - m.params.EntryOffset
	m.pendingEntry = price

	return Decision{Requests: []OrderRequest{{
		Side:     types.OrderSideShort,
		Price:    price,
		Quantity: m.params.FixedSize,
		IsStop:   false,
		Reason:   types.Reason{Reason: types.OrderReasonEntry, Message: "channel breakout short"},
	}}}
}

func (m *StateMachine) onLongBar(bar types.Bar) Decision {
	if bar.High > m.position.IntraTradeHigh {
		m.position.IntraTradeHigh = bar.High
	}

	m.position.IntraTradeLow = bar.Low

	quantity := m.position.Size
	fixedStop := m.position.CostBasis * (1 - m.params.FixedCutLossPercent/100)

	if bar.Close < fixedStop {
		// Breached: exit at a price slightly worse than the last close so
		// the stop is effectively marketable.
		return Decision{Requests: []OrderRequest{{
			Side:     types.OrderSideSell,
			Price:    bar.Close - m.params.ExitOffset,
			Quantity: quantity,
			IsStop:   true,
			Reason:   types.Reason{Reason: types.OrderReasonCutLoss, Message: "fixed cut-loss breached"},
		}}}
	}

	trailingStop := m.position.IntraTradeHigh * (1 - m.params.TrailingPercent/100)

	// Protect at the tighter of the two stops.
	stop := trailingStop
	if fixedStop > stop {
		stop = fixedStop
	}

	return Decision{Requests: []OrderRequest{{
		Side:     types.OrderSideSell,
		Price:    stop,
		Quantity: quantity,
		IsStop:   true,
		Reason:   types.Reason{Reason: types.OrderReasonTrailingStop, Message: "long protective stop"},
	}}}
}

func (m *StateMachine) onShortBar(bar types.Bar) Decision {
	if bar.Low < m.position.IntraTradeLow {
		m.position.IntraTradeLow = bar.Low
	}

	m.position.IntraTradeHigh = bar.High

	quantity := -m.position.Size
	fixedStop := m.position.CostBasis * (1 + m.params.FixedCutLossPercent/100)

	if bar.Close > fixedStop {
		return Decision{Requests: []OrderRequest{{
			Side:     types.OrderSideCover,
			Price:    bar.Close + m.params.ExitOffset,
			Quantity: quantity,
			IsStop:   true,
			Reason:   types.Reason{Reason: types.OrderReasonCutLoss, Message: "fixed cut-loss breached"},
		}}}
	}

	trailingStop := m.position.IntraTradeLow * (1 + m.params.TrailingPercent/100)

	stop := trailingStop
	if fixedStop < stop {
		stop = fixedStop
	}

	return Decision{Requests: []OrderRequest{{
		Side:     types.OrderSideCover,
		Price:    stop,
		Quantity: quantity,
		IsStop:   true,
		Reason:   types.Reason{Reason: types.OrderReasonTrailingStop, Message: "short protective stop"},
	}}}
}
