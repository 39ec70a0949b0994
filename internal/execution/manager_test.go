package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toriphy/cta-engine/internal/logger"
	"github.com/toriphy/cta-engine/internal/strategy"
	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

func entryDecision(side types.OrderSide, price float64) strategy.Decision {
	return strategy.Decision{
		Requests: []strategy.OrderRequest{{
			Side:     side,
			Price:    price,
			Quantity: 1,
			IsStop:   false,
			Reason:   types.Reason{Reason: types.OrderReasonEntry},
		}},
	}
}

func ocoDecision(upper, lower float64) strategy.Decision {
	return strategy.Decision{
		OCO: true,
		Requests: []strategy.OrderRequest{
			{
				Side:     types.OrderSideBuy,
				Price:    upper,
				Quantity: 1,
				IsStop:   true,
				Reason:   types.Reason{Reason: types.OrderReasonBreakout},
			},
			{
				Side:     types.OrderSideShort,
				Price:    lower,
				Quantity: 1,
				IsStop:   true,
				Reason:   types.Reason{Reason: types.OrderReasonBreakout},
			},
		},
	}
}

func newManagerWithSim(t *testing.T) (*Manager, *SimulatedExecutor) {
	t.Helper()

	sim := NewSimulatedExecutor()
	manager := NewManager("rb888", sim, logger.NewNopLogger())

	return manager, sim
}

func TestSubmitTracksWorkingOrders(t *testing.T) {
	manager, sim := newManagerWithSim(t)
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	submitted, err := manager.Submit(entryDecision(types.OrderSideBuy, 105), at)
	require.NoError(t, err)
	require.Len(t, submitted, 1)

	assert.NotEmpty(t, submitted[0].ID)
	assert.Equal(t, "rb888", submitted[0].Symbol)
	assert.Equal(t, types.OrderStatusSubmitted, submitted[0].Status)
	assert.Empty(t, submitted[0].OCAGroup)

	assert.Len(t, manager.WorkingOrders(), 1)
	assert.Len(t, sim.LiveOrders(), 1)
}

func TestSubmitEmptyDecisionIsNoop(t *testing.T) {
	manager, sim := newManagerWithSim(t)

	submitted, err := manager.Submit(strategy.Decision{}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, submitted)
	assert.Empty(t, sim.LiveOrders())
}

func TestSubmitOCOSharesGroup(t *testing.T) {
	manager, _ := newManagerWithSim(t)

	submitted, err := manager.Submit(ocoDecision(108, 93), time.Now())
	require.NoError(t, err)
	require.Len(t, submitted, 2)

	assert.NotEmpty(t, submitted[0].OCAGroup)
	assert.Equal(t, submitted[0].OCAGroup, submitted[1].OCAGroup)
}

func TestSubmitOCORequiresTwoLegs(t *testing.T) {
	manager, _ := newManagerWithSim(t)

	decision := entryDecision(types.OrderSideBuy, 105)
	decision.OCO = true

	_, err := manager.Submit(decision, time.Now())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidOrder))
}

func TestCancelStaleClearsPreviousBar(t *testing.T) {
	manager, sim := newManagerWithSim(t)
	at := time.Now()

	_, err := manager.Submit(entryDecision(types.OrderSideBuy, 105), at)
	require.NoError(t, err)

	require.NoError(t, manager.CancelStale(at.Add(time.Minute)))

	// The venue confirmed the cancel; apply the event.
	events := sim.DrainEvents()
	require.Len(t, events, 1)
	require.Equal(t, EventKindStatus, events[0].Kind)
	require.Equal(t, types.OrderStatusCancelled, events[0].Status.Status)

	require.NoError(t, manager.OnOrderEvent(events[0].Status))
	assert.Empty(t, manager.WorkingOrders())
	assert.Empty(t, sim.LiveOrders())
}

func TestOCOFillCancelsSibling(t *testing.T) {
	manager, sim := newManagerWithSim(t)

	submitted, err := manager.Submit(ocoDecision(108, 93), time.Now())
	require.NoError(t, err)

	// Market trades up through the buy stop.
	sim.MatchBar(types.Bar{High: 110, Low: 107, Close: 109})

	events := sim.DrainEvents()
	require.Len(t, events, 1)
	require.Equal(t, EventKindFill, events[0].Kind)
	assert.Equal(t, submitted[0].ID, events[0].Fill.OrderID)

	filled, err := manager.OnFill(events[0].Fill)
	require.NoError(t, err)
	assert.Equal(t, submitted[0].ID, filled.ID)

	// The sibling leg must have been cancelled in the same step.
	assert.Empty(t, sim.LiveOrders(), "surviving leg cancelled at the venue")

	events = sim.DrainEvents()
	require.Len(t, events, 1)
	require.NoError(t, manager.OnOrderEvent(events[0].Status))
	assert.Empty(t, manager.WorkingOrders())
}

func TestRejectedOrderIsDropped(t *testing.T) {
	manager, _ := newManagerWithSim(t)

	submitted, err := manager.Submit(entryDecision(types.OrderSideBuy, 105), time.Now())
	require.NoError(t, err)

	require.NoError(t, manager.OnOrderEvent(types.OrderStatusEvent{
		OrderID: submitted[0].ID,
		Status:  types.OrderStatusRejected,
	}))

	assert.Empty(t, manager.WorkingOrders())
	assert.False(t, manager.Halted())
}

func TestFillAfterConfirmedCancelHalts(t *testing.T) {
	manager, sim := newManagerWithSim(t)

	submitted, err := manager.Submit(entryDecision(types.OrderSideBuy, 105), time.Now())
	require.NoError(t, err)

	require.NoError(t, manager.CancelStale(time.Now()))

	for _, event := range sim.DrainEvents() {
		require.NoError(t, manager.OnOrderEvent(event.Status))
	}

	// The venue reports a fill for the order we believe cancelled.
	_, err = manager.OnFill(types.FillEvent{OrderID: submitted[0].ID, Price: 105, Quantity: 1})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeStaleOrder))
	assert.True(t, manager.Halted())

	// A halted manager refuses further submissions.
	_, err = manager.Submit(entryDecision(types.OrderSideBuy, 106), time.Now())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInstrumentHalted))
}

func TestFillForUnknownOrderHalts(t *testing.T) {
	manager, _ := newManagerWithSim(t)

	_, err := manager.OnFill(types.FillEvent{OrderID: "never-issued", Price: 100, Quantity: 1})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeStaleOrder))
	assert.True(t, manager.Halted())
}

func TestLateStatusForUnknownOrderIsHarmless(t *testing.T) {
	manager, _ := newManagerWithSim(t)

	require.NoError(t, manager.OnOrderEvent(types.OrderStatusEvent{
		OrderID: "gone",
		Status:  types.OrderStatusCancelled,
	}))
	assert.False(t, manager.Halted())
}
