package execution

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toriphy/cta-engine/internal/logger"
	"github.com/toriphy/cta-engine/internal/strategy"
	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// workingRecord wraps a tracked order with its cancellation bookkeeping.
type workingRecord struct {
	order types.WorkingOrder
	// cancelRequested means a cancellation intent went out but no terminal
	// confirmation arrived yet. A fill in this window is a legitimate race.
	cancelRequested bool
}

// Manager owns the order lifecycle of a single instrument: it assigns IDs,
// submits intents through the Executor, and keeps the working set consistent
// with the event stream.
//
// Invariants it enforces:
//   - CancelStale goes out before any new submissions of a bar.
//   - At most one protective stop per direction is live at a time (the
//     previous one is always cancelled first).
//   - A fill reported for an order already confirmed cancelled, or for an
//     order the manager never issued, halts the instrument.
type Manager struct {
	symbol   string
	executor Executor
	working  map[string]*workingRecord
	// sequence preserves submission order for deterministic cancellation.
	sequence []string
	// cancelled remembers IDs whose cancellation the venue confirmed.
	cancelled map[string]bool
	halted    bool
	log       *logger.Logger
}

// NewManager creates a lifecycle manager bound to one executor.
func NewManager(symbol string, executor Executor, log *logger.Logger) *Manager {
	return &Manager{
		symbol:    symbol,
		executor:  executor,
		working:   make(map[string]*workingRecord),
		sequence:  nil,
		cancelled: make(map[string]bool),
		halted:    false,
		log:       log,
	}
}

// Halted reports whether the instrument is halted. A halted manager refuses
// all further submissions.
func (m *Manager) Halted() bool {
	return m.halted
}

// WorkingOrders returns the tracked orders in submission order, including
// those with an outstanding cancellation request.
func (m *Manager) WorkingOrders() []types.WorkingOrder {
	out := make([]types.WorkingOrder, 0, len(m.working))

	for _, id := range m.sequence {
		if record, ok := m.working[id]; ok {
			out = append(out, record.order)
		}
	}

	return out
}

// CancelStale requests cancellation of every tracked working order. It must
// run before the bar's new submissions so no two protective orders for the
// same exposure can be live at once.
func (m *Manager) CancelStale(at time.Time) error {
	for _, id := range m.sequence {
		record, ok := m.working[id]
		if !ok || record.cancelRequested {
			continue
		}

		record.cancelRequested = true

		if err := m.executor.CancelOrder(id); err != nil {
			if errors.HasCode(err, errors.ErrCodeOrderNotFound) {
				// Terminal event for this order is already in flight.
				continue
			}

			return errors.Wrapf(errors.ErrCodeOrderFailed, err, "cancel of order %s failed", id)
		}

		m.log.Debug("cancelled stale order",
			zap.String("symbol", m.symbol),
			zap.String("order_id", id),
			zap.Time("at", at),
		)
	}

	return nil
}

// Submit issues the requests of one state machine decision. OCO decisions
// get both legs tagged with a shared one-cancels-all group before either is
// submitted.
func (m *Manager) Submit(decision strategy.Decision, at time.Time) ([]types.WorkingOrder, error) {
	if m.halted {
		return nil, errors.Newf(errors.ErrCodeInstrumentHalted,
			"instrument %s is halted, refusing submissions", m.symbol)
	}

	if len(decision.Requests) == 0 {
		return nil, nil
	}

	ocaGroup := ""
	if decision.OCO {
		if len(decision.Requests) != 2 {
			return nil, errors.Newf(errors.ErrCodeInvalidOrder,
				"one-cancels-other decision needs exactly 2 legs, got %d", len(decision.Requests))
		}

		ocaGroup = uuid.New().String()
	}

	submitted := make([]types.WorkingOrder, 0, len(decision.Requests))

	for _, request := range decision.Requests {
		order := types.WorkingOrder{
			ID:          uuid.New().String(),
			Symbol:      m.symbol,
			Side:        request.Side,
			Price:       request.Price,
			Quantity:    request.Quantity,
			IsStop:      request.IsStop,
			Status:      types.OrderStatusSubmitted,
			OCAGroup:    ocaGroup,
			Reason:      request.Reason,
			SubmittedAt: at,
		}

		if err := order.Validate(); err != nil {
			return submitted, err
		}

		if err := m.executor.SubmitOrder(order); err != nil {
			return submitted, errors.Wrap(errors.ErrCodeOrderFailed, "order submission failed", err)
		}

		m.working[order.ID] = &workingRecord{order: order, cancelRequested: false}
		m.sequence = append(m.sequence, order.ID)
		submitted = append(submitted, order)

		m.log.Info("order submitted",
			zap.String("symbol", m.symbol),
			zap.String("order_id", order.ID),
			zap.String("side", string(order.Side)),
			zap.Float64("price", order.Price),
			zap.Float64("quantity", order.Quantity),
			zap.Bool("is_stop", order.IsStop),
			zap.String("reason", order.Reason.Reason),
		)
	}

	return submitted, nil
}

// OnOrderEvent applies one status event. Terminal statuses drop the order
// from the working set; a rejection is logged and the decision layer simply
// re-issues on the next bar.
func (m *Manager) OnOrderEvent(event types.OrderStatusEvent) error {
	record, ok := m.working[event.OrderID]
	if !ok {
		// Late status for an order already dropped. Harmless for statuses;
		// only late fills are dangerous.
		m.log.Debug("status event for unknown order",
			zap.String("symbol", m.symbol),
			zap.String("order_id", event.OrderID),
			zap.String("status", string(event.Status)),
		)

		return nil
	}

	record.order.Status = event.Status

	if !event.Status.IsTerminal() {
		return nil
	}

	m.drop(event.OrderID)

	switch event.Status {
	case types.OrderStatusCancelled:
		m.cancelled[event.OrderID] = true
	case types.OrderStatusRejected:
		m.log.Warn("order rejected, will re-issue on next bar",
			zap.String("symbol", m.symbol),
			zap.String("order_id", event.OrderID),
			zap.String("reason", record.order.Reason.Reason),
		)
	case types.OrderStatusFilled:
		// Position accounting happens on the fill event.
	}

	return nil
}

// OnFill applies one fill event and returns the filled order. A fill for an
// order the manager believes cancelled, or never issued, indicates the
// working-order view has diverged from the venue; the instrument is halted
// and the error is fatal for this instrument.
func (m *Manager) OnFill(fill types.FillEvent) (types.WorkingOrder, error) {
	if m.cancelled[fill.OrderID] {
		m.halted = true

		return types.WorkingOrder{}, errors.Newf(errors.ErrCodeStaleOrder,
			"fill reported for cancelled order %s, halting %s", fill.OrderID, m.symbol)
	}

	record, ok := m.working[fill.OrderID]
	if !ok {
		m.halted = true

		return types.WorkingOrder{}, errors.Newf(errors.ErrCodeStaleOrder,
			"fill reported for unknown order %s, halting %s", fill.OrderID, m.symbol)
	}

	order := record.order
	order.Status = types.OrderStatusFilled
	m.drop(fill.OrderID)

	m.log.Info("order filled",
		zap.String("symbol", m.symbol),
		zap.String("order_id", order.ID),
		zap.String("side", string(order.Side)),
		zap.Float64("price", fill.Price),
		zap.Float64("quantity", fill.Quantity),
		zap.Float64("net_position", fill.NetPosition),
	)

	if order.OCAGroup != "" {
		if err := m.cancelGroupSiblings(order); err != nil {
			return order, err
		}
	}

	return order, nil
}

// cancelGroupSiblings cancels the surviving legs of a one-cancels-other
// group in the same processing step as the triggering fill.
func (m *Manager) cancelGroupSiblings(filled types.WorkingOrder) error {
	for _, id := range m.sequence {
		record, ok := m.working[id]
		if !ok || record.order.OCAGroup != filled.OCAGroup || record.cancelRequested {
			continue
		}

		record.cancelRequested = true

		if err := m.executor.CancelOrder(id); err != nil {
			if errors.HasCode(err, errors.ErrCodeOrderNotFound) {
				continue
			}

			return errors.Wrapf(errors.ErrCodeOrderFailed, err,
				"cancel of sibling leg %s failed", id)
		}

		m.log.Info("cancelled opposite leg",
			zap.String("symbol", m.symbol),
			zap.String("order_id", id),
			zap.String("oca_group", filled.OCAGroup),
		)
	}

	return nil
}

func (m *Manager) drop(orderID string) {
	delete(m.working, orderID)

	for i, id := range m.sequence {
		if id == orderID {
			m.sequence = append(m.sequence[:i], m.sequence[i+1:]...)

			break
		}
	}
}
