// Package execution owns the order lifecycle: issuing entries, replacing
// protective stops, and guaranteeing stale working orders are cancelled
// before new ones go out.
package execution

import (
	"github.com/toriphy/cta-engine/internal/types"
)

// Executor is the external execution boundary. Submission and cancellation
// are fire-and-forget intents; outcomes arrive later as discrete events that
// must be applied in arrival order.
type Executor interface {
	// SubmitOrder hands one order to the venue.
	SubmitOrder(order types.WorkingOrder) error
	// CancelOrder requests cancellation of a working order.
	CancelOrder(orderID string) error
}

// EventKind discriminates the event union coming back from the boundary.
type EventKind string

const (
	EventKindStatus EventKind = "status"
	EventKindFill   EventKind = "fill"
)

// Event is one execution-boundary outcome. Exactly one of Status or Fill is
// meaningful, selected by Kind. Events preserve venue ordering.
type Event struct {
	Kind   EventKind
	Status types.OrderStatusEvent
	Fill   types.FillEvent
}
