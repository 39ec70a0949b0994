package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/toriphy/cta-engine/pkg/errors"
)

type OrderSide string

type OrderStatus string

const (
	// OrderSideBuy opens or adds to a long position.
	OrderSideBuy OrderSide = "BUY"
	// OrderSideSell closes a long position.
	OrderSideSell OrderSide = "SELL"
	// OrderSideShort opens or adds to a short position.
	OrderSideShort OrderSide = "SHORT"
	// OrderSideCover closes a short position.
	OrderSideCover OrderSide = "COVER"
)

const (
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	OrderStatusPartial   OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

const (
	OrderReasonEntry        string = "entry"
	OrderReasonBreakout     string = "breakout_entry"
	OrderReasonTrailingStop string = "trailing_stop"
	OrderReasonCutLoss      string = "fixed_cut_loss"
)

// IsExit reports whether the side reduces existing exposure.
func (s OrderSide) IsExit() bool {
	return s == OrderSideSell || s == OrderSideCover
}

// IsTerminal reports whether the status is final: the order can no longer
// fill and must not be tracked as working.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	case OrderStatusSubmitted, OrderStatusPartial:
		return false
	}

	return false
}

// Reason records why an order was placed.
type Reason struct {
	Reason  string `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	Message string `yaml:"message" json:"message" csv:"message"`
}

// WorkingOrder is an order the lifecycle manager currently tracks. Orders in
// a terminal status stay queryable in the store but are dropped from the
// working set.
type WorkingOrder struct {
	ID       string    `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	Symbol   string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side     OrderSide `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL SHORT COVER"`
	Price    float64   `yaml:"price" json:"price" csv:"price" validate:"required,gt=0"`
	Quantity float64   `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	// IsStop marks a stop order: it triggers once the market trades
	// through Price instead of resting at it.
	IsStop bool        `yaml:"is_stop" json:"is_stop" csv:"is_stop"`
	Status OrderStatus `yaml:"status" json:"status" csv:"status"`
	// OCAGroup tags the two legs of a one-cancels-other pair. Empty for
	// standalone orders.
	OCAGroup    string    `yaml:"oca_group,omitempty" json:"oca_group,omitempty" csv:"oca_group"`
	Reason      Reason    `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	SubmittedAt time.Time `yaml:"submitted_at" json:"submitted_at" csv:"submitted_at"`
}

// Validate validates the WorkingOrder struct.
func (o *WorkingOrder) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}

// OrderStatusEvent is a status change pushed back from the execution
// boundary. Events must be applied in arrival order.
type OrderStatusEvent struct {
	OrderID string      `yaml:"order_id" json:"order_id" csv:"order_id"`
	Status  OrderStatus `yaml:"status" json:"status" csv:"status"`
	Time    time.Time   `yaml:"time" json:"time" csv:"time"`
}

// FillEvent is a trade fill pushed back from the execution boundary.
// NetPosition is the resulting signed net position after the fill.
type FillEvent struct {
	OrderID     string    `yaml:"order_id" json:"order_id" csv:"order_id"`
	Price       float64   `yaml:"price" json:"price" csv:"price"`
	Quantity    float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	NetPosition float64   `yaml:"net_position" json:"net_position" csv:"net_position"`
	Time        time.Time `yaml:"time" json:"time" csv:"time"`
}
