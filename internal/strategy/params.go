package strategy

import (
	"github.com/go-playground/validator/v10"

	"github.com/toriphy/cta-engine/pkg/errors"
)

// Params are the position-management parameters shared by every strategy
// variant. Percentages are expressed in percent, not fractions (3 means 3%).
type Params struct {
	// FixedSize is the quantity of every entry order.
	FixedSize float64 `yaml:"fixed_size" json:"fixed_size" validate:"required,gt=0"`
	// EntryOffset is added through the market on entry orders to promote
	// fill certainty (buy at close+offset, short at close-offset).
	EntryOffset float64 `yaml:"entry_offset" json:"entry_offset" validate:"gte=0"`
	// ExitOffset prices the cut-loss exit slightly worse than the last
	// close, against the position.
	ExitOffset float64 `yaml:"exit_offset" json:"exit_offset" validate:"gte=0"`
	// TrailingPercent trails the protective stop below the intratrade
	// high (long) or above the intratrade low (short).
	TrailingPercent float64 `yaml:"trailing_percent" json:"trailing_percent" validate:"required,gt=0"`
	// FixedCutLossPercent is the fixed stop distance from cost basis.
	FixedCutLossPercent float64 `yaml:"fixed_cut_loss_percent" json:"fixed_cut_loss_percent" validate:"required,gt=0"`
	// UseOCOEntries submits breakout entries as a one-cancels-other stop
	// pair straddling the channel instead of a single directional order.
	UseOCOEntries bool `yaml:"use_oco_entries" json:"use_oco_entries"`
}

// Validate validates the Params struct.
func (p *Params) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid strategy params", err)
	}

	return nil
}
