package indicator

import (
	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// EMA is the exponential moving average over the close series, seeded with
// the simple average of the first period values.
type EMA struct{}

// NewEMA creates a new exponential moving average indicator.
func NewEMA() Indicator {
	return &EMA{}
}

// Name returns the name of the indicator.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Compute returns the exponential moving average for the newest close.
func (e *EMA) Compute(input Input) (float64, error) {
	if input.Period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be positive, got %d", input.Period)
	}

	if err := checkLen(input.Close, input.Period); err != nil {
		return 0, err
	}

	seed := 0.0
	for _, v := range input.Close[:input.Period] {
		seed += v
	}

	ema := seed / float64(input.Period)
	multiplier := 2.0 / float64(input.Period+1)

	for _, v := range input.Close[input.Period:] {
		ema = (v-ema)*multiplier + ema
	}

	return finite(ema)
}
