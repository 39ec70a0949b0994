package indicator

import (
	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// MA is the simple moving average over the close series.
type MA struct{}

// NewMA creates a new simple moving average indicator.
func NewMA() Indicator {
	return &MA{}
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	return types.IndicatorTypeMA
}

// Compute returns the mean of the last Period closes.
func (m *MA) Compute(input Input) (float64, error) {
	if input.Period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be positive, got %d", input.Period)
	}

	if err := checkLen(input.Close, input.Period); err != nil {
		return 0, err
	}

	window := input.Close[len(input.Close)-input.Period:]

	sum := 0.0
	for _, v := range window {
		sum += v
	}

	return finite(sum / float64(input.Period))
}
