package indicator

import (
	"math"

	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// ATR is the Average True Range with Wilder smoothing over joint
// high/low/close series.
type ATR struct{}

// NewATR creates a new ATR indicator.
func NewATR() Indicator {
	return &ATR{}
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Compute returns the smoothed average true range for the newest bar.
// Requires Period+1 points so every true range has a previous close.
func (a *ATR) Compute(input Input) (float64, error) {
	if input.Period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be positive, got %d", input.Period)
	}

	if len(input.High) != len(input.Low) || len(input.High) != len(input.Close) {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "high/low/close series lengths differ")
	}

	if err := checkLen(input.Close, input.Period+1); err != nil {
		return 0, err
	}

	trueRanges := make([]float64, 0, len(input.Close)-1)

	for i := 1; i < len(input.Close); i++ {
		highLow := input.High[i] - input.Low[i]
		highClose := math.Abs(input.High[i] - input.Close[i-1])
		lowClose := math.Abs(input.Low[i] - input.Close[i-1])
		trueRanges = append(trueRanges, math.Max(highLow, math.Max(highClose, lowClose)))
	}

	// Seed with the simple mean of the first period, then apply Wilder
	// smoothing over the remainder.
	atr := 0.0
	for _, tr := range trueRanges[:input.Period] {
		atr += tr
	}

	atr /= float64(input.Period)

	for _, tr := range trueRanges[input.Period:] {
		atr = (atr*float64(input.Period-1) + tr) / float64(input.Period)
	}

	return finite(atr)
}
