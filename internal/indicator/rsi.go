package indicator

import (
	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// RSI is the Relative Strength Index with Wilder smoothing.
type RSI struct{}

// NewRSI creates a new RSI indicator.
func NewRSI() Indicator {
	return &RSI{}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Compute returns the RSI for the newest close. Requires Period+1 points.
// A window with no losses returns 100, with no gains 0.
func (r *RSI) Compute(input Input) (float64, error) {
	if input.Period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be positive, got %d", input.Period)
	}

	if err := checkLen(input.Close, input.Period+1); err != nil {
		return 0, err
	}

	var avgGain, avgLoss float64

	for i := 1; i <= input.Period; i++ {
		change := input.Close[i] - input.Close[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}

	avgGain /= float64(input.Period)
	avgLoss /= float64(input.Period)

	for i := input.Period + 1; i < len(input.Close); i++ {
		change := input.Close[i] - input.Close[i-1]

		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(input.Period-1) + gain) / float64(input.Period)
		avgLoss = (avgLoss*float64(input.Period-1) + loss) / float64(input.Period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil
		}

		return 100, nil
	}

	rs := avgGain / avgLoss

	return finite(100 - 100/(1+rs))
}
