package indicator

import (
	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// OBV is the on-balance volume: a running sum of volume signed by the
// direction of the close-to-close change over the whole window.
type OBV struct{}

// NewOBV creates a new on-balance volume indicator.
func NewOBV() Indicator {
	return &OBV{}
}

// Name returns the name of the indicator.
func (o *OBV) Name() types.IndicatorType {
	return types.IndicatorTypeOBV
}

// Compute returns the on-balance volume accumulated over the input window.
// Period is ignored; the window itself bounds the accumulation.
func (o *OBV) Compute(input Input) (float64, error) {
	if len(input.Close) != len(input.Volume) {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "close/volume series lengths differ")
	}

	if err := checkLen(input.Close, 2); err != nil {
		return 0, err
	}

	obv := 0.0

	for i := 1; i < len(input.Close); i++ {
		switch {
		case input.Close[i] > input.Close[i-1]:
			obv += input.Volume[i]
		case input.Close[i] < input.Close[i-1]:
			obv -= input.Volume[i]
		}
	}

	return finite(obv)
}
