// Package indicator is the external computation boundary of the pipeline:
// pure look-back functions over bounded numeric history. Indicators never
// touch aggregation or position state, so alternate numeric backends can be
// swapped in behind the same interface.
package indicator

import (
	"math"

	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// Input carries the series an indicator may read, each ordered oldest first.
// Single-series indicators use Close; joint indicators additionally read
// High, Low and Volume. Period is the lookback length.
type Input struct {
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
	Period int
}

// Indicator computes one current scalar from a bounded history window.
//
// Under-length input yields an errors.InsufficientDataError and a non-finite
// result yields ErrCodeValueNotAvailable; both mean "not yet available" and
// must never be treated as zero.
type Indicator interface {
	// Name returns the indicator identifier.
	Name() types.IndicatorType
	// Compute returns the indicator value for the newest element of the
	// input window.
	Compute(input Input) (float64, error)
}

// checkLen verifies that the series holds at least required points.
func checkLen(series []float64, required int) error {
	if len(series) < required {
		return errors.NewInsufficientDataErrorf(required, len(series),
			"need %d data points, have %d", required, len(series))
	}

	return nil
}

// finite maps NaN/Inf results to a not-available error.
func finite(value float64) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.New(errors.ErrCodeValueNotAvailable, "indicator result is not finite")
	}

	return value, nil
}
