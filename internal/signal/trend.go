package signal

import (
	"github.com/toriphy/cta-engine/internal/indicator"
	"github.com/toriphy/cta-engine/internal/series"
	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// TrendState is the higher-timeframe trend flag gating entries.
type TrendState int

const (
	TrendBearish TrendState = -1
	TrendNeutral TrendState = 0
	TrendBullish TrendState = 1
)

// TrendFilter derives the trend flag from a short/long moving-average
// comparison on the long-cycle close series. The flag holds its last value
// until the long-cycle window is warm enough to re-derive it.
type TrendFilter struct {
	shortPeriod int
	longPeriod  int
	ma          indicator.Indicator
	state       TrendState
}

// NewTrendFilter creates a filter comparing MA(shortPeriod) to MA(longPeriod).
// The average is resolved through the registry.
func NewTrendFilter(registry indicator.Registry, shortPeriod, longPeriod int) (*TrendFilter, error) {
	if shortPeriod <= 0 || longPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod,
			"trend filter periods must be positive, got %d/%d", shortPeriod, longPeriod)
	}

	if shortPeriod >= longPeriod {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"short period %d must be below long period %d", shortPeriod, longPeriod)
	}

	ma, err := registry.Get(types.IndicatorTypeMA)
	if err != nil {
		return nil, err
	}

	return &TrendFilter{
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
		ma:          ma,
		state:       TrendNeutral,
	}, nil
}

// Update recomputes the flag from the long-cycle series. Insufficient
// history leaves the previous flag in place and is not an error.
func (f *TrendFilter) Update(longCycle *series.BarSeries) error {
	if !longCycle.Warm() {
		return nil
	}

	closes := longCycle.Close().Values()

	shortMA, err := f.ma.Compute(indicator.Input{Close: closes, Period: f.shortPeriod})
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return nil
		}

		return err
	}

	longMA, err := f.ma.Compute(indicator.Input{Close: closes, Period: f.longPeriod})
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return nil
		}

		return err
	}

	switch {
	case shortMA > longMA:
		f.state = TrendBullish
	case shortMA < longMA:
		f.state = TrendBearish
	default:
		f.state = TrendNeutral
	}

	return nil
}

// State returns the current trend flag.
func (f *TrendFilter) State() TrendState {
	return f.state
}
