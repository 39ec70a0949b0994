// Package aggregator folds closed base bars into coarser fixed-multiple bars
// for several periods at once.
package aggregator

import (
	"time"

	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// PeriodConfig describes one aggregation period. N is the number of base
// bars per coarse bar. Offset shifts the close boundary for feeds that start
// mid-period.
type PeriodConfig struct {
	N      int `yaml:"n" json:"n" validate:"required,gt=1"`
	Offset int `yaml:"offset" json:"offset" validate:"gte=0"`
}

// PeriodBar is a closed coarse bar tagged with the period that produced it.
type PeriodBar struct {
	Period int
	Bar    types.Bar
}

type periodState struct {
	n      int
	offset int
	open   *types.Bar
	// carry is the open-interest snapshot of the last sub-bar before the
	// currently open window. Composite ratio indicators need one sample
	// from before the window to compute the first sub-bar delta.
	carry    int64
	hasCarry bool
}

// Aggregator maintains one open coarse bar per configured period over a
// single base-bar stream. Periods are independent: they never interact and
// each closes on its own boundary.
type Aggregator struct {
	basePeriod time.Duration
	periods    []*periodState
}

// New creates an aggregator for the given base bar duration and periods.
func New(basePeriod time.Duration, periods []PeriodConfig) (*Aggregator, error) {
	if basePeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "base period must be positive, got %s", basePeriod)
	}

	if len(periods) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "at least one aggregation period is required")
	}

	states := make([]*periodState, 0, len(periods))

	for _, p := range periods {
		if p.N <= 1 {
			return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "aggregation multiple must exceed 1, got %d", p.N)
		}

		if p.Offset < 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter, "offset must be non-negative, got %d", p.Offset)
		}

		states = append(states, &periodState{
			n:        p.N,
			offset:   p.Offset,
			open:     nil,
			carry:    0,
			hasCarry: false,
		})
	}

	return &Aggregator{
		basePeriod: basePeriod,
		periods:    states,
	}, nil
}

// OnBar folds one closed base bar into every configured period and returns
// the coarse bars that closed on this base bar, in configuration order.
func (a *Aggregator) OnBar(bar types.Bar) []PeriodBar {
	index := bar.Start.Truncate(a.basePeriod).UnixNano() / int64(a.basePeriod)

	var closed []PeriodBar

	for _, p := range a.periods {
		p.fold(bar)

		if (index+int64(p.offset))%int64(p.n) == int64(p.n-1) {
			closed = append(closed, PeriodBar{Period: p.n, Bar: *p.open})
			p.carry = bar.OpenInterest
			p.hasCarry = true
			p.open = nil
		}
	}

	return closed
}

func (p *periodState) fold(bar types.Bar) {
	if p.open == nil {
		seed := bar.OpenInterest
		if p.hasCarry {
			seed = p.carry
		}

		open := types.Bar{
			Symbol:           bar.Symbol,
			Start:            bar.Start,
			Open:             bar.Open,
			High:             bar.High,
			Low:              bar.Low,
			Close:            bar.Close,
			Volume:           bar.Volume,
			OpenInterest:     bar.OpenInterest,
			SubVolumes:       []int64{bar.Volume},
			SubOpenInterests: []int64{seed, bar.OpenInterest},
		}
		p.open = &open

		return
	}

	open := p.open

	if bar.High > open.High {
		open.High = bar.High
	}

	if bar.Low < open.Low {
		open.Low = bar.Low
	}

	open.Close = bar.Close
	open.Volume += bar.Volume
	open.OpenInterest = bar.OpenInterest
	open.SubVolumes = append(open.SubVolumes, bar.Volume)
	open.SubOpenInterests = append(open.SubOpenInterests, bar.OpenInterest)
}
