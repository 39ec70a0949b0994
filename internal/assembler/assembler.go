// Package assembler converts a tick stream into fixed-duration base bars.
package assembler

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// VolumeMode selects how the bucket-local volume is derived from the feed's
// volume field. Feeds differ: some reset the counter every bucket, most push
// the session-cumulative total.
type VolumeMode string

const (
	// VolumeModePerBucket takes the tick volume as the bucket volume
	// directly.
	VolumeModePerBucket VolumeMode = "per_bucket"
	// VolumeModeCumulative derives the bucket volume as the delta between
	// the tick's cumulative volume and the value recorded at bucket start.
	VolumeModeCumulative VolumeMode = "cumulative"
)

// Assembler folds ticks into one open bar per bucket and emits the bar once
// a tick crosses the bucket boundary. A tick exactly on the boundary belongs
// to the new bucket.
//
// In cumulative mode the very first bucket has no reference volume, so bars
// are suppressed until at least one in-bucket delta has been computed.
// Emitting a first bar with a garbage volume would poison every volume-based
// indicator downstream.
type Assembler struct {
	period time.Duration
	mode   VolumeMode

	bar         *types.Bar
	bucket      time.Time
	startVolume int64
	established bool
}

// New creates an assembler for the given base bucket duration.
func New(period time.Duration, mode VolumeMode) (*Assembler, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "bucket period must be positive, got %s", period)
	}

	if mode != VolumeModePerBucket && mode != VolumeModeCumulative {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown volume mode %q", mode)
	}

	return &Assembler{
		period:      period,
		mode:        mode,
		bar:         nil,
		bucket:      time.Time{},
		startVolume: 0,
		established: mode == VolumeModePerBucket,
	}, nil
}

// OnTick folds one tick and returns the previously open bar if the tick
// opened a new bucket. Ticks must arrive in non-decreasing time order.
func (a *Assembler) OnTick(tick types.Tick) (optional.Option[types.Bar], error) {
	bucket := tick.Time.Truncate(a.period)

	if a.bar != nil && bucket.Before(a.bucket) {
		return optional.None[types.Bar](), errors.Newf(errors.ErrCodeInvalidTick,
			"tick at %s is older than open bucket %s", tick.Time, a.bucket)
	}

	if a.bar == nil || !bucket.Equal(a.bucket) {
		closed := a.rollover(tick, bucket)

		return closed, nil
	}

	// Accumulate into the open bar.
	if tick.Price > a.bar.High {
		a.bar.High = tick.Price
	}

	if tick.Price < a.bar.Low {
		a.bar.Low = tick.Price
	}

	a.bar.Close = tick.Price
	a.bar.OpenInterest = tick.OpenInterest

	switch a.mode {
	case VolumeModePerBucket:
		a.bar.Volume = tick.Volume
	case VolumeModeCumulative:
		a.bar.Volume = tick.Volume - a.startVolume
		a.established = true
	}

	return optional.None[types.Bar](), nil
}

// Flush returns the currently open bar without closing it. Used by callers
// that need a partial view, never for downstream aggregation.
func (a *Assembler) Flush() optional.Option[types.Bar] {
	if a.bar == nil {
		return optional.None[types.Bar]()
	}

	return optional.Some(*a.bar)
}

func (a *Assembler) rollover(tick types.Tick, bucket time.Time) optional.Option[types.Bar] {
	closed := optional.None[types.Bar]()
	if a.bar != nil && a.established {
		closed = optional.Some(*a.bar)
	}

	var volume int64
	if a.mode == VolumeModePerBucket {
		volume = tick.Volume
	}

	bar := types.NewBarFromTick(tick, volume)
	a.bar = &bar
	a.bucket = bucket
	a.startVolume = tick.Volume

	return closed
}
