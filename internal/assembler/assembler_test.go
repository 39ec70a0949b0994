package assembler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

func tick(symbol string, at time.Time, price float64, volume, openInterest int64) types.Tick {
	return types.Tick{
		Symbol:       symbol,
		Price:        price,
		Volume:       volume,
		OpenInterest: openInterest,
		Time:         at,
	}
}

func TestNewAssembler(t *testing.T) {
	tests := []struct {
		name    string
		period  time.Duration
		mode    VolumeMode
		wantErr bool
	}{
		{name: "per bucket", period: time.Minute, mode: VolumeModePerBucket, wantErr: false},
		{name: "cumulative", period: time.Minute, mode: VolumeModeCumulative, wantErr: false},
		{name: "zero period", period: 0, mode: VolumeModePerBucket, wantErr: true},
		{name: "unknown mode", period: time.Minute, mode: VolumeMode("bogus"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.period, tt.mode)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAssemblerBucketOHLC(t *testing.T) {
	a, err := New(time.Minute, VolumeModePerBucket)
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	// Four ticks inside one bucket, then one on the next boundary.
	for _, tk := range []types.Tick{
		tick("rb888", base.Add(5*time.Second), 100, 10, 5000),
		tick("rb888", base.Add(20*time.Second), 103, 20, 5010),
		tick("rb888", base.Add(40*time.Second), 98, 30, 5005),
		tick("rb888", base.Add(59*time.Second), 101, 40, 5020),
	} {
		closed, err := a.OnTick(tk)
		require.NoError(t, err)
		assert.True(t, closed.IsNone())
	}

	closed, err := a.OnTick(tick("rb888", base.Add(time.Minute), 102, 5, 5030))
	require.NoError(t, err)
	require.True(t, closed.IsSome())

	bar := closed.Unwrap()
	assert.Equal(t, 100.0, bar.Open)
	assert.Equal(t, 103.0, bar.High)
	assert.Equal(t, 98.0, bar.Low)
	assert.Equal(t, 101.0, bar.Close)
	assert.Equal(t, int64(40), bar.Volume, "per-bucket mode takes the last tick volume")
	assert.Equal(t, int64(5020), bar.OpenInterest)
	assert.Equal(t, base.Add(5*time.Second), bar.Start)
}

func TestAssemblerBoundaryTickOpensNewBucket(t *testing.T) {
	a, err := New(time.Minute, VolumeModePerBucket)
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err = a.OnTick(tick("rb888", base.Add(30*time.Second), 100, 1, 0))
	require.NoError(t, err)

	// A tick exactly on the boundary closes the previous bucket.
	closed, err := a.OnTick(tick("rb888", base.Add(time.Minute), 101, 2, 0))
	require.NoError(t, err)
	require.True(t, closed.IsSome())
	assert.Equal(t, 100.0, closed.Unwrap().Close)

	open := a.Flush()
	require.True(t, open.IsSome())
	assert.Equal(t, 101.0, open.Unwrap().Open)
}

func TestAssemblerCumulativeVolume(t *testing.T) {
	a, err := New(time.Minute, VolumeModeCumulative)
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	// First bucket: cumulative counter starts at 1000.
	_, err = a.OnTick(tick("rb888", base, 100, 1000, 0))
	require.NoError(t, err)
	_, err = a.OnTick(tick("rb888", base.Add(30*time.Second), 101, 1040, 0))
	require.NoError(t, err)

	closed, err := a.OnTick(tick("rb888", base.Add(time.Minute), 102, 1050, 0))
	require.NoError(t, err)
	require.True(t, closed.IsSome(), "bucket with a computed delta is emitted")
	assert.Equal(t, int64(40), closed.Unwrap().Volume, "delta against the bucket-start counter")

	// Second bucket rollover emits with the in-bucket delta.
	_, err = a.OnTick(tick("rb888", base.Add(90*time.Second), 103, 1080, 0))
	require.NoError(t, err)

	closed, err = a.OnTick(tick("rb888", base.Add(2*time.Minute), 104, 1085, 0))
	require.NoError(t, err)
	require.True(t, closed.IsSome())
	assert.Equal(t, int64(30), closed.Unwrap().Volume)
}

func TestAssemblerCumulativeFirstBucketSuppressed(t *testing.T) {
	a, err := New(time.Minute, VolumeModeCumulative)
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	// Single tick in the first bucket: no in-bucket delta is ever computed.
	_, err = a.OnTick(tick("rb888", base, 100, 1000, 0))
	require.NoError(t, err)

	closed, err := a.OnTick(tick("rb888", base.Add(time.Minute), 101, 1010, 0))
	require.NoError(t, err)
	assert.True(t, closed.IsNone(), "first bucket without an established delta must be suppressed")
}

func TestAssemblerRejectsOutOfOrderTick(t *testing.T) {
	a, err := New(time.Minute, VolumeModePerBucket)
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err = a.OnTick(tick("rb888", base.Add(2*time.Minute), 100, 1, 0))
	require.NoError(t, err)

	_, err = a.OnTick(tick("rb888", base, 99, 1, 0))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTick))
}

func TestAssemblerFlushDoesNotClose(t *testing.T) {
	a, err := New(time.Minute, VolumeModePerBucket)
	require.NoError(t, err)

	assert.True(t, a.Flush().IsNone())

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err = a.OnTick(tick("rb888", base, 100, 1, 0))
	require.NoError(t, err)

	open := a.Flush()
	require.True(t, open.IsSome())
	assert.Equal(t, 100.0, open.Unwrap().Close)

	// The bucket is still open: another in-bucket tick accumulates.
	_, err = a.OnTick(tick("rb888", base.Add(10*time.Second), 105, 2, 0))
	require.NoError(t, err)
	assert.Equal(t, 105.0, a.Flush().Unwrap().High)
}
