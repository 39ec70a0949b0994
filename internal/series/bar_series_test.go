package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toriphy/cta-engine/internal/types"
)

func TestBarSeriesPushAndWarm(t *testing.T) {
	s, err := NewBarSeries(2)
	require.NoError(t, err)

	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	s.PushBar(types.Bar{
		Symbol: "rb888", Start: start,
		Open: 10, High: 12, Low: 9, Close: 11,
		Volume: 100, OpenInterest: 5000,
	})

	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Warm())

	s.PushBar(types.Bar{
		Symbol: "rb888", Start: start.Add(time.Minute),
		Open: 11, High: 13, Low: 10, Close: 12,
		Volume: 200, OpenInterest: 5100,
	})

	assert.True(t, s.Warm())
	assert.Equal(t, []float64{10, 11}, s.Open().Values())
	assert.Equal(t, []float64{12, 13}, s.High().Values())
	assert.Equal(t, []float64{9, 10}, s.Low().Values())
	assert.Equal(t, []float64{11, 12}, s.Close().Values())
	assert.Equal(t, []float64{100, 200}, s.Volume().Values())
	assert.Equal(t, []float64{5000, 5100}, s.OpenInterest().Values())
}

func TestBarSeriesReset(t *testing.T) {
	s, err := NewBarSeries(1)
	require.NoError(t, err)

	s.PushBar(types.Bar{Close: 42, Volume: 1})
	require.True(t, s.Warm())

	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Warm())
}
