package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toriphy/cta-engine/pkg/errors"
)

func TestNewRollingBuffer(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantErr  bool
	}{
		{name: "valid capacity", capacity: 5, wantErr: false},
		{name: "capacity of one", capacity: 1, wantErr: false},
		{name: "zero capacity", capacity: 0, wantErr: true},
		{name: "negative capacity", capacity: -3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buffer, err := NewRollingBuffer(tt.capacity)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidCapacity))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.capacity, buffer.Cap())
			assert.Equal(t, 0, buffer.Len())
			assert.False(t, buffer.Warm())
		})
	}
}

func TestRollingBufferPushEvictsOldest(t *testing.T) {
	buffer, err := NewRollingBuffer(3)
	require.NoError(t, err)

	for _, v := range []float64{1, 2, 3} {
		buffer.Push(v)
	}

	assert.Equal(t, []float64{1, 2, 3}, buffer.Values())

	buffer.Push(4)

	assert.Equal(t, []float64{2, 3, 4}, buffer.Values())
	assert.Equal(t, 3, buffer.Len())
}

func TestRollingBufferWarm(t *testing.T) {
	buffer, err := NewRollingBuffer(3)
	require.NoError(t, err)

	buffer.Push(1)
	buffer.Push(2)
	assert.False(t, buffer.Warm(), "two pushes into capacity 3 must not be warm")

	buffer.Push(3)
	assert.True(t, buffer.Warm())

	// Warm persists once reached.
	buffer.Push(4)
	assert.True(t, buffer.Warm())
}

func TestRollingBufferLast(t *testing.T) {
	buffer, err := NewRollingBuffer(4)
	require.NoError(t, err)

	for _, v := range []float64{10, 20, 30} {
		buffer.Push(v)
	}

	newest, err := buffer.Last(0)
	require.NoError(t, err)
	assert.Equal(t, 30.0, newest)

	oldest, err := buffer.Last(2)
	require.NoError(t, err)
	assert.Equal(t, 10.0, oldest)

	_, err = buffer.Last(3)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientDataError(err))

	_, err = buffer.Last(-1)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func TestRollingBufferValuesIsACopy(t *testing.T) {
	buffer, err := NewRollingBuffer(2)
	require.NoError(t, err)

	buffer.Push(1)
	buffer.Push(2)

	values := buffer.Values()
	values[0] = 99

	fresh := buffer.Values()
	assert.Equal(t, []float64{1, 2}, fresh)
}

func TestRollingBufferReset(t *testing.T) {
	buffer, err := NewRollingBuffer(2)
	require.NoError(t, err)

	buffer.Push(1)
	buffer.Push(2)
	require.True(t, buffer.Warm())

	buffer.Reset()

	assert.Equal(t, 0, buffer.Len())
	assert.False(t, buffer.Warm(), "reset must restart the warm-up counter")

	buffer.Push(5)
	assert.False(t, buffer.Warm())

	buffer.Push(6)
	assert.True(t, buffer.Warm())
}
