// Package series provides the fixed-capacity rolling windows that feed the
// indicator layer. One BarSeries is owned by exactly one strategy instance;
// buffers are never shared across instruments.
package series

import (
	"github.com/toriphy/cta-engine/pkg/errors"
)

// RollingBuffer is a fixed-capacity FIFO window over one numeric metric.
// Pushing beyond capacity evicts the oldest value. The buffer reports warm
// once it has seen at least capacity pushes since construction or reset.
type RollingBuffer struct {
	capacity int
	values   []float64
	pushes   int
}

// NewRollingBuffer creates a buffer holding the last capacity values.
func NewRollingBuffer(capacity int) (*RollingBuffer, error) {
	if capacity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidCapacity, "capacity must be positive, got %d", capacity)
	}

	return &RollingBuffer{
		capacity: capacity,
		values:   make([]float64, 0, capacity),
		pushes:   0,
	}, nil
}

// Push appends a value at the newest end, evicting the oldest value once
// the buffer is full.
func (b *RollingBuffer) Push(value float64) {
	if len(b.values) == b.capacity {
		copy(b.values, b.values[1:])
		b.values[b.capacity-1] = value
	} else {
		b.values = append(b.values, value)
	}

	b.pushes++
}

// Len returns the number of values currently held.
func (b *RollingBuffer) Len() int {
	return len(b.values)
}

// Cap returns the buffer capacity.
func (b *RollingBuffer) Cap() int {
	return b.capacity
}

// Warm reports whether the buffer has received at least capacity pushes
// since construction or the last reset. Consumers must not produce order
// intents before the buffer is warm.
func (b *RollingBuffer) Warm() bool {
	return b.pushes >= b.capacity
}

// Values returns a copy of the current contents, oldest first.
func (b *RollingBuffer) Values() []float64 {
	out := make([]float64, len(b.values))
	copy(out, b.values)

	return out
}

// Last returns the value i positions back from the newest (Last(0) is the
// most recent push).
func (b *RollingBuffer) Last(i int) (float64, error) {
	if i < 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "negative lookback %d", i)
	}

	if i >= len(b.values) {
		return 0, errors.NewInsufficientDataErrorf(i+1, len(b.values),
			"lookback %d exceeds buffered history %d", i, len(b.values))
	}

	return b.values[len(b.values)-1-i], nil
}

// Reset discards all values and restarts the warm-up counter.
func (b *RollingBuffer) Reset() {
	b.values = b.values[:0]
	b.pushes = 0
}
