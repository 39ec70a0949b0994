package series

import (
	"github.com/toriphy/cta-engine/internal/types"
)

// BarSeries bundles one rolling buffer per bar metric for a single
// aggregation period. All buffers share the capacity and advance together,
// exactly one push per closed bar, so a single warm-up check covers them all.
type BarSeries struct {
	open         *RollingBuffer
	high         *RollingBuffer
	low          *RollingBuffer
	close        *RollingBuffer
	volume       *RollingBuffer
	openInterest *RollingBuffer
}

// NewBarSeries creates a series set with the given window capacity.
func NewBarSeries(capacity int) (*BarSeries, error) {
	buffers := make([]*RollingBuffer, 6)

	for i := range buffers {
		buffer, err := NewRollingBuffer(capacity)
		if err != nil {
			return nil, err
		}

		buffers[i] = buffer
	}

	return &BarSeries{
		open:         buffers[0],
		high:         buffers[1],
		low:          buffers[2],
		close:        buffers[3],
		volume:       buffers[4],
		openInterest: buffers[5],
	}, nil
}

// PushBar appends one closed bar to every metric buffer.
func (s *BarSeries) PushBar(bar types.Bar) {
	s.open.Push(bar.Open)
	s.high.Push(bar.High)
	s.low.Push(bar.Low)
	s.close.Push(bar.Close)
	s.volume.Push(float64(bar.Volume))
	s.openInterest.Push(float64(bar.OpenInterest))
}

// Warm reports whether the window holds a full capacity of bars.
func (s *BarSeries) Warm() bool {
	return s.close.Warm()
}

// Len returns the number of bars currently buffered.
func (s *BarSeries) Len() int {
	return s.close.Len()
}

// Reset clears every buffer and restarts warm-up.
func (s *BarSeries) Reset() {
	s.open.Reset()
	s.high.Reset()
	s.low.Reset()
	s.close.Reset()
	s.volume.Reset()
	s.openInterest.Reset()
}

func (s *BarSeries) Open() *RollingBuffer         { return s.open }
func (s *BarSeries) High() *RollingBuffer         { return s.high }
func (s *BarSeries) Low() *RollingBuffer          { return s.low }
func (s *BarSeries) Close() *RollingBuffer        { return s.close }
func (s *BarSeries) Volume() *RollingBuffer       { return s.volume }
func (s *BarSeries) OpenInterest() *RollingBuffer { return s.openInterest }
