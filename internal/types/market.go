package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/toriphy/cta-engine/pkg/errors"
)

// Tick is a single trade update from the feed. Volume is the cumulative
// traded volume as pushed by the venue, not the per-tick quantity.
// Ticks are immutable once received.
type Tick struct {
	Symbol       string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Price        float64   `yaml:"price" json:"price" csv:"price" validate:"required,gt=0"`
	Volume       int64     `yaml:"volume" json:"volume" csv:"volume" validate:"gte=0"`
	OpenInterest int64     `yaml:"open_interest" json:"open_interest" csv:"open_interest" validate:"gte=0"`
	Time         time.Time `yaml:"time" json:"time" csv:"time" validate:"required"`
}

// Validate validates the Tick struct.
func (t *Tick) Validate() error {
	validate := validator.New()
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTick, "invalid tick", err)
	}

	return nil
}

// Bar is an OHLCV + open-interest summary of one time bucket. Volume is
// bucket-local; OpenInterest is the snapshot at the last update inside the
// bucket. Start is the timestamp of the first update that opened the bucket.
//
// For bars produced by the multi-period aggregator, SubVolumes and
// SubOpenInterests carry the ordered per-sub-bar samples that composed the
// bar. SubOpenInterests holds one extra leading element: the open-interest
// snapshot from the sub-bar just before the window, needed to compute the
// first sub-bar's delta.
type Bar struct {
	Symbol       string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Start        time.Time `yaml:"start" json:"start" csv:"start"`
	Open         float64   `yaml:"open" json:"open" csv:"open"`
	High         float64   `yaml:"high" json:"high" csv:"high"`
	Low          float64   `yaml:"low" json:"low" csv:"low"`
	Close        float64   `yaml:"close" json:"close" csv:"close"`
	Volume       int64     `yaml:"volume" json:"volume" csv:"volume"`
	OpenInterest int64     `yaml:"open_interest" json:"open_interest" csv:"open_interest"`

	SubVolumes       []int64 `yaml:"sub_volumes,omitempty" json:"sub_volumes,omitempty" csv:"-"`
	SubOpenInterests []int64 `yaml:"sub_open_interests,omitempty" json:"sub_open_interests,omitempty" csv:"-"`
}

// NewBarFromTick opens a bar seeded from the first tick of a bucket.
// The initial bucket-local volume is resolved by the assembler depending on
// the configured volume mode, so it is passed in explicitly.
func NewBarFromTick(tick Tick, volume int64) Bar {
	return Bar{
		Symbol:       tick.Symbol,
		Start:        tick.Time,
		Open:         tick.Price,
		High:         tick.Price,
		Low:          tick.Price,
		Close:        tick.Price,
		Volume:       volume,
		OpenInterest: tick.OpenInterest,
	}
}
