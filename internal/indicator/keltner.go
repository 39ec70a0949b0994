package indicator

import (
	"github.com/toriphy/cta-engine/internal/types"
)

// Channel is one evaluation of the Keltner channel bands.
type Channel struct {
	Mid   float64
	Upper float64
	Lower float64
}

// KeltnerChannel computes the King Keltner variant: the mid band is a simple
// moving average of closes and the band width is a multiple of ATR. Upper
// and lower deviations are configured independently.
type KeltnerChannel struct {
	devUp   float64
	devDown float64

	ma  Indicator
	atr Indicator
}

// NewKeltnerChannel creates a channel with the given band deviations. The
// mid-band average and the range estimator are resolved through the registry,
// so a substituted numeric backend is picked up here as well.
func NewKeltnerChannel(registry Registry, devUp, devDown float64) (*KeltnerChannel, error) {
	ma, err := registry.Get(types.IndicatorTypeMA)
	if err != nil {
		return nil, err
	}

	atr, err := registry.Get(types.IndicatorTypeATR)
	if err != nil {
		return nil, err
	}

	return &KeltnerChannel{
		devUp:   devUp,
		devDown: devDown,
		ma:      ma,
		atr:     atr,
	}, nil
}

// Name returns the name of the indicator.
func (k *KeltnerChannel) Name() types.IndicatorType {
	return types.IndicatorTypeKeltner
}

// Compute implements Indicator; it returns the mid band.
func (k *KeltnerChannel) Compute(input Input) (float64, error) {
	channel, err := k.Channel(input)
	if err != nil {
		return 0, err
	}

	return channel.Mid, nil
}

// Channel returns all three bands for the newest bar.
func (k *KeltnerChannel) Channel(input Input) (Channel, error) {
	mid, err := k.ma.Compute(input)
	if err != nil {
		return Channel{}, err
	}

	atr, err := k.atr.Compute(input)
	if err != nil {
		return Channel{}, err
	}

	return Channel{
		Mid:   mid,
		Upper: mid + atr*k.devUp,
		Lower: mid - atr*k.devDown,
	}, nil
}
