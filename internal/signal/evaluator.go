// Package signal combines indicator outputs into named boolean entry
// conditions and keeps an append-only log of qualifying combinations.
package signal

import (
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/toriphy/cta-engine/internal/indicator"
	"github.com/toriphy/cta-engine/internal/logger"
	"github.com/toriphy/cta-engine/internal/series"
	"github.com/toriphy/cta-engine/internal/types"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// Config holds the evaluator parameters.
type Config struct {
	// ChannelLength is the lookback for the Keltner mid band and ATR.
	ChannelLength  int     `yaml:"channel_length" json:"channel_length" validate:"required,gt=1"`
	ChannelDevUp   float64 `yaml:"channel_dev_up" json:"channel_dev_up" validate:"required,gt=0"`
	ChannelDevDown float64 `yaml:"channel_dev_down" json:"channel_dev_down" validate:"required,gt=0"`
	// ThresholdRatio gates the plain per-bar open-interest change ratio.
	ThresholdRatio float64 `yaml:"threshold_ratio" json:"threshold_ratio" validate:"gte=0"`
	// Weighted thresholds gate the sub-bar weighted ratio; the short side
	// typically demands a slightly higher reading than the long side.
	WeightedLongThreshold  float64 `yaml:"weighted_long_threshold" json:"weighted_long_threshold"`
	WeightedShortThreshold float64 `yaml:"weighted_short_threshold" json:"weighted_short_threshold"`
	// UseWeightedRatio selects the weighted sub-bar ratio instead of the
	// plain ratio for the entry gate.
	UseWeightedRatio bool `yaml:"use_weighted_ratio" json:"use_weighted_ratio"`
	// TrendFilterEnabled requires the higher-timeframe flag to agree with
	// the entry direction.
	TrendFilterEnabled bool `yaml:"trend_filter_enabled" json:"trend_filter_enabled"`
}

// Evaluation is the outcome of one pass over a closed, warm bar.
type Evaluation struct {
	Channel           indicator.Channel
	OpenRatio         optional.Option[float64]
	WeightedOpenRatio optional.Option[float64]
	Conditions        map[string]bool
	// LongEntry/ShortEntry are the fully gated entry decisions including
	// the trend filter.
	LongEntry  bool
	ShortEntry bool
}

// Evaluator derives entry conditions from the rolling window and the
// just-closed composite bar. Conditions are pure functions of buffer state;
// the only side effect is the signal log.
type Evaluator struct {
	config  Config
	keltner *indicator.KeltnerChannel
	events  []types.SignalEvent
	log     *logger.Logger
}

// NewEvaluator creates an evaluator with the given parameters. Indicators
// are resolved through the registry.
func NewEvaluator(config Config, registry indicator.Registry, log *logger.Logger) (*Evaluator, error) {
	if config.ChannelLength <= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod,
			"channel length must exceed 1, got %d", config.ChannelLength)
	}

	keltner, err := indicator.NewKeltnerChannel(registry, config.ChannelDevUp, config.ChannelDevDown)
	if err != nil {
		return nil, err
	}

	return &Evaluator{
		config:  config,
		keltner: keltner,
		events:  nil,
		log:     log,
	}, nil
}

// Evaluate runs one pass for a closed bar backed by a warm series window.
// Unavailable ratio values (zero volume, short history) make the dependent
// conditions false rather than erroring.
func (e *Evaluator) Evaluate(bar types.Bar, window *series.BarSeries, trend TrendState) (Evaluation, error) {
	input := indicator.Input{
		High:   window.High().Values(),
		Low:    window.Low().Values(),
		Close:  window.Close().Values(),
		Volume: window.Volume().Values(),
		Period: e.config.ChannelLength,
	}

	channel, err := e.keltner.Channel(input)
	if err != nil {
		return Evaluation{}, errors.Wrap(errors.ErrCodeIndicatorCalculation, "keltner channel failed", err)
	}

	conditions := map[string]bool{
		types.ConditionChannelBreakoutUp:   bar.Close > channel.Upper,
		types.ConditionChannelBreakoutDown: bar.Close < channel.Lower,
		types.ConditionTrendBullish:        trend == TrendBullish,
		types.ConditionTrendBearish:        trend == TrendBearish,
	}

	evaluation := Evaluation{
		Channel:           channel,
		OpenRatio:         optional.None[float64](),
		WeightedOpenRatio: optional.None[float64](),
		Conditions:        conditions,
		LongEntry:         false,
		ShortEntry:        false,
	}

	e.evaluateRatios(bar, window, &evaluation)

	ratioLong, ratioShort := e.ratioGates(evaluation)
	conditions[types.ConditionOpenRatio] = evaluation.OpenRatio.IsSome() &&
		evaluation.OpenRatio.TakeOr(0) > e.config.ThresholdRatio
	conditions[types.ConditionWeightedOpenRatio] = evaluation.WeightedOpenRatio.IsSome() &&
		evaluation.WeightedOpenRatio.TakeOr(0) > e.config.WeightedLongThreshold

	// The signal log records breakout+ratio combinations regardless of the
	// trend gate and regardless of whether a position is opened.
	if conditions[types.ConditionChannelBreakoutUp] && ratioLong {
		e.record(bar, types.SignalDirectionLong, evaluation)
	} else if conditions[types.ConditionChannelBreakoutDown] && ratioShort {
		e.record(bar, types.SignalDirectionShort, evaluation)
	}

	evaluation.LongEntry = conditions[types.ConditionChannelBreakoutUp] && ratioLong &&
		(!e.config.TrendFilterEnabled || trend == TrendBullish)
	evaluation.ShortEntry = conditions[types.ConditionChannelBreakoutDown] && ratioShort &&
		(!e.config.TrendFilterEnabled || trend == TrendBearish)

	return evaluation, nil
}

// Events returns a copy of the append-only signal log.
func (e *Evaluator) Events() []types.SignalEvent {
	out := make([]types.SignalEvent, len(e.events))
	copy(out, e.events)

	return out
}

func (e *Evaluator) evaluateRatios(bar types.Bar, window *series.BarSeries, evaluation *Evaluation) {
	// Plain ratio: open-interest change of the newest bar over its volume.
	lastOI, errLast := window.OpenInterest().Last(0)
	prevOI, errPrev := window.OpenInterest().Last(1)
	lastVolume, errVolume := window.Volume().Last(0)

	if errLast == nil && errPrev == nil && errVolume == nil && lastVolume != 0 {
		evaluation.OpenRatio = optional.Some((lastOI - prevOI) / lastVolume)
	}

	if len(bar.SubVolumes) > 0 {
		weighted, err := WeightedOpenRatio(bar.SubVolumes, bar.SubOpenInterests)
		if err == nil {
			evaluation.WeightedOpenRatio = optional.Some(weighted)
		} else if !errors.HasCode(err, errors.ErrCodeValueNotAvailable) {
			e.log.Warn("weighted open ratio unavailable", zap.Error(err))
		}
	}
}

func (e *Evaluator) ratioGates(evaluation Evaluation) (bool, bool) {
	if e.config.UseWeightedRatio {
		if evaluation.WeightedOpenRatio.IsNone() {
			return false, false
		}

		weighted := evaluation.WeightedOpenRatio.TakeOr(0)

		return weighted > e.config.WeightedLongThreshold, weighted > e.config.WeightedShortThreshold
	}

	if evaluation.OpenRatio.IsNone() {
		return false, false
	}

	ratio := evaluation.OpenRatio.TakeOr(0)

	return ratio > e.config.ThresholdRatio, ratio > e.config.ThresholdRatio
}

func (e *Evaluator) record(bar types.Bar, direction types.SignalDirection, evaluation Evaluation) {
	values := map[string]float64{
		"close":       bar.Close,
		"channel_mid": evaluation.Channel.Mid,
		"channel_up":  evaluation.Channel.Upper,
		"channel_low": evaluation.Channel.Lower,
	}

	if evaluation.OpenRatio.IsSome() {
		values["open_ratio"] = evaluation.OpenRatio.TakeOr(0)
	}

	if evaluation.WeightedOpenRatio.IsSome() {
		values["weighted_open_ratio"] = evaluation.WeightedOpenRatio.TakeOr(0)
	}

	conditions := make([]string, 0, 2)

	if direction == types.SignalDirectionLong {
		conditions = append(conditions, types.ConditionChannelBreakoutUp)
	} else {
		conditions = append(conditions, types.ConditionChannelBreakoutDown)
	}

	if e.config.UseWeightedRatio {
		conditions = append(conditions, types.ConditionWeightedOpenRatio)
	} else {
		conditions = append(conditions, types.ConditionOpenRatio)
	}

	e.events = append(e.events, types.SignalEvent{
		Time:       bar.Start,
		Symbol:     bar.Symbol,
		Direction:  direction,
		Conditions: conditions,
		Values:     values,
	})
}
