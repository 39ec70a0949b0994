package types

import "time"

type SignalDirection string

const (
	SignalDirectionLong  SignalDirection = "long"
	SignalDirectionShort SignalDirection = "short"
)

// Named entry conditions the evaluator can combine.
const (
	ConditionChannelBreakoutUp   string = "channel_breakout_up"
	ConditionChannelBreakoutDown string = "channel_breakout_down"
	ConditionOpenRatio           string = "open_ratio"
	ConditionWeightedOpenRatio   string = "weighted_open_ratio"
	ConditionTrendBullish        string = "trend_bullish"
	ConditionTrendBearish        string = "trend_bearish"
)

// SignalEvent records one qualifying condition combination. Events are
// appended to the evaluator's log whether or not a position is opened; the
// log is an observability artifact, not a control input.
type SignalEvent struct {
	Time       time.Time          `yaml:"time" json:"time" csv:"time"`
	Symbol     string             `yaml:"symbol" json:"symbol" csv:"symbol"`
	Direction  SignalDirection    `yaml:"direction" json:"direction" csv:"direction"`
	Conditions []string           `yaml:"conditions" json:"conditions" csv:"-"`
	Values     map[string]float64 `yaml:"values" json:"values" csv:"-"`
}
