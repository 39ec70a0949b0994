package engine

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/toriphy/cta-engine/internal/aggregator"
	"github.com/toriphy/cta-engine/internal/assembler"
	"github.com/toriphy/cta-engine/internal/signal"
	"github.com/toriphy/cta-engine/internal/strategy"
	"github.com/toriphy/cta-engine/pkg/errors"
)

// Config is the full engine configuration for one instrument pipeline.
type Config struct {
	Symbol string `yaml:"symbol" json:"symbol" validate:"required" jsonschema:"title=Symbol,description=Instrument symbol the pipeline trades"`
	// BasePeriod is the bucket duration for assembling ticks into base bars.
	BasePeriod time.Duration `yaml:"base_period" json:"base_period" validate:"required" jsonschema:"title=Base Period,description=Base bar duration such as 1m"`
	// VolumeMode selects how bucket volume is derived from the tick feed.
	VolumeMode assembler.VolumeMode `yaml:"volume_mode" json:"volume_mode" validate:"required,oneof=per_bucket cumulative" jsonschema:"title=Volume Mode"`
	// TradingPeriod is the coarse period signals and orders run on.
	TradingPeriod aggregator.PeriodConfig `yaml:"trading_period" json:"trading_period" validate:"required" jsonschema:"title=Trading Period"`
	// LongCyclePeriod feeds the trend filter. Required when the trend filter
	// is enabled.
	LongCyclePeriod optional.Option[aggregator.PeriodConfig] `yaml:"long_cycle_period" json:"long_cycle_period" jsonschema:"title=Long Cycle Period"`
	// WindowCapacity is the rolling window size backing the indicators.
	WindowCapacity int `yaml:"window_capacity" json:"window_capacity" validate:"required,gt=1" jsonschema:"title=Window Capacity,minimum=2"`

	Signal   signal.Config   `yaml:"signal" json:"signal" jsonschema:"title=Signal"`
	Strategy strategy.Params `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy"`

	// Trend filter moving-average periods over the long-cycle close series.
	TrendShortPeriod int `yaml:"trend_short_period" json:"trend_short_period" jsonschema:"title=Trend Short Period"`
	TrendLongPeriod  int `yaml:"trend_long_period" json:"trend_long_period" jsonschema:"title=Trend Long Period"`
}

// UnmarshalYAML implements custom unmarshaling for Config. The base period is
// written as a duration string and the long cycle period is optional.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig struct {
		Symbol           string                   `yaml:"symbol"`
		BasePeriod       string                   `yaml:"base_period"`
		VolumeMode       assembler.VolumeMode     `yaml:"volume_mode"`
		TradingPeriod    aggregator.PeriodConfig  `yaml:"trading_period"`
		LongCyclePeriod  *aggregator.PeriodConfig `yaml:"long_cycle_period"`
		WindowCapacity   int                      `yaml:"window_capacity"`
		Signal           signal.Config            `yaml:"signal"`
		Strategy         strategy.Params          `yaml:"strategy"`
		TrendShortPeriod int                      `yaml:"trend_short_period"`
		TrendLongPeriod  int                      `yaml:"trend_long_period"`
	}

	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	basePeriod, err := time.ParseDuration(raw.BasePeriod)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err,
			"invalid base period %q", raw.BasePeriod)
	}

	c.Symbol = raw.Symbol
	c.BasePeriod = basePeriod
	c.VolumeMode = raw.VolumeMode
	c.TradingPeriod = raw.TradingPeriod
	c.WindowCapacity = raw.WindowCapacity
	c.Signal = raw.Signal
	c.Strategy = raw.Strategy
	c.TrendShortPeriod = raw.TrendShortPeriod
	c.TrendLongPeriod = raw.TrendLongPeriod

	c.LongCyclePeriod = optional.None[aggregator.PeriodConfig]()
	if raw.LongCyclePeriod != nil {
		c.LongCyclePeriod = optional.Some(*raw.LongCyclePeriod)
	}

	return nil
}

// Validate validates the Config struct including cross-field rules.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine config", err)
	}

	if err := c.Strategy.Validate(); err != nil {
		return err
	}

	if c.Signal.TrendFilterEnabled {
		if c.LongCyclePeriod.IsNone() {
			return errors.New(errors.ErrCodeInvalidConfiguration,
				"trend filter requires a long cycle period")
		}

		if c.TrendShortPeriod <= 0 || c.TrendLongPeriod <= c.TrendShortPeriod {
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"trend filter periods must satisfy 0 < short < long, got %d/%d",
				c.TrendShortPeriod, c.TrendLongPeriod)
		}
	}

	if c.LongCyclePeriod.IsSome() && c.LongCyclePeriod.Unwrap().N == c.TradingPeriod.N {
		return errors.New(errors.ErrCodeInvalidConfiguration,
			"long cycle period must differ from trading period")
	}

	if c.WindowCapacity <= c.Signal.ChannelLength {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"window capacity %d must exceed channel length %d",
			c.WindowCapacity, c.Signal.ChannelLength)
	}

	return nil
}

// LoadConfig reads and validates a Config from a YAML file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeConfigLoadFailed, "failed to read config file", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeConfigLoadFailed, "failed to parse config file", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// GenerateSchema generates a JSON schema for the Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "time.Duration" {
				return &jsonschema.Schema{
					Type:        "string",
					Description: "Go duration string such as 1m or 30s",
				}
			}

			if strings.Contains(t.String(), "optional.Option[") {
				return &jsonschema.Schema{
					Ref: "#/$defs/PeriodConfig",
				}
			}

			return nil
		},
	}

	return reflector.Reflect(c), nil
}
