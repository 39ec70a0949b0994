package types

type IndicatorType string

const (
	IndicatorTypeMA      IndicatorType = "ma"
	IndicatorTypeEMA     IndicatorType = "ema"
	IndicatorTypeATR     IndicatorType = "atr"
	IndicatorTypeOBV     IndicatorType = "obv"
	IndicatorTypeRSI     IndicatorType = "rsi"
	IndicatorTypeKeltner IndicatorType = "keltner_channel"
)
