package types

type PositionState string

const (
	PositionStateFlat  PositionState = "FLAT"
	PositionStateLong  PositionState = "LONG"
	PositionStateShort PositionState = "SHORT"
)

// Position is the current directional exposure of one instrument.
// Size is signed: positive long, negative short, zero flat.
type Position struct {
	Symbol string `yaml:"symbol" json:"symbol" csv:"symbol"`
	Size   float64 `yaml:"size" json:"size" csv:"size"`
	// CostBasis is the intended fill price at which the current exposure
	// was established, not necessarily the touched market price.
	CostBasis float64 `yaml:"cost_basis" json:"cost_basis" csv:"cost_basis"`
	// IntraTradeHigh/Low track the favorable extreme reached while the
	// position is open; they drive the trailing stop.
	IntraTradeHigh float64 `yaml:"intra_trade_high" json:"intra_trade_high" csv:"intra_trade_high"`
	IntraTradeLow  float64 `yaml:"intra_trade_low" json:"intra_trade_low" csv:"intra_trade_low"`
}

// State derives the position state from the signed size.
func (p *Position) State() PositionState {
	switch {
	case p.Size > 0:
		return PositionStateLong
	case p.Size < 0:
		return PositionStateShort
	default:
		return PositionStateFlat
	}
}
