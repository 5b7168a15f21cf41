package irongate

// Band buckets a PEG ratio.
type Band string

const (
	BandDeepValue Band = "Deep Value"
	BandBuy       Band = "Buy"
	BandFair      Band = "Fair"
	BandBubble    Band = "Bubble"
	BandSell      Band = "Sell"
	BandUnknown   Band = "Unknown"
)

// ValuationBand maps a PEG onto the protocol bands:
//
//	< strong_buy        Deep Value
//	<= buy              Buy
//	<= bubble           Fair
//	<= sell             Bubble
//	> sell              Sell
//
// Nil or non-positive PEG, or bands that fail ValidateBands, is Unknown.
func ValuationBand(peg *float64, cfg Thresholds) Band {
	if peg == nil || *peg <= 0 || cfg.ValidateBands() != nil {
		return BandUnknown
	}
	switch v := *peg; {
	case v < cfg.PEGThresholdStrongBuy:
		return BandDeepValue
	case v <= cfg.PEGThresholdBuy:
		return BandBuy
	case v <= cfg.PEGThresholdBubble:
		return BandFair
	case v <= cfg.PEGThresholdSell:
		return BandBubble
	default:
		return BandSell
	}
}

// HighGrowthExempt reports whether growth is strong enough to tolerate a
// PEG above the bubble line.
func HighGrowthExempt(growth *float64, cfg Thresholds) bool {
	return growth != nil && *growth > cfg.HighGrowthExemption
}
