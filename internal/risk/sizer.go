package risk

import "math"

// Sizing is the result of a risk-capped size calculation.
type Sizing struct {
	FinalQuantity int
	RiskPerUnit   float64 // dollars risked per contract at the stop
	TotalRisk     float64
	StopDistance  float64 // points, as used by the calculation
}

// SizerConfig holds the per-trade risk settings.
type SizerConfig struct {
	MaxRiskUSD   float64 // 0 disables the cap
	BaseQuantity int
	PointValue   float64
	StopMult     float64 // WATR multiple for the stop distance
	MinStopPts   float64
	MaxStopPts   float64
}

// Size caps baseQuantity so the dollar loss at the stop stays within
// maxRiskUSD. The cap is inactive when maxRiskUSD or stopDistancePoints is
// non-positive. Degenerate inputs degrade gracefully, never error: negative
// base quantity clamps to 0, and an active cap always leaves at least one
// unit when the base allowed one.
func Size(baseQuantity int, maxRiskUSD, stopDistancePoints, pointValue float64) Sizing {
	if baseQuantity < 0 {
		baseQuantity = 0
	}
	riskPerUnit := stopDistancePoints * pointValue
	if riskPerUnit < 0 {
		riskPerUnit = 0
	}

	qty := baseQuantity
	if maxRiskUSD > 0 && stopDistancePoints > 0 && riskPerUnit > 0 {
		capped := int(math.Floor(maxRiskUSD / riskPerUnit))
		if capped < qty {
			qty = capped
		}
		if qty < 1 && baseQuantity >= 1 {
			qty = 1
		}
	}

	return Sizing{
		FinalQuantity: qty,
		RiskPerUnit:   riskPerUnit,
		TotalRisk:     float64(qty) * riskPerUnit,
		StopDistance:  stopDistancePoints,
	}
}

// SizeFromWATR derives the stop distance from the current volatility
// estimate, clamps it to the configured band, then applies the same sizing
// formula.
func SizeFromWATR(cfg SizerConfig, watr float64) Sizing {
	stop := watr * cfg.StopMult
	if stop < cfg.MinStopPts {
		stop = cfg.MinStopPts
	}
	if cfg.MaxStopPts > 0 && stop > cfg.MaxStopPts {
		stop = cfg.MaxStopPts
	}
	return Size(cfg.BaseQuantity, cfg.MaxRiskUSD, stop, cfg.PointValue)
}
