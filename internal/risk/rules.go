// Package risk implements the pre-trade validation engine: a pure function
// that evaluates an order intent against the desk's fixed risk-rule table and
// produces a complete, ordered checklist plus an overall verdict.
package risk

import "github.com/quantfloor/deskd/internal/domain"

// Check names, in evaluation order. The order is part of the engine contract:
// callers render the checklist exactly as produced.
const (
	CheckQuantity = "Quantity Limits"
	CheckPrice    = "Price Sanity Check"
	CheckNotional = "Notional Exposure Cap"
	CheckStrategy = "Strategy Restriction"
	CheckExposure = "Daily Exposure Cap"
)

// limits holds the per-instrument risk parameters.
type limits struct {
	MaxQuantity float64
	MaxNotional float64
	PriceMin    float64
	PriceMax    float64
	DailyCap    float64
}

// ruleTable is the desk risk configuration. It is fixed at compile time and
// not editable at runtime.
var ruleTable = map[domain.Instrument]limits{
	domain.InstrumentIndex: {
		MaxQuantity: 500,
		MaxNotional: 10_000_000,
		PriceMin:    1000,
		PriceMax:    30000,
		DailyCap:    2000,
	},
	domain.InstrumentFutures: {
		MaxQuantity: 1000,
		MaxNotional: 50_000_000,
		PriceMin:    50,
		PriceMax:    50000,
		DailyCap:    5000,
	},
	domain.InstrumentEquity: {
		MaxQuantity: 5000,
		MaxNotional: 25_000_000,
		PriceMin:    0.01,
		PriceMax:    10000,
		DailyCap:    20000,
	},
}

// restrictedInstruments maps each strategy to the instruments it is blocked
// on per desk policy. Strategies not listed are unrestricted.
var restrictedInstruments = map[domain.Strategy][]domain.Instrument{
	domain.StrategyArbitrage: {domain.InstrumentIndex},
	domain.StrategyCustom:    {domain.InstrumentFutures},
}

// maxDailyExposurePct flags any order larger than this share of the
// instrument's daily lot cap.
const maxDailyExposurePct = 0.15
