package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfloor/deskd/internal/domain"
)

func limitIntent(instrument domain.Instrument, qty, price float64, strategy domain.Strategy) domain.OrderIntent {
	return domain.OrderIntent{
		Instrument: instrument,
		OrderType:  domain.OrderTypeLimit,
		Quantity:   qty,
		Price:      price,
		Strategy:   strategy,
	}
}

func marketIntent(instrument domain.Instrument, qty float64, strategy domain.Strategy) domain.OrderIntent {
	return domain.OrderIntent{
		Instrument: instrument,
		OrderType:  domain.OrderTypeMarket,
		Quantity:   qty,
		Strategy:   strategy,
	}
}

func stepByCheck(t *testing.T, result domain.ValidationResult, check string) domain.ValidationStep {
	t.Helper()
	for _, s := range result.Steps {
		if s.Check == check {
			return s
		}
	}
	t.Fatalf("no step named %q", check)
	return domain.ValidationStep{}
}

func TestValidateProducesAllFiveChecksInOrder(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name   string
		intent domain.OrderIntent
	}{
		{"passing limit order", limitIntent(domain.InstrumentEquity, 200, 142, domain.StrategyMomentum)},
		{"failing limit order", limitIntent(domain.InstrumentIndex, 600, 500, domain.StrategyMomentum)},
		{"market order", marketIntent(domain.InstrumentFutures, 25, domain.StrategyMeanReversion)},
	}

	want := []string{CheckQuantity, CheckPrice, CheckNotional, CheckStrategy, CheckExposure}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Validate(tt.intent)
			require.Len(t, result.Steps, 5)
			for i, s := range result.Steps {
				assert.Equal(t, want[i], s.Check)
			}
		})
	}
}

func TestValidateQuantityBoundary(t *testing.T) {
	engine := NewEngine()

	atMax := engine.Validate(marketIntent(domain.InstrumentEquity, 5000, domain.StrategyMomentum))
	assert.True(t, stepByCheck(t, atMax, CheckQuantity).Passed, "quantity at the max is allowed")

	overMax := engine.Validate(marketIntent(domain.InstrumentEquity, 5001, domain.StrategyMomentum))
	assert.False(t, stepByCheck(t, overMax, CheckQuantity).Passed)

	zero := engine.Validate(marketIntent(domain.InstrumentEquity, 0, domain.StrategyMomentum))
	assert.False(t, stepByCheck(t, zero, CheckQuantity).Passed, "zero quantity fails")
}

func TestValidatePriceBoundary(t *testing.T) {
	engine := NewEngine()

	atMin := engine.Validate(limitIntent(domain.InstrumentIndex, 10, 1000, domain.StrategyMomentum))
	assert.True(t, stepByCheck(t, atMin, CheckPrice).Passed, "price at the range edge is allowed")
	assert.True(t, atMin.Passed)

	below := engine.Validate(limitIntent(domain.InstrumentIndex, 10, 999.99, domain.StrategyMomentum))
	assert.False(t, stepByCheck(t, below, CheckPrice).Passed)
	assert.False(t, below.Passed)
	assert.Equal(t, "Limit price 999.99 is outside the acceptable range for INDEX.", below.RejectionReason)
}

func TestValidateNotionalCap(t *testing.T) {
	engine := NewEngine()

	// 400 * 28000 = 11,200,000 > 10,000,000 cap for INDEX; price and
	// quantity are individually fine.
	result := engine.Validate(limitIntent(domain.InstrumentIndex, 400, 28000, domain.StrategyMomentum))
	assert.True(t, stepByCheck(t, result, CheckQuantity).Passed)
	assert.True(t, stepByCheck(t, result, CheckPrice).Passed)
	assert.False(t, stepByCheck(t, result, CheckNotional).Passed)
	assert.Equal(t, "Order notional ($11,200,000) exceeds risk cap.", result.RejectionReason)
}

func TestValidateMarketOrderSkipsPriceAndNotional(t *testing.T) {
	engine := NewEngine()

	result := engine.Validate(marketIntent(domain.InstrumentFutures, 25, domain.StrategyMeanReversion))

	price := stepByCheck(t, result, CheckPrice)
	assert.True(t, price.Passed)
	assert.Equal(t, "Market order - no price sanity check required", price.Detail)

	notional := stepByCheck(t, result, CheckNotional)
	assert.True(t, notional.Passed)
	assert.Equal(t, "Market order - notional checked at execution", notional.Detail)

	assert.True(t, result.Passed)
	assert.Empty(t, result.RejectionReason)
}

func TestValidateStrategyRestriction(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name       string
		instrument domain.Instrument
		strategy   domain.Strategy
		allowed    bool
	}{
		{"arbitrage blocked on index", domain.InstrumentIndex, domain.StrategyArbitrage, false},
		{"arbitrage allowed on futures", domain.InstrumentFutures, domain.StrategyArbitrage, true},
		{"custom blocked on futures", domain.InstrumentFutures, domain.StrategyCustom, false},
		{"custom allowed on equity", domain.InstrumentEquity, domain.StrategyCustom, true},
		{"momentum unrestricted", domain.InstrumentIndex, domain.StrategyMomentum, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Validate(marketIntent(tt.instrument, 10, tt.strategy))
			assert.Equal(t, tt.allowed, stepByCheck(t, result, CheckStrategy).Passed)
		})
	}
}

func TestValidateDailyExposureCap(t *testing.T) {
	engine := NewEngine()

	// 300 / 2000 = 15% exactly: allowed.
	atCap := engine.Validate(marketIntent(domain.InstrumentIndex, 300, domain.StrategyMomentum))
	assert.True(t, stepByCheck(t, atCap, CheckExposure).Passed)

	// 301 / 2000 > 15%: flagged.
	overCap := engine.Validate(marketIntent(domain.InstrumentIndex, 301, domain.StrategyMomentum))
	assert.False(t, stepByCheck(t, overCap, CheckExposure).Passed)
	assert.Equal(t, "Order size exceeds 15% of daily exposure cap for INDEX.", overCap.RejectionReason)
}

func TestValidateRejectionReasonPriority(t *testing.T) {
	engine := NewEngine()

	// Price, strategy, exposure, and quantity all fail: the price reason wins.
	result := engine.Validate(limitIntent(domain.InstrumentIndex, 600, 500, domain.StrategyArbitrage))
	assert.False(t, result.Passed)
	assert.Equal(t, "Limit price 500 is outside the acceptable range for INDEX.", result.RejectionReason)

	// Strategy and exposure fail, price and notional fine: strategy wins.
	result = engine.Validate(limitIntent(domain.InstrumentIndex, 400, 2000, domain.StrategyArbitrage))
	assert.False(t, stepByCheck(t, result, CheckExposure).Passed)
	assert.Equal(t, `Strategy "ARBITRAGE" is restricted for INDEX orders.`, result.RejectionReason)

	// Only quantity fails: quantity is the fallback reason.
	result = engine.Validate(marketIntent(domain.InstrumentEquity, -5, domain.StrategyMomentum))
	assert.False(t, result.Passed)
	assert.Equal(t, "Quantity -5 is out of bounds for EQUITY.", result.RejectionReason)
}

func TestValidateScenarios(t *testing.T) {
	engine := NewEngine()

	t.Run("equity momentum passes every check", func(t *testing.T) {
		result := engine.Validate(limitIntent(domain.InstrumentEquity, 200, 142, domain.StrategyMomentum))
		assert.True(t, result.Passed)
		assert.Empty(t, result.RejectionReason)
		for _, s := range result.Steps {
			assert.True(t, s.Passed, "check %q", s.Check)
		}
	})

	t.Run("index arbitrage fails only the strategy check", func(t *testing.T) {
		result := engine.Validate(limitIntent(domain.InstrumentIndex, 10, 5400, domain.StrategyArbitrage))
		assert.False(t, result.Passed)
		assert.Equal(t, `Strategy "ARBITRAGE" is restricted for INDEX orders.`, result.RejectionReason)
		for _, s := range result.Steps {
			if s.Check == CheckStrategy {
				assert.False(t, s.Passed)
			} else {
				assert.True(t, s.Passed, "check %q", s.Check)
			}
		}
	})
}

func TestValidateHasRulesForEveryInstrument(t *testing.T) {
	engine := NewEngine()

	for _, instrument := range domain.Instruments() {
		result := engine.Validate(marketIntent(instrument, 1, domain.StrategyMomentum))
		require.Len(t, result.Steps, 5, "instrument %q", instrument)
		assert.True(t, result.Passed, "a minimal market order passes for %q", instrument)
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	engine := NewEngine()
	intent := limitIntent(domain.InstrumentFutures, 25, 5820, domain.StrategyMeanReversion)

	first := engine.Validate(intent)
	second := engine.Validate(intent)
	assert.Equal(t, first, second)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "28,400", formatAmount(28400))
	assert.Equal(t, "11,200,000", formatAmount(11_200_000))
	assert.Equal(t, "950", formatAmount(950))
	assert.Equal(t, "1,234.5", formatAmount(1234.5))
	assert.Equal(t, "-12,000", formatAmount(-12000))
}
