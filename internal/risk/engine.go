package risk

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quantfloor/deskd/internal/domain"
)

// Engine evaluates order intents against the desk rule table. It is
// stateless and safe for concurrent use.
//
// Validate never fails: malformed numeric input is reported as failing
// checks, not as an engine error. The boundary layer is responsible for
// rejecting structurally invalid requests (missing fields, non-finite or
// non-positive numbers) before the engine runs.
type Engine struct{}

// NewEngine creates the validation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Validate runs the five risk checks in their fixed order and returns the
// full checklist with the overall verdict. All five steps are always
// produced; there is no short-circuit on failure.
func (e *Engine) Validate(intent domain.OrderIntent) domain.ValidationResult {
	lim := ruleTable[intent.Instrument]
	steps := make([]domain.ValidationStep, 0, 5)
	var rejectionReason string

	// 1. Quantity limit.
	qtyPass := intent.Quantity > 0 && intent.Quantity <= lim.MaxQuantity
	qtyDetail := fmt.Sprintf("Quantity %s within allowed max of %s for %s",
		formatNum(intent.Quantity), formatNum(lim.MaxQuantity), intent.Instrument)
	if !qtyPass {
		qtyDetail = fmt.Sprintf("Quantity %s exceeds max of %s for %s",
			formatNum(intent.Quantity), formatNum(lim.MaxQuantity), intent.Instrument)
	}
	steps = append(steps, domain.ValidationStep{Check: CheckQuantity, Passed: qtyPass, Detail: qtyDetail})

	// 2 and 3. Price sanity and notional cap, only meaningful for LIMIT
	// orders. Market orders record both as passed with an explanatory note.
	if intent.OrderType == domain.OrderTypeLimit {
		pricePass := intent.Price >= lim.PriceMin && intent.Price <= lim.PriceMax
		priceDetail := fmt.Sprintf("Limit price %s within valid range [%s, %s]",
			formatNum(intent.Price), formatNum(lim.PriceMin), formatNum(lim.PriceMax))
		if !pricePass {
			priceDetail = fmt.Sprintf("Limit price %s outside valid range [%s, %s] for %s",
				formatNum(intent.Price), formatNum(lim.PriceMin), formatNum(lim.PriceMax), intent.Instrument)
		}
		steps = append(steps, domain.ValidationStep{Check: CheckPrice, Passed: pricePass, Detail: priceDetail})
		if !pricePass && rejectionReason == "" {
			rejectionReason = fmt.Sprintf("Limit price %s is outside the acceptable range for %s.",
				formatNum(intent.Price), intent.Instrument)
		}

		notional := intent.Quantity * intent.Price
		notionalPass := notional <= lim.MaxNotional
		notionalDetail := fmt.Sprintf("Notional $%s within cap of $%s",
			formatAmount(notional), formatAmount(lim.MaxNotional))
		if !notionalPass {
			notionalDetail = fmt.Sprintf("Notional $%s exceeds cap of $%s",
				formatAmount(notional), formatAmount(lim.MaxNotional))
		}
		steps = append(steps, domain.ValidationStep{Check: CheckNotional, Passed: notionalPass, Detail: notionalDetail})
		if !notionalPass && rejectionReason == "" {
			rejectionReason = fmt.Sprintf("Order notional ($%s) exceeds risk cap.", formatAmount(notional))
		}
	} else {
		steps = append(steps, domain.ValidationStep{
			Check:  CheckPrice,
			Passed: true,
			Detail: "Market order - no price sanity check required",
		})
		steps = append(steps, domain.ValidationStep{
			Check:  CheckNotional,
			Passed: true,
			Detail: "Market order - notional checked at execution",
		})
	}

	// 4. Strategy restriction.
	stratPass := true
	for _, blocked := range restrictedInstruments[intent.Strategy] {
		if blocked == intent.Instrument {
			stratPass = false
			break
		}
	}
	stratDetail := fmt.Sprintf("Strategy %s is permitted for %s", intent.Strategy, intent.Instrument)
	if !stratPass {
		stratDetail = fmt.Sprintf("Strategy %s is not permitted on %s per desk policy",
			intent.Strategy, intent.Instrument)
	}
	steps = append(steps, domain.ValidationStep{Check: CheckStrategy, Passed: stratPass, Detail: stratDetail})
	if !stratPass && rejectionReason == "" {
		rejectionReason = fmt.Sprintf("Strategy %q is restricted for %s orders.",
			intent.Strategy, intent.Instrument)
	}

	// 5. Daily exposure cap.
	exposurePct := intent.Quantity / lim.DailyCap
	exposurePass := exposurePct <= maxDailyExposurePct
	exposureDetail := fmt.Sprintf("Order is %.1f%% of daily cap (limit: 15%%)", exposurePct*100)
	if !exposurePass {
		exposureDetail = fmt.Sprintf("Order is %.1f%% of daily cap, exceeding the 15%% threshold", exposurePct*100)
	}
	steps = append(steps, domain.ValidationStep{Check: CheckExposure, Passed: exposurePass, Detail: exposureDetail})
	if !exposurePass && rejectionReason == "" {
		rejectionReason = fmt.Sprintf("Order size exceeds 15%% of daily exposure cap for %s.", intent.Instrument)
	}

	// Quantity is the lowest-priority rejection reason even though it is the
	// first check evaluated.
	if !qtyPass && rejectionReason == "" {
		rejectionReason = fmt.Sprintf("Quantity %s is out of bounds for %s.",
			formatNum(intent.Quantity), intent.Instrument)
	}

	passed := true
	for _, s := range steps {
		if !s.Passed {
			passed = false
			break
		}
	}
	if passed {
		rejectionReason = ""
	}

	return domain.ValidationResult{
		Passed:          passed,
		Steps:           steps,
		RejectionReason: rejectionReason,
	}
}

// formatNum renders a float with the fewest digits that round-trip, so
// integral quantities display without a decimal point.
func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatAmount renders a dollar amount with thousands separators, matching
// the desk blotter display convention.
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}
	neg := false
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}
	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	if neg {
		intPart = "-" + intPart
	}
	return intPart + fracPart
}
