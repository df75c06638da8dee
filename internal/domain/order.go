// Package domain defines the core entities of the order desk simulator and
// the interfaces that backend implementations (memory, postgres, redis, s3)
// must satisfy.
package domain

import (
	"fmt"
	"math"
	"time"
)

// Instrument is the traded product category.
type Instrument string

const (
	InstrumentIndex   Instrument = "INDEX"
	InstrumentFutures Instrument = "FUTURES"
	InstrumentEquity  Instrument = "EQUITY"
)

// Valid reports whether i is a known instrument.
func (i Instrument) Valid() bool {
	switch i {
	case InstrumentIndex, InstrumentFutures, InstrumentEquity:
		return true
	}
	return false
}

// Instruments lists all known instruments in display order.
func Instruments() []Instrument {
	return []Instrument{InstrumentIndex, InstrumentFutures, InstrumentEquity}
}

// OrderType indicates how the order prices: at market or at a limit price.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	return t == OrderTypeMarket || t == OrderTypeLimit
}

// Strategy is the trading strategy tagged on an order intent.
type Strategy string

const (
	StrategyMomentum      Strategy = "MOMENTUM"
	StrategyMeanReversion Strategy = "MEAN_REVERSION"
	StrategyArbitrage     Strategy = "ARBITRAGE"
	StrategyDeltaNeutral  Strategy = "DELTA_NEUTRAL"
	StrategyCustom        Strategy = "CUSTOM"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyMomentum, StrategyMeanReversion, StrategyArbitrage,
		StrategyDeltaNeutral, StrategyCustom:
		return true
	}
	return false
}

// OrderState tracks the order lifecycle.
type OrderState string

const (
	OrderStateCreated      OrderState = "CREATED"
	OrderStateValidated    OrderState = "VALIDATED"
	OrderStateRiskApproved OrderState = "RISK_APPROVED"
	OrderStateReady        OrderState = "READY"
	OrderStateRejected     OrderState = "REJECTED"
)

// Terminal reports whether s is a terminal lifecycle state.
func (s OrderState) Terminal() bool {
	return s == OrderStateReady || s == OrderStateRejected
}

// OrderIntent carries the fields of a single order submission. It is built
// once at the boundary and never mutated; the validation engine reads it and
// nothing else. Price is meaningful only for LIMIT orders.
type OrderIntent struct {
	Instrument Instrument `json:"instrument"`
	OrderType  OrderType  `json:"orderType"`
	Quantity   float64    `json:"quantity"`
	Price      float64    `json:"price,omitempty"`
	Strategy   Strategy   `json:"strategy"`
}

// Validate checks the intent's structural contract: known enum values, a
// positive finite quantity, and a positive finite price on LIMIT orders.
// Violations wrap ErrInvalidIntent. Business rules (quantity limits, price
// ranges, strategy restrictions) are the validation engine's concern and are
// not checked here.
func (in OrderIntent) Validate() error {
	if !in.Instrument.Valid() {
		return fmt.Errorf("%w: unknown instrument %q", ErrInvalidIntent, in.Instrument)
	}
	if !in.OrderType.Valid() {
		return fmt.Errorf("%w: unknown order type %q", ErrInvalidIntent, in.OrderType)
	}
	if !in.Strategy.Valid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidIntent, in.Strategy)
	}
	if !(in.Quantity > 0) || math.IsInf(in.Quantity, 1) {
		return fmt.Errorf("%w: quantity must be a positive finite number", ErrInvalidIntent)
	}
	if in.OrderType == OrderTypeLimit && (!(in.Price > 0) || math.IsInf(in.Price, 1)) {
		return fmt.Errorf("%w: price must be a positive finite number for LIMIT orders", ErrInvalidIntent)
	}
	return nil
}

// StateTransition is one recorded state change. Transition logs are
// append-only and chronological.
type StateTransition struct {
	From      OrderState `json:"from"`
	To        OrderState `json:"to"`
	Timestamp time.Time  `json:"timestamp"`
	Note      string     `json:"note,omitempty"`
}

// Order is the aggregate tracked by the desk. It is owned by the order store
// for its whole life; all mutation goes through ApplyTransition.
type Order struct {
	ID              string            `json:"id"`
	Instrument      Instrument        `json:"instrument"`
	OrderType       OrderType         `json:"orderType"`
	Quantity        float64           `json:"quantity"`
	Price           float64           `json:"price,omitempty"`
	Strategy        Strategy          `json:"strategy"`
	State           OrderState        `json:"state"`
	ValidationSteps []ValidationStep  `json:"validationSteps"`
	Transitions     []StateTransition `json:"transitions"`
	RejectionReason string            `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// NewOrder creates an order in the CREATED state with an empty transition
// log, carrying the intent fields.
func NewOrder(id string, intent OrderIntent, createdAt time.Time) Order {
	return Order{
		ID:              id,
		Instrument:      intent.Instrument,
		OrderType:       intent.OrderType,
		Quantity:        intent.Quantity,
		Price:           intent.Price,
		Strategy:        intent.Strategy,
		State:           OrderStateCreated,
		ValidationSteps: []ValidationStep{},
		Transitions:     []StateTransition{},
		CreatedAt:       createdAt,
	}
}

// Intent rebuilds the intent the order was created from.
func (o Order) Intent() OrderIntent {
	return OrderIntent{
		Instrument: o.Instrument,
		OrderType:  o.OrderType,
		Quantity:   o.Quantity,
		Price:      o.Price,
		Strategy:   o.Strategy,
	}
}

// ApplyTransition appends a StateTransition from the current state to the
// target state and advances the order. Validation steps are carried on the
// VALIDATED transition and a rejection reason on the REJECTED transition;
// both are set at most once over the order's life.
func (o *Order) ApplyTransition(to OrderState, at time.Time, note string, steps []ValidationStep, rejectionReason string) {
	o.Transitions = append(o.Transitions, StateTransition{
		From:      o.State,
		To:        to,
		Timestamp: at,
		Note:      note,
	})
	o.State = to
	if steps != nil {
		o.ValidationSteps = steps
	}
	if rejectionReason != "" {
		o.RejectionReason = rejectionReason
	}
}

// Clone returns a deep copy so callers cannot mutate store-owned slices.
func (o Order) Clone() Order {
	cp := o
	cp.ValidationSteps = append([]ValidationStep(nil), o.ValidationSteps...)
	cp.Transitions = append([]StateTransition(nil), o.Transitions...)
	return cp
}

// DeskStats is a point-in-time summary of the blotter.
type DeskStats struct {
	Total         int                `json:"total"`
	Ready         int                `json:"ready"`
	Rejected      int                `json:"rejected"`
	InFlight      int                `json:"inFlight"`
	AcceptRatePct float64            `json:"acceptRatePct"`
	ByState       map[OrderState]int `json:"byState"`
}
