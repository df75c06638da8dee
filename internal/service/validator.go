package service

import (
	"context"

	"github.com/quantfloor/deskd/internal/domain"
	"github.com/quantfloor/deskd/internal/risk"
)

// Validator abstracts the validation engine so the desk service can also be
// driven by a remote engine. A returned error means the engine could not be
// invoked at all; business failures are expressed inside the result, never
// as errors.
type Validator interface {
	Validate(ctx context.Context, intent domain.OrderIntent) (domain.ValidationResult, error)
}

// EngineValidator adapts the in-process risk engine to the Validator
// interface. It never returns an error.
type EngineValidator struct {
	engine *risk.Engine
}

// NewEngineValidator wraps the given engine.
func NewEngineValidator(engine *risk.Engine) EngineValidator {
	return EngineValidator{engine: engine}
}

// Validate runs the pure engine.
func (v EngineValidator) Validate(_ context.Context, intent domain.OrderIntent) (domain.ValidationResult, error) {
	return v.engine.Validate(intent), nil
}
