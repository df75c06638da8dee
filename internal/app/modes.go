package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantfloor/deskd/internal/domain"
	"github.com/quantfloor/deskd/internal/risk"
	"github.com/quantfloor/deskd/internal/server"
	"github.com/quantfloor/deskd/internal/server/handler"
	"github.com/quantfloor/deskd/internal/server/ws"
	"github.com/quantfloor/deskd/internal/service"
)

// buildDesk assembles the desk service from the wired dependencies.
func (a *App) buildDesk(deps *Dependencies) *service.DeskService {
	validator := service.NewEngineValidator(risk.NewEngine())

	desk := service.NewDeskService(deps.OrderStore, validator, a.logger).
		WithSignalBus(deps.SignalBus)

	if delay := a.cfg.Desk.TransitionDelay.Duration; delay > 0 {
		desk = desk.WithPacer(service.FixedPacer{Delay: delay})
	}
	if deps.RateLimiter != nil && a.cfg.Desk.SubmitRateLimit > 0 {
		desk = desk.WithRateLimiter(deps.RateLimiter, a.cfg.Desk.SubmitRateLimit)
	}
	if deps.AuditStore != nil {
		desk = desk.WithAuditStore(deps.AuditStore)
	}
	if deps.Archive != nil {
		desk = desk.WithArchive(deps.Archive)
	}
	if deps.BlobWriter != nil {
		desk = desk.WithBlobWriter(deps.BlobWriter)
	}

	return desk
}

// ServerMode runs the HTTP + WebSocket API with whatever external backends
// are configured (Redis bus, Postgres mirror, S3 exports).
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")
	return a.runAPI(ctx, deps)
}

// SimMode runs the same HTTP + WebSocket API fully in-memory: the memory
// order store and the in-process signal bus, no external backends.
func (a *App) SimMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sim mode")
	return a.runAPI(ctx, deps)
}

// runAPI starts the WebSocket hub and the HTTP server on an errgroup and
// blocks until the context is cancelled or a component fails.
func (a *App) runAPI(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	desk := a.buildDesk(deps)

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		err := hub.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.logger),
		Orders: handler.NewOrderHandler(desk, a.logger),
		Stats:  handler.NewStatsHandler(desk, a.logger),
		Export: handler.NewExportHandler(desk, a.logger),
	}
	if deps.AuditStore != nil {
		handlers.Audit = handler.NewAuditHandler(deps.AuditStore, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, a.logger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// demoIntent pairs a label with an order intent for the demo run.
type demoIntent struct {
	label  string
	intent domain.OrderIntent
}

// demoIntents are the instrument presets from the desk UI, plus one order
// that trips the strategy restriction.
func demoIntents() []demoIntent {
	return []demoIntent{
		{
			label: "index limit",
			intent: domain.OrderIntent{
				Instrument: domain.InstrumentIndex,
				OrderType:  domain.OrderTypeLimit,
				Quantity:   10,
				Price:      5400,
				Strategy:   domain.StrategyDeltaNeutral,
			},
		},
		{
			label: "futures limit",
			intent: domain.OrderIntent{
				Instrument: domain.InstrumentFutures,
				OrderType:  domain.OrderTypeLimit,
				Quantity:   25,
				Price:      5820,
				Strategy:   domain.StrategyMeanReversion,
			},
		},
		{
			label: "equity limit",
			intent: domain.OrderIntent{
				Instrument: domain.InstrumentEquity,
				OrderType:  domain.OrderTypeLimit,
				Quantity:   200,
				Price:      142,
				Strategy:   domain.StrategyMomentum,
			},
		},
		{
			label: "restricted strategy",
			intent: domain.OrderIntent{
				Instrument: domain.InstrumentIndex,
				OrderType:  domain.OrderTypeMarket,
				Quantity:   10,
				Strategy:   domain.StrategyArbitrage,
			},
		},
	}
}

// DemoMode submits the preset intents through the full pipeline, logs each
// verdict with its transition log, prints the desk stats, and exits.
func (a *App) DemoMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting demo mode")

	desk := a.buildDesk(deps)

	for _, d := range demoIntents() {
		order, err := desk.Submit(ctx, d.intent)
		if err != nil {
			a.logger.ErrorContext(ctx, "demo: submission failed",
				slog.String("label", d.label),
				slog.String("error", err.Error()),
			)
			continue
		}

		a.logger.InfoContext(ctx, "demo: order settled",
			slog.String("label", d.label),
			slog.String("order_id", order.ID),
			slog.String("instrument", string(order.Instrument)),
			slog.String("state", string(order.State)),
			slog.String("rejection_reason", order.RejectionReason),
		)
		for _, t := range order.Transitions {
			a.logger.InfoContext(ctx, "demo: transition",
				slog.String("order_id", order.ID),
				slog.String("from", string(t.From)),
				slog.String("to", string(t.To)),
				slog.String("note", t.Note),
			)
		}
		for _, step := range order.ValidationSteps {
			a.logger.InfoContext(ctx, "demo: check",
				slog.String("order_id", order.ID),
				slog.String("check", step.Check),
				slog.Bool("passed", step.Passed),
				slog.String("detail", step.Detail),
			)
		}
	}

	stats, err := desk.Stats(ctx)
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "demo: desk stats",
		slog.Int("total", stats.Total),
		slog.Int("ready", stats.Ready),
		slog.Int("rejected", stats.Rejected),
		slog.Float64("accept_rate_pct", stats.AcceptRatePct),
	)

	return nil
}
