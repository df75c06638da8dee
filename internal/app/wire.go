package app

import (
	"context"
	"fmt"
	"strings"

	s3blob "github.com/quantfloor/deskd/internal/blob/s3"
	"github.com/quantfloor/deskd/internal/cache/redis"
	"github.com/quantfloor/deskd/internal/config"
	"github.com/quantfloor/deskd/internal/domain"
	"github.com/quantfloor/deskd/internal/store/memory"
	"github.com/quantfloor/deskd/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// OrderStore is the canonical, in-memory state container. Orders live
	// here for their whole lifecycle.
	OrderStore domain.OrderStore

	// SignalBus carries desk events to the WebSocket hub. In-process by
	// default, Redis-backed when enabled.
	SignalBus domain.SignalBus

	// RateLimiter bounds order submissions. Nil unless Redis is enabled.
	RateLimiter domain.RateLimiter

	// Archive and AuditStore mirror terminal orders and desk events into
	// PostgreSQL. Nil unless Postgres is enabled.
	Archive    domain.OrderArchive
	AuditStore domain.AuditStore

	// BlobWriter uploads blotter exports. Nil unless S3 is enabled.
	BlobWriter domain.BlobWriter
}

// usesBackends reports whether the mode attaches external backends. The sim
// and demo modes are fully in-memory regardless of configuration.
func usesBackends(mode string) bool {
	return strings.ToLower(mode) == "server"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		OrderStore: memory.NewOrderStore(),
		SignalBus:  memory.NewSignalBus(),
	}

	if !usesBackends(cfg.Mode) {
		return deps, cleanup, nil
	}

	// --- Redis (signal bus + rate limiter) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	}

	// --- PostgreSQL (order archive + audit log) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Archive = postgres.NewOrderArchive(pool)
		deps.AuditStore = postgres.NewAuditStore(pool)
	}

	// --- S3 blob storage (blotter exports) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
	}

	return deps, cleanup, nil
}
