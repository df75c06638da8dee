package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DESKD_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
//
// A missing config file is not an error: defaults plus env overrides apply.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DESKD_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// Desk
	setDuration(&cfg.Desk.TransitionDelay, "DESKD_DESK_TRANSITION_DELAY")
	setInt(&cfg.Desk.SubmitRateLimit, "DESKD_DESK_SUBMIT_RATE_LIMIT")

	// Server
	setInt(&cfg.Server.Port, "DESKD_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "DESKD_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "DESKD_SERVER_API_KEY")

	// Postgres
	setBool(&cfg.Postgres.Enabled, "DESKD_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "DESKD_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "DESKD_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "DESKD_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "DESKD_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "DESKD_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "DESKD_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "DESKD_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "DESKD_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "DESKD_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "DESKD_POSTGRES_RUN_MIGRATIONS")

	// Redis
	setBool(&cfg.Redis.Enabled, "DESKD_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "DESKD_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DESKD_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DESKD_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DESKD_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DESKD_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "DESKD_REDIS_TLS_ENABLED")

	// S3
	setBool(&cfg.S3.Enabled, "DESKD_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "DESKD_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "DESKD_S3_REGION")
	setStr(&cfg.S3.Bucket, "DESKD_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "DESKD_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "DESKD_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "DESKD_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "DESKD_S3_FORCE_PATH_STYLE")

	// Top-level
	setStr(&cfg.Mode, "DESKD_MODE")
	setStr(&cfg.LogLevel, "DESKD_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
