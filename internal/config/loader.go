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
// built-in defaults, applies SKINWATCH_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SKINWATCH_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Provider ──
	setStr(&cfg.Provider.BaseURL, "SKINWATCH_PROVIDER_BASE_URL")
	setStr(&cfg.Provider.APIKey, "SKINWATCH_PROVIDER_API_KEY")
	setStr(&cfg.Provider.APIKey, "CSMARKETAPI_KEY") // provider-native alias
	setStr(&cfg.Provider.Currency, "SKINWATCH_PROVIDER_CURRENCY")
	setStringSlice(&cfg.Provider.Markets, "SKINWATCH_PROVIDER_MARKETS")

	// ── Tracker ──
	setDuration(&cfg.Tracker.Interval, "SKINWATCH_TRACKER_INTERVAL")
	setInt(&cfg.Tracker.MaxInFlight, "SKINWATCH_TRACKER_MAX_IN_FLIGHT")
	setInt(&cfg.Tracker.TopK, "SKINWATCH_TRACKER_TOP_K")

	// ── Fees ──
	setFloat64(&cfg.Fees.DefaultFee, "SKINWATCH_FEES_DEFAULT_FEE")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "SKINWATCH_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "SKINWATCH_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SKINWATCH_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SKINWATCH_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SKINWATCH_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SKINWATCH_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SKINWATCH_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SKINWATCH_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SKINWATCH_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SKINWATCH_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SKINWATCH_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "SKINWATCH_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "SKINWATCH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SKINWATCH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SKINWATCH_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SKINWATCH_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SKINWATCH_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SKINWATCH_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.SnapshotTTL, "SKINWATCH_REDIS_SNAPSHOT_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SKINWATCH_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SKINWATCH_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SKINWATCH_S3_REGION")
	setStr(&cfg.S3.Bucket, "SKINWATCH_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SKINWATCH_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SKINWATCH_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SKINWATCH_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SKINWATCH_S3_FORCE_PATH_STYLE")

	// ── Kafka ──
	setBool(&cfg.Kafka.Enabled, "SKINWATCH_KAFKA_ENABLED")
	setStringSlice(&cfg.Kafka.Brokers, "SKINWATCH_KAFKA_BROKERS")
	setStr(&cfg.Kafka.Topic, "SKINWATCH_KAFKA_TOPIC")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SKINWATCH_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SKINWATCH_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SKINWATCH_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SKINWATCH_NOTIFY_EVENTS")

	// ── Retention ──
	setInt(&cfg.Retention.Days, "SKINWATCH_RETENTION_DAYS")
	setDuration(&cfg.Retention.SweepInterval, "SKINWATCH_RETENTION_SWEEP_INTERVAL")

	// ── Top-level ──
	setStr(&cfg.Mode, "SKINWATCH_MODE")
	setStr(&cfg.LogLevel, "SKINWATCH_LOG_LEVEL")
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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
