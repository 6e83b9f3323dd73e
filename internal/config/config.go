// Package config defines the top-level configuration for skinwatch and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SKINWATCH_* environment
// variables.
type Config struct {
	Provider  ProviderConfig  `toml:"provider"`
	Watchlist []WatchItem     `toml:"watchlist"`
	Fees      FeesConfig      `toml:"fees"`
	Tracker   TrackerConfig   `toml:"tracker"`
	Analyze   AnalyzeConfig   `toml:"analyze"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Kafka     KafkaConfig     `toml:"kafka"`
	Notify    NotifyConfig    `toml:"notify"`
	Retention RetentionConfig `toml:"retention"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// ProviderConfig holds CSMarketAPI connection parameters.
type ProviderConfig struct {
	BaseURL  string   `toml:"base_url"`
	APIKey   string   `toml:"api_key"`
	Currency string   `toml:"currency"`
	Markets  []string `toml:"markets"` // empty = all supported markets
}

// WatchItem is one monitored item with its alert target price.
type WatchItem struct {
	Name        string  `toml:"name"`
	TargetPrice float64 `toml:"target_price"`
}

// FeesConfig holds per-market seller fees and the fallback for unlisted
// markets.
type FeesConfig struct {
	// PerMarket maps market identifiers to fractional seller fees in [0, 1).
	PerMarket map[string]float64 `toml:"per_market"`
	// DefaultFee applies to markets missing from PerMarket.
	DefaultFee float64 `toml:"default_fee"`
}

// TrackerConfig holds polling-loop parameters.
type TrackerConfig struct {
	Interval    duration `toml:"interval"`
	MaxInFlight int      `toml:"max_in_flight"`
	TopK        int      `toml:"top_k"`
}

// AnalyzeConfig holds parameters for one-shot historical analysis.
type AnalyzeConfig struct {
	Items []string `toml:"items"`
	// Days is the size of the sales-history window ending today.
	Days int `toml:"days"`
	// PlayerCounts enables the player-count correlation report.
	PlayerCounts bool `toml:"player_counts"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	// SnapshotTTL bounds how long a cached snapshot stays fresh.
	SnapshotTTL duration `toml:"snapshot_ttl"`
}

// S3Config holds S3-compatible object storage parameters for cold-storage
// archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// KafkaConfig holds event-stream parameters.
type KafkaConfig struct {
	Enabled bool     `toml:"enabled"`
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// RetentionConfig controls archival of aged rows to cold storage.
type RetentionConfig struct {
	// Days of history kept in Postgres before archival to S3.
	Days int `toml:"days"`
	// Interval between archival sweeps.
	SweepInterval duration `toml:"sweep_interval"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values. The
// fee table matches the provider's published seller fees.
func Defaults() Config {
	return Config{
		Provider: ProviderConfig{
			BaseURL:  "https://api.csmarketapi.com/v1",
			Currency: "USD",
		},
		Fees: FeesConfig{
			PerMarket: map[string]float64{
				"STEAMCOMMUNITY": 0.15,
				"SKINBARON":      0.15,
				"SKINPORT":       0.08,
				"CSMONEY":        0.06,
				"WHITEMARKET":    0.05,
				"BUFFMARKET":     0.045,
				"GAMERPAYGG":     0.03,
				"CSFLOAT":        0.02,
				"CSDEALS":        0.02,
				"SKINS":          0.0,
			},
			DefaultFee: domain.DefaultSellerFee,
		},
		Tracker: TrackerConfig{
			Interval:    duration{5 * time.Minute},
			MaxInFlight: 8,
			TopK:        3,
		},
		Analyze: AnalyzeConfig{
			Days:         30,
			PlayerCounts: true,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "skinwatch",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:     false,
			Addr:        "localhost:6379",
			DB:          0,
			PoolSize:    20,
			MaxRetries:  3,
			SnapshotTTL: duration{10 * time.Minute},
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "skinwatch-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Kafka: KafkaConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "skinwatch.events",
		},
		Notify: NotifyConfig{
			Events: []string{"alert_triggered", "arb_detected", "item_error"},
		},
		Retention: RetentionConfig{
			Days:          90,
			SweepInterval: duration{24 * time.Hour},
		},
		Mode:     "monitor",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"monitor": true,
	"analyze": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// knownMarkets is the set of marketplace identifiers the provider supports.
var knownMarkets = func() map[string]bool {
	set := make(map[string]bool)
	for _, m := range domain.AllMarkets() {
		set[string(m)] = true
	}
	return set
}()

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found. A validation failure is
// fatal at startup; the scheduler never starts on a bad config.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: monitor, analyze, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Provider
	if c.Provider.BaseURL == "" {
		errs = append(errs, "provider: base_url must not be empty")
	}
	if c.Provider.APIKey == "" {
		errs = append(errs, "provider: api_key is required (set SKINWATCH_PROVIDER_API_KEY)")
	}
	for _, m := range c.Provider.Markets {
		if !knownMarkets[m] {
			errs = append(errs, fmt.Sprintf("provider: unknown market %q", m))
		}
	}

	// Monitoring modes need at least one watchlist item.
	needsWatchlist := c.Mode == "monitor" || c.Mode == "full"
	if needsWatchlist && len(c.Watchlist) == 0 {
		errs = append(errs, "watchlist: at least one item is required for mode "+c.Mode)
	}
	seen := make(map[string]bool, len(c.Watchlist))
	for i, w := range c.Watchlist {
		if w.Name == "" {
			errs = append(errs, fmt.Sprintf("watchlist[%d]: name must not be empty", i))
		}
		if w.TargetPrice < 0 {
			errs = append(errs, fmt.Sprintf("watchlist[%d] %q: target_price must be >= 0", i, w.Name))
		}
		if seen[w.Name] {
			errs = append(errs, fmt.Sprintf("watchlist: duplicate item %q", w.Name))
		}
		seen[w.Name] = true
	}

	// Fees
	if c.Fees.DefaultFee < 0 || c.Fees.DefaultFee >= 1 {
		errs = append(errs, fmt.Sprintf("fees: default_fee must be in [0, 1), got %v", c.Fees.DefaultFee))
	}
	for m, f := range c.Fees.PerMarket {
		if f < 0 || f >= 1 {
			errs = append(errs, fmt.Sprintf("fees: %s must be in [0, 1), got %v", m, f))
		}
	}

	// Tracker
	if c.Tracker.Interval.Duration <= 0 {
		errs = append(errs, "tracker: interval must be positive")
	}
	if c.Tracker.MaxInFlight < 1 {
		errs = append(errs, "tracker: max_in_flight must be >= 1")
	}

	// Analyze
	if c.Mode == "analyze" {
		if len(c.Analyze.Items) == 0 {
			errs = append(errs, "analyze: at least one item is required for analyze mode")
		}
		if c.Analyze.Days < 1 {
			errs = append(errs, "analyze: days must be >= 1")
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be in [0, pool_max_conns]")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3 archival needs Postgres rows to archive.
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if !c.Postgres.Enabled {
			errs = append(errs, "s3: archival requires postgres to be enabled")
		}
		if c.Retention.Days < 1 {
			errs = append(errs, "retention: days must be >= 1 when s3 is enabled")
		}
		if c.Retention.SweepInterval.Duration <= 0 {
			errs = append(errs, "retention: sweep_interval must be positive when s3 is enabled")
		}
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, "kafka: at least one broker is required")
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, "kafka: topic must not be empty")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// WatchlistMap converts the watchlist array into the item -> target map the
// engines consume.
func (c *Config) WatchlistMap() map[string]float64 {
	m := make(map[string]float64, len(c.Watchlist))
	for _, w := range c.Watchlist {
		m[w.Name] = w.TargetPrice
	}
	return m
}

// FeeSchedule builds the immutable fee schedule from configuration.
func (c *Config) FeeSchedule() domain.FeeSchedule {
	fees := make(map[domain.Market]float64, len(c.Fees.PerMarket))
	for m, f := range c.Fees.PerMarket {
		fees[domain.Market(m)] = f
	}
	return domain.NewFeeSchedule(fees, c.Fees.DefaultFee)
}

// Markets returns the configured market filter, or every supported market
// when none was configured.
func (c *Config) Markets() []domain.Market {
	if len(c.Provider.Markets) == 0 {
		return domain.AllMarkets()
	}
	out := make([]domain.Market, len(c.Provider.Markets))
	for i, m := range c.Provider.Markets {
		out[i] = domain.Market(m)
	}
	return out
}
