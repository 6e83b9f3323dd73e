package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/aleckhoury/skinwatch/internal/blob/s3"
	"github.com/aleckhoury/skinwatch/internal/cache/redis"
	"github.com/aleckhoury/skinwatch/internal/config"
	"github.com/aleckhoury/skinwatch/internal/domain"
	"github.com/aleckhoury/skinwatch/internal/notify"
	"github.com/aleckhoury/skinwatch/internal/platform/csmarket"
	"github.com/aleckhoury/skinwatch/internal/store/postgres"
	"github.com/aleckhoury/skinwatch/internal/stream/kafka"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. Optional subsystems (persistence, cache, archival,
// event stream) are nil when disabled in configuration.
type Dependencies struct {
	Provider domain.MarketDataProvider

	// Stores (nil unless postgres is enabled)
	SnapshotStore    domain.SnapshotStore
	OpportunityStore domain.OpportunityStore
	AlertStore       domain.AlertStore

	// Cache (nil unless redis is enabled)
	SnapshotCache domain.SnapshotCache

	// Cold storage (nil unless s3 is enabled)
	Archiver   domain.Archiver
	BlobReader domain.BlobReader

	// Event stream (nil unless kafka is enabled)
	Publisher *kafka.Publisher

	// Notifications (always present; dispatches to zero senders when none
	// are configured)
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Provider: csmarket.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey),
	}

	// --- PostgreSQL ---
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
		deps.SnapshotStore = postgres.NewSnapshotStore(pool)
		deps.OpportunityStore = postgres.NewOpportunityStore(pool)
		deps.AlertStore = postgres.NewAlertStore(pool)
	}

	// --- Redis ---
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

		deps.SnapshotCache = redis.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL.Duration)
	}

	// --- S3 cold storage ---
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

		// Validate guarantees Postgres is enabled alongside S3, so the
		// archive stores are always present here.
		deps.Archiver = s3blob.NewArchiver(
			s3blob.NewWriter(s3Client),
			deps.SnapshotStore,
			deps.OpportunityStore,
			deps.AlertStore,
		)
		deps.BlobReader = s3blob.NewReader(s3Client)
	}

	// --- Kafka ---
	if cfg.Kafka.Enabled {
		pub := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		closers = append(closers, func() { _ = pub.Close() })
		deps.Publisher = pub
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
