package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	redact(&out.Provider.APIKey)
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)
	redact(&out.Redis.Password)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices and maps so callers cannot mutate the original through the
	// redacted copy.
	if cfg.Watchlist != nil {
		out.Watchlist = make([]WatchItem, len(cfg.Watchlist))
		copy(out.Watchlist, cfg.Watchlist)
	}
	if cfg.Provider.Markets != nil {
		out.Provider.Markets = make([]string, len(cfg.Provider.Markets))
		copy(out.Provider.Markets, cfg.Provider.Markets)
	}
	if cfg.Analyze.Items != nil {
		out.Analyze.Items = make([]string, len(cfg.Analyze.Items))
		copy(out.Analyze.Items, cfg.Analyze.Items)
	}
	if cfg.Kafka.Brokers != nil {
		out.Kafka.Brokers = make([]string, len(cfg.Kafka.Brokers))
		copy(out.Kafka.Brokers, cfg.Kafka.Brokers)
	}
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}
	if cfg.Fees.PerMarket != nil {
		out.Fees.PerMarket = make(map[string]float64, len(cfg.Fees.PerMarket))
		for k, v := range cfg.Fees.PerMarket {
			out.Fees.PerMarket[k] = v
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
