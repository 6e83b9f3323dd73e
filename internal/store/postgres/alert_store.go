package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

// AlertStore implements domain.AlertStore using PostgreSQL.
type AlertStore struct {
	pool *pgxpool.Pool
}

// NewAlertStore creates an AlertStore backed by the given connection pool.
func NewAlertStore(pool *pgxpool.Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

const alertCols = `item_name, current_price, market, target_price, savings, triggered_at`

// Insert persists a single triggered alert.
func (s *AlertStore) Insert(ctx context.Context, alert domain.WatchlistAlert) error {
	const query = `
		INSERT INTO alerts (` + alertCols + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		alert.ItemName, alert.CurrentPrice,
		string(alert.Market), alert.TargetPrice,
		alert.Savings, alert.TriggeredAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert alert for %s: %w", alert.ItemName, err)
	}
	return nil
}

// ListRecent returns the newest alerts, most recent first.
func (s *AlertStore) ListRecent(ctx context.Context, limit int) ([]domain.WatchlistAlert, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+alertCols+` FROM alerts ORDER BY triggered_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// ListBefore returns alerts triggered strictly before the cutoff, oldest
// first.
func (s *AlertStore) ListBefore(ctx context.Context, before time.Time) ([]domain.WatchlistAlert, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+alertCols+` FROM alerts WHERE triggered_at < $1 ORDER BY triggered_at`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list alerts before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

// DeleteBefore removes alerts triggered strictly before the cutoff.
func (s *AlertStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM alerts WHERE triggered_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete alerts before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

func scanAlerts(rows pgx.Rows) ([]domain.WatchlistAlert, error) {
	var alerts []domain.WatchlistAlert
	for rows.Next() {
		var (
			a      domain.WatchlistAlert
			market string
		)
		if err := rows.Scan(
			&a.ItemName, &a.CurrentPrice, &market,
			&a.TargetPrice, &a.Savings, &a.TriggeredAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan alert: %w", err)
		}
		a.Market = domain.Market(market)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: alert rows: %w", err)
	}
	return alerts, nil
}

var _ domain.AlertStore = (*AlertStore)(nil)
