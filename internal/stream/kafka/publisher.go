// Package kafka publishes detection events to a Kafka topic so downstream
// consumers (dashboards, trade journals) can react without polling the
// database.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

// Event types carried on the wire.
const (
	EventOpportunity = "opportunity.detected"
	EventAlert       = "alert.triggered"
)

// Config holds connection parameters for the publisher.
type Config struct {
	Brokers []string
	Topic   string
}

// Publisher writes opportunity and alert events to Kafka, keyed by item name
// so per-item ordering is preserved across partitions.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a Publisher using a synchronous writer with
// least-bytes balancing.
func NewPublisher(cfg Config) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			BatchTimeout: 100 * time.Millisecond,
		},
	}
}

// envelope is the common wire frame around every event payload.
type envelope struct {
	Type       string          `json:"type"`
	ItemName   string          `json:"item_name"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type opportunityPayload struct {
	ID         string  `json:"id"`
	BuyMarket  string  `json:"buy_market"`
	BuyPrice   float64 `json:"buy_price"`
	SellMarket string  `json:"sell_market"`
	SellPrice  float64 `json:"sell_price"`
	SellFee    float64 `json:"sell_fee"`
	Profit     float64 `json:"profit"`
	ROI        float64 `json:"roi"`
}

type alertPayload struct {
	CurrentPrice float64 `json:"current_price"`
	Market       string  `json:"market"`
	TargetPrice  float64 `json:"target_price"`
	Savings      float64 `json:"savings"`
}

// PublishOpportunity emits an opportunity.detected event.
func (p *Publisher) PublishOpportunity(ctx context.Context, opp domain.ArbitrageOpportunity) error {
	payload, err := json.Marshal(opportunityPayload{
		ID:         opp.ID,
		BuyMarket:  string(opp.BuyMarket),
		BuyPrice:   opp.BuyPrice,
		SellMarket: string(opp.SellMarket),
		SellPrice:  opp.SellPrice,
		SellFee:    opp.SellFee,
		Profit:     opp.Profit,
		ROI:        opp.ROI,
	})
	if err != nil {
		return fmt.Errorf("kafka: marshal opportunity %s: %w", opp.ID, err)
	}
	return p.publish(ctx, EventOpportunity, opp.ItemName, opp.DetectedAt, payload)
}

// PublishAlert emits an alert.triggered event.
func (p *Publisher) PublishAlert(ctx context.Context, alert domain.WatchlistAlert) error {
	payload, err := json.Marshal(alertPayload{
		CurrentPrice: alert.CurrentPrice,
		Market:       string(alert.Market),
		TargetPrice:  alert.TargetPrice,
		Savings:      alert.Savings,
	})
	if err != nil {
		return fmt.Errorf("kafka: marshal alert for %s: %w", alert.ItemName, err)
	}
	return p.publish(ctx, EventAlert, alert.ItemName, alert.TriggeredAt, payload)
}

func (p *Publisher) publish(ctx context.Context, eventType, itemName string, occurredAt time.Time, payload json.RawMessage) error {
	value, err := json.Marshal(envelope{
		Type:       eventType,
		ItemName:   itemName,
		OccurredAt: occurredAt,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("kafka: marshal envelope %s: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(itemName),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish %s for %s: %w", eventType, itemName, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
