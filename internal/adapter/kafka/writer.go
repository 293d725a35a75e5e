package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/water-balance-report/internal/config"
	"github.com/couchcryptid/water-balance-report/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// AlertMessage is the JSON value published for each early-warning alert.
type AlertMessage struct {
	domain.Alert
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// messageWriter is the subset of *kafkago.Writer used by AlertWriter.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// AlertWriter publishes early-warning alerts to a Kafka topic.
// It implements report.AlertPublisher.
type AlertWriter struct {
	writer messageWriter
	logger *slog.Logger
}

// NewAlertWriter creates a Kafka producer for the configured alert topic.
func NewAlertWriter(cfg *config.Config, logger *slog.Logger) *AlertWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &AlertWriter{writer: w, logger: logger}
}

// PublishAlerts serializes every alert of the set and writes them in a single
// WriteMessages call. Alerts are keyed by ID, so all messages for the same
// pond and day land on the same partition.
func (w *AlertWriter) PublishAlerts(ctx context.Context, set domain.AlertSet, evaluatedAt time.Time) error {
	if !set.HasAlerts() {
		return nil
	}
	msgs := make([]kafkago.Message, len(set.Alerts))
	for i := range set.Alerts {
		msg, err := serializeAlert(set.Alerts[i], evaluatedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d alerts: %w", len(msgs), err)
	}
	w.logger.Debug("alerts published", "date", set.Date.String(), "count", len(msgs))
	return nil
}

func (w *AlertWriter) Close() error {
	return w.writer.Close()
}

// serializeAlert marshals an Alert into a Kafka message.
func serializeAlert(alert domain.Alert, evaluatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(AlertMessage{Alert: alert, EvaluatedAt: evaluatedAt.UTC()})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert %s: %w", alert.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(alert.ID),
		Value: data,
		Time:  evaluatedAt,
		Headers: []kafkago.Header{
			{Key: "pond_id", Value: []byte(alert.Record.PondID)},
			{Key: "date", Value: []byte(alert.Record.Date.String())},
			{Key: "category", Value: []byte(alert.Record.Category)},
			{Key: "evaluated_at", Value: []byte(evaluatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
