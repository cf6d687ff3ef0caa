package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/location-risk-service/internal/config"
	"github.com/couchcryptid/location-risk-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Notifier publishes location risk changes to a Kafka topic.
// It implements pipeline.ChangeNotifier.
type Notifier struct {
	writer messageWriter
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured risk topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaRiskTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Notifier{writer: w, logger: logger}
}

// NotifyRiskChanges publishes every change in a single WriteMessages call.
// Messages are keyed by location id so one location's changes stay ordered
// within a partition.
func (n *Notifier) NotifyRiskChanges(ctx context.Context, changes []domain.RiskChange) error {
	if len(changes) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(changes))
	for i := range changes {
		msg, err := serializeToMessage(changes[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := n.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d risk changes: %w", len(msgs), err)
	}
	n.logger.Debug("risk changes published", "change_count", len(msgs))
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals a RiskChange into a Kafka message.
func serializeToMessage(change domain.RiskChange) (kafkago.Message, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize risk change: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(change.LocationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_level", Value: []byte(change.Current.String())},
			{Key: "changed_at", Value: []byte(change.ChangedAt.Format(time.RFC3339))},
		},
	}, nil
}
