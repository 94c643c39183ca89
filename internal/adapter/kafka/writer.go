package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/sounding-etl/internal/config"
	"github.com/couchcryptid/sounding-etl/internal/domain"
)

// Writer publishes extracted soundings to a Kafka topic as JSON.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Publish sends one sounding. Messages are keyed by station and hour so
// re-runs of the same slot land on the same partition.
func (w *Writer) Publish(ctx context.Context, s domain.Sounding, _ []byte) error {
	msg, err := serializeToMessage(s)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish sounding %s: %w", s.Request.Key(), err)
	}
	w.logger.Debug("published sounding", "key", string(msg.Key), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Sounding into a Kafka message.
func serializeToMessage(s domain.Sounding) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize sounding: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.Request.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station_id", Value: []byte(s.StationID)},
			{Key: "observed_at", Value: []byte(s.ObservedAt.Format(time.RFC3339))},
		},
	}, nil
}
