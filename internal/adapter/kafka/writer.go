package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/rainfall-etl/internal/config"
	"github.com/couchcryptid/rainfall-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes one message per year table to a Kafka topic.
// It implements pipeline.DatasetSink.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Store publishes every year of the Dataset in ascending order, in a single
// WriteMessages call. Keys are the decimal year so a year's tables always land
// on the same partition.
func (w *Writer) Store(ctx context.Context, r domain.YearRange, ds domain.Dataset) error {
	if len(ds) == 0 {
		return nil
	}
	processedAt := domain.Clock().Now()
	dataset := r.DatasetName()

	years := ds.Years()
	msgs := make([]kafkago.Message, len(years))
	for i, y := range years {
		msg, err := serializeToMessage(y, ds[y], dataset, processedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish year tables: %w", err)
	}
	w.logger.Info("year tables published", "dataset", dataset, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one year table into a Kafka message.
func serializeToMessage(year int, t domain.YearTable, dataset string, processedAt time.Time) (kafkago.Message, error) {
	data, err := domain.MarshalYear(year, t)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize year table: %w", err)
	}
	key := strconv.Itoa(year)
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "year", Value: []byte(key)},
			{Key: "dataset", Value: []byte(dataset)},
			{Key: "processed_at", Value: []byte(processedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
