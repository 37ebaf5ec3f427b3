//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/rainfall-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/rainfall-etl/internal/adapter/jsonstore"
	"github.com/couchcryptid/rainfall-etl/internal/adapter/kafka"
	"github.com/couchcryptid/rainfall-etl/internal/config"
	"github.com/couchcryptid/rainfall-etl/internal/domain"
	"github.com/couchcryptid/rainfall-etl/internal/observability"
	"github.com/couchcryptid/rainfall-etl/internal/pipeline"
)

const testTopic = "test-year-tables"

const mockCSV = `1999,12,4.5
2000,1,0.5
2000,2,1.5
2000,1,0.75
2001,1,10.0
2003,5,2.2
`

// yearMessage holds a deserialized message read from the year-table topic.
type yearMessage struct {
	Year    int                `json:"year"`
	Days    map[string]float64 `json:"days"`
	Count   int                `json:"count"`
	Key     string             `json:"-"`
	Headers map[string]string  `json:"-"`
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("rainfall-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func readYear(ctx context.Context, t *testing.T, consumer *kafkago.Reader) yearMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from year-table topic")

	var ym yearMessage
	require.NoError(t, json.Unmarshal(msg.Value, &ym), "unmarshal year message")
	ym.Key = string(msg.Key)
	ym.Headers = make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		ym.Headers[h.Key] = string(h.Value)
	}
	return ym
}

// TestPipelineEndToEnd builds a Dataset from a CSV file, stores it as JSON,
// and publishes every year to Kafka.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	processedAt := time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(processedAt))
	t.Cleanup(func() { domain.SetClock(nil) })

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "readings.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(mockCSV), 0o600))

	cfg := &config.Config{
		KafkaEnabled: true,
		KafkaBrokers: []string{broker},
		KafkaTopic:   testTopic,
	}
	logger := observability.DiscardLogger()
	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(
		csvfile.NewSource(csvPath, logger),
		[]pipeline.DatasetSink{jsonstore.NewFileSink(dir, logger), writer},
		logger,
		observability.NewMetricsForTesting(),
	)

	r := domain.YearRange{Start: 1999, End: 2002}
	ds, err := p.Run(ctx, r)
	require.NoError(t, err)
	require.NoError(t, p.CheckReadiness(ctx))

	stored, err := jsonstore.Load(jsonstore.DatasetPath(dir, r))
	require.NoError(t, err)
	assert.Equal(t, ds, stored)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	want := map[int]yearMessage{
		1999: {Year: 1999, Days: map[string]float64{"12": 4.5}, Count: 1},
		2000: {Year: 2000, Days: map[string]float64{"1": 0.75, "2": 1.5}, Count: 2},
		2001: {Year: 2001, Days: map[string]float64{"1": 10.0}, Count: 1},
		2002: {Year: 2002, Days: map[string]float64{}, Count: 0},
	}
	for range len(want) {
		got := readYear(ctx, t, consumer)
		exp, ok := want[got.Year]
		require.True(t, ok, "unexpected year %d", got.Year)
		delete(want, got.Year)

		assert.Equal(t, strconv.Itoa(got.Year), got.Key)
		assert.Equal(t, exp.Days, got.Days)
		assert.Equal(t, exp.Count, got.Count)
		assert.Equal(t, strconv.Itoa(got.Year), got.Headers["year"])
		assert.Equal(t, "rainfall_1999_2002", got.Headers["dataset"])
		assert.Equal(t, processedAt.Format(time.RFC3339), got.Headers["processed_at"])
	}
	assert.Empty(t, want, "every year published")
}

// TestPipelineSourceError verifies a malformed CSV aborts the run before any
// sink sees data.
func TestPipelineSourceError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "readings.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("2000,1,0.5\n2000,x,1.0\n"), 0o600))

	cfg := &config.Config{KafkaEnabled: true, KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	logger := observability.DiscardLogger()
	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(
		csvfile.NewSource(csvPath, logger),
		[]pipeline.DatasetSink{jsonstore.NewFileSink(dir, logger), writer},
		logger,
		observability.NewMetricsForTesting(),
	)

	_, err := p.Run(ctx, domain.YearRange{Start: 2000, End: 2000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.NoFileExists(t, jsonstore.DatasetPath(dir, domain.YearRange{Start: 2000, End: 2000}))

	conn, err := kafkago.DialLeader(ctx, "tcp", broker, testTopic, 0)
	require.NoError(t, err)
	defer conn.Close()
	last, err := conn.ReadLastOffset()
	require.NoError(t, err)
	assert.Zero(t, last, "nothing published")
}
