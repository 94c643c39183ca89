//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
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

	"github.com/couchcryptid/sounding-etl/internal/adapter/filestore"
	"github.com/couchcryptid/sounding-etl/internal/adapter/kafka"
	"github.com/couchcryptid/sounding-etl/internal/adapter/uwyo"
	"github.com/couchcryptid/sounding-etl/internal/config"
	"github.com/couchcryptid/sounding-etl/internal/domain"
	"github.com/couchcryptid/sounding-etl/internal/observability"
	"github.com/couchcryptid/sounding-etl/internal/pipeline"
)

const testTopic = "test-radiosoundings"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("sounding-test"))
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

func archiveServer(t *testing.T) *httptest.Server {
	t.Helper()
	fixture, err := os.ReadFile(filepath.Join("..", "domain", "testdata", "uwyo_15420_2025110200.html"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("FROM") == "0200" {
			_, _ = w.Write(fixture)
			return
		}
		_, _ = w.Write([]byte("<HTML>Can't get 15420 Observations.</HTML>"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestFetcherPublishesToKafka runs a batch against a fake archive with a real
// broker and checks that only the saved soundings are published.
func TestFetcherPublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	srv := archiveServer(t)
	cfg := &config.Config{
		BaseURL:      srv.URL,
		Region:       "europe",
		HTTPTimeout:  5 * time.Second,
		OutputDir:    t.TempDir(),
		Separator:    domain.SeparatorComma,
		KafkaBrokers: []string{broker},
		KafkaTopic:   testTopic,
	}

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	fetcher := pipeline.NewFetcher(
		uwyo.NewClient(cfg, discardLogger()),
		domain.NewExtractor(domain.DefaultLayout()),
		filestore.New(cfg.OutputDir, discardLogger()),
		cfg.Separator,
		discardLogger(),
		metrics,
		writer,
	)

	start := time.Date(2025, time.November, 2, 0, 0, 0, 0, time.UTC)
	batch := pipeline.NewBatch(fetcher, clockwork.NewRealClock(), 0, discardLogger(), metrics)
	report, err := batch.Run(ctx, pipeline.Plan{StationID: "15420", Start: start, End: start, Hours: []int{0, 12}})
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded())
	require.Len(t, report.Failures(), 1)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	msg, err := consumer.ReadMessage(readCtx)
	readCancel()
	require.NoError(t, err, "read sounding message")

	assert.Equal(t, "15420-2025110200", string(msg.Key))
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "15420", headers["station_id"])
	assert.Equal(t, "2025-11-02T00:00:00Z", headers["observed_at"])

	var got domain.Sounding
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "Bucuresti_Inmh_Banesa", got.StationName)
	require.Len(t, got.Rows, 5)
	assert.Equal(t, "1000.0", got.Rows[0][0])

	// The unavailable slot must not produce a second message.
	readCtx, readCancel = context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no message for the unavailable slot")
}
