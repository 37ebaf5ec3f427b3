package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("dataset built", "years", 76)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dataset built", entry["msg"])
	assert.EqualValues(t, 76, entry["years"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("visible", "year", 1998)

	assert.Contains(t, buf.String(), "msg=visible")
	assert.Contains(t, buf.String(), "year=1998")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()

	m.RecordsRead.Add(3)
	m.SinkWrites.WithLabelValues("json", "success").Inc()

	assert.InDelta(t, 3.0, testutil.ToFloat64(m.RecordsRead), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.SinkWrites.WithLabelValues("json", "success")), 0)
}
