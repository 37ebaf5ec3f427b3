package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/rainfall-etl/internal/domain"
	"github.com/couchcryptid/rainfall-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (r *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func (r *recordingWriter) Close() error {
	r.closed = true
	return nil
}

func headerMap(msg kafkago.Message) map[string]string {
	h := make(map[string]string, len(msg.Headers))
	for _, kv := range msg.Headers {
		h[kv.Key] = string(kv.Value)
	}
	return h
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)

	msg, err := serializeToMessage(2000, domain.YearTable{1: 0.5, 2: 1.5}, "rainfall_2000_2001", now)
	require.NoError(t, err)

	assert.Equal(t, []byte("2000"), msg.Key)
	assert.JSONEq(t, `{"year":2000,"days":{"1":0.5,"2":1.5},"count":2}`, string(msg.Value))
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "year", msg.Headers[0].Key)
	assert.Equal(t, map[string]string{
		"year":         "2000",
		"dataset":      "rainfall_2000_2001",
		"processed_at": now.Format(time.RFC3339),
	}, headerMap(msg))
}

func TestWriter_Store(t *testing.T) {
	fixed := time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(nil) })

	rec := &recordingWriter{}
	w := &Writer{writer: rec, logger: observability.DiscardLogger()}
	ds := domain.Dataset{2001: {1: 2.0}, 1999: {}, 2000: {1: 0.5}}

	require.NoError(t, w.Store(context.Background(), domain.YearRange{Start: 1999, End: 2001}, ds))

	require.Len(t, rec.msgs, 3)
	for i, want := range []string{"1999", "2000", "2001"} {
		assert.Equal(t, want, string(rec.msgs[i].Key))
		h := headerMap(rec.msgs[i])
		assert.Equal(t, "rainfall_1999_2001", h["dataset"])
		assert.Equal(t, fixed.Format(time.RFC3339), h["processed_at"])
	}
	assert.JSONEq(t, `{"year":1999,"days":{},"count":0}`, string(rec.msgs[0].Value))

	require.NoError(t, w.Close())
	assert.True(t, rec.closed)
	assert.Equal(t, "kafka", w.Name())
}

func TestWriter_StoreEmptyDataset(t *testing.T) {
	rec := &recordingWriter{err: errors.New("must not be called")}
	w := &Writer{writer: rec, logger: observability.DiscardLogger()}

	require.NoError(t, w.Store(context.Background(), domain.YearRange{Start: 2001, End: 2000}, domain.Dataset{}))
	assert.Empty(t, rec.msgs)
}

func TestWriter_StoreError(t *testing.T) {
	rec := &recordingWriter{err: errors.New("broker down")}
	w := &Writer{writer: rec, logger: observability.DiscardLogger()}

	err := w.Store(context.Background(), domain.YearRange{Start: 2000, End: 2000}, domain.Dataset{2000: {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
