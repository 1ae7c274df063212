package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jmehdipour/rate-table-editor/internal/model"
	"github.com/jmehdipour/rate-table-editor/internal/util"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNew(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.FixedZone("X", 3600))
	ev, err := New(RateTableCreated, model.EnvUAT, now, map[string]string{"series": "Gold", "version": "3"})
	require.NoError(t, err)

	assert.Equal(t, RateTableCreated, ev.Type)
	assert.Equal(t, model.EnvUAT, ev.Environment)
	assert.Equal(t, time.UTC, ev.OccurredAt.Location())
	assert.JSONEq(t, `{"series":"Gold","version":"3"}`, string(ev.Payload))

	ts, err := util.Time(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), ts.UnixMilli())
}

func TestNewRejectsUnencodablePayload(t *testing.T) {
	t.Parallel()

	_, err := New(RateTableCreated, model.EnvProd, time.Now(), make(chan int))
	require.Error(t, err)
}

func TestKafkaPublisher(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := &KafkaPublisher{w: w, topic: "dm.changes"}

	ev, err := New(LineItemUpserted, model.EnvProd, time.Now(), map[string]any{"activationId": "a-1"})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "prod", string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, string(LineItemUpserted), string(msg.Headers[0].Value))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev.ID, got.ID)
	assert.JSONEq(t, `{"activationId":"a-1"}`, string(got.Payload))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherError(t *testing.T) {
	t.Parallel()

	p := &KafkaPublisher{w: &fakeWriter{err: errors.New("no brokers")}, topic: "dm.changes"}

	ev, err := New(RateTableDeleted, model.EnvProd, time.Now(), nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish rate_table.deleted to dm.changes")
}

func TestNewKafkaPublisherDefaults(t *testing.T) {
	t.Parallel()

	p := NewKafkaPublisher(KafkaConfig{Brokers: []string{"127.0.0.1:9092"}})
	assert.Equal(t, "dm.changes", p.topic)
	require.NoError(t, p.Close())
}
