package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
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

func TestKafkaMirror_Mirror(t *testing.T) {
	w := &fakeWriter{}
	m := NewKafkaMirrorWithWriter(w)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	env := models.Envelope{ID: "e1", Type: models.EventMealServed, Timestamp: ts}
	require.NoError(t, m.Mirror(context.Background(), env))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "meal_served", string(msg.Key))
	assert.Equal(t, ts, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, "meal_served", string(msg.Headers[0].Value))

	var decoded models.Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "e1", decoded.ID)

	require.NoError(t, m.Close())
	assert.True(t, w.closed)
}

func TestKafkaMirror_WriteError(t *testing.T) {
	m := NewKafkaMirrorWithWriter(&fakeWriter{err: errors.New("no brokers")})
	err := m.Mirror(context.Background(), models.Envelope{Type: models.EventMealServed})
	assert.ErrorContains(t, err, "no brokers")
}
