package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/storefront/internal/core/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProductEventSink(t *testing.T) {
	_, err := NewProductEventSink(Config{})
	assert.Error(t, err)

	s, err := NewProductEventSink(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	w, ok := s.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, defaultTopic, w.Topic)
}

func TestProductEventSink_Write(t *testing.T) {
	fw := &fakeWriter{}
	s := &ProductEventSink{writer: fw}
	at := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	ev := domain.ProductEvent{Type: domain.ProductCreated, ProductID: "p-1", Name: "Widget", Price: 9.99, UserID: "u-1", OccurredAt: at}
	require.NoError(t, s.Write(context.Background(), ev))

	require.Len(t, fw.msgs, 1)
	msg := fw.msgs[0]
	assert.Equal(t, "p-1", string(msg.Key))
	assert.Equal(t, "product_created", string(msg.Headers[0].Value))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "product_created", decoded["type"])
	assert.Equal(t, "p-1", decoded["productId"])
	assert.Equal(t, "u-1", decoded["userId"])

	require.NoError(t, s.Close())
	assert.True(t, fw.closed)
}

func TestProductEventSink_WriteError(t *testing.T) {
	boom := errors.New("leader not available")
	s := &ProductEventSink{writer: &fakeWriter{err: boom}}

	err := s.Write(context.Background(), domain.ProductEvent{Type: domain.ProductDeleted, ProductID: "p-1"})
	assert.ErrorIs(t, err, boom)
}
