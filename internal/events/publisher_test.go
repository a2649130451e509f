package events

import (
	"context"
	"encoding/json"
	"storefront-service/internal/entity"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func TestPublishOrderCreated(t *testing.T) {
	writer := &recordingWriter{}
	publisher := &KafkaPublisher{writer: writer}

	order := &entity.Order{ID: 12, OrderNumber: "YK202610180012", Total: decimal.NewFromInt(25)}
	require.NoError(t, publisher.Publish(context.Background(), NewOrderCreated(order)))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "order-created-12", string(msg.Key))

	var decoded OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "YK202610180012", decoded.OrderNumber)
	assert.Equal(t, "25.00", decoded.Total)
	assert.NotEmpty(t, decoded.ID)
}

func TestStatusEventKey(t *testing.T) {
	event := NewStatusChanged(3, entity.StatusTypePayment, "paid")
	assert.Equal(t, "order-status-3", event.Key())
	assert.Equal(t, entity.StatusTypePayment, event.StatusType)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), OrderEvent{}))
}
