package events

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"storefront-service/internal/entity"
	"time"
)

const (
	TypeOrderCreated = "created"
	TypeOrderStatus  = "status"
)

// OrderEvent is the message written to the order topic after a committed change.
type OrderEvent struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	OrderID     int               `json:"order_id"`
	OrderNumber string            `json:"order_number,omitempty"`
	StatusType  entity.StatusType `json:"status_type,omitempty"`
	Status      string            `json:"status,omitempty"`
	Total       string            `json:"total,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Order       *entity.Order     `json:"order,omitempty"`
}

// NewOrderCreated builds the event for a freshly committed order.
func NewOrderCreated(order *entity.Order) OrderEvent {
	return OrderEvent{
		ID:          uuid.NewString(),
		Type:        TypeOrderCreated,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Total:       order.Total.StringFixed(2),
		OccurredAt:  time.Now().UTC(),
		Order:       order,
	}
}

// NewStatusChanged builds the event for a status column update.
func NewStatusChanged(orderID int, statusType entity.StatusType, status string) OrderEvent {
	return OrderEvent{
		ID:         uuid.NewString(),
		Type:       TypeOrderStatus,
		OrderID:    orderID,
		StatusType: statusType,
		Status:     status,
		OccurredAt: time.Now().UTC(),
	}
}

// Key partitions events per order, e.g. order-created-1 or order-status-1.
func (e OrderEvent) Key() string {
	return fmt.Sprintf("order-%s-%d", e.Type, e.OrderID)
}

type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes order events through a kafka-go writer.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: eventJSON,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(event.ID)},
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}

// NopPublisher drops events; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error {
	return nil
}
