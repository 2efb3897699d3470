// Package events publishes versioned order lifecycle events to Kafka.
// Publication is best-effort: a committed order is never failed or retried
// because its event could not be delivered.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/barriocredito/voxpedido/internal/order"
)

// EventOrderCommitted is emitted after the full commit sequence succeeds.
const EventOrderCommitted = "OrderCommitted"

// producerName identifies this service in event envelopes.
const producerName = "voxpedido"

// Envelope is the versioned wrapper around every published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// OrderItem is one committed line inside an OrderCommitted payload. Product
// ids are the public UUIDs, never internal catalog ids.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"product_name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

// OrderCommittedPayload describes a committed voice order.
type OrderCommittedPayload struct {
	OrderID int64       `json:"order_id"`
	BuyerID string      `json:"buyer_id"`
	Items   []OrderItem `json:"items"`
	Total   float64     `json:"total"`
}

// NewOrderCommitted builds the envelope for a committed order. The order id
// doubles as the correlation id and the Kafka message key, so all events of
// one order land on the same partition.
func NewOrderCommitted(orderID int64, buyerID string, items []order.CartItem, total float64) (*Envelope, error) {
	payload := OrderCommittedPayload{
		OrderID: orderID,
		BuyerID: buyerID,
		Items:   make([]OrderItem, len(items)),
		Total:   total,
	}
	for i, item := range items {
		payload.Items[i] = OrderItem{
			ProductID: item.PublicID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("events: marshal payload: %w", err)
	}

	return &Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderCommitted,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producerName,
		CorrelationID: fmt.Sprintf("%d", orderID),
		Payload:       raw,
	}, nil
}
