package market

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

// Envelope wraps every event published to the brokers.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID    string   `json:"order_id"`
	OrderRef   string   `json:"order_ref"`
	BuyerID    string   `json:"buyer_id"`
	SellerIDs  []string `json:"seller_ids"`
	TotalCents int64    `json:"total_cents"`
}

type OrderStatusChangedPayload struct {
	OrderID  string `json:"order_id"`
	OrderRef string `json:"order_ref"`
	BuyerID  string `json:"buyer_id"`
	From     Status `json:"from"`
	To       Status `json:"to"`
	ActorID  string `json:"actor_id"`
}
