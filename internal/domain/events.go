package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated = "CREATED"
	EventStatusChange = "STATUS_CHANGE"
	EventFraudFlagged = "FRAUD_FLAGGED"
)

// ActorSystem is recorded when a change was not initiated by a user request.
const ActorSystem = "system"

type OrderEvent struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	EventType string          `json:"event_type"`
	ActorID   string          `json:"actor_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type OrderCreatedEvent struct {
	OrderID    uuid.UUID   `json:"order_id"`
	UserID     string      `json:"user_id"`
	TotalCents int64       `json:"total_cents"`
	Items      []OrderItem `json:"items"`
	Note       string      `json:"note,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// OrderShippedEvent is published after a transition to SHIPPED with tracking.
type OrderShippedEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier"`
	Timestamp      time.Time `json:"timestamp"`
}
