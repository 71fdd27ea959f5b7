package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user.registered"
	EventOrderCreated   EventType = "order.created"
	EventOrderUpdated   EventType = "order.updated"
	EventOrderArchived  EventType = "order.archived"
)

// Actor identifies who triggered an event.
type Actor struct {
	Email string `json:"email,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	ResourceID string      `json:"resource_id"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// OrderCreatedPayload payload.
type OrderCreatedPayload struct {
	CustomerName string `json:"customer_name"`
	Status       string `json:"status"`
}

// OrderUpdatedPayload payload.
type OrderUpdatedPayload struct {
	Status   string   `json:"status"`
	Seller   string   `json:"seller,omitempty"`
	TotalPay *float64 `json:"total_pay,omitempty"`
	Matched  bool     `json:"matched"`
}

// OrderArchivedPayload payload.
type OrderArchivedPayload struct {
	ArchiveID string `json:"archive_id"`
	Replayed  bool   `json:"replayed"`
}
