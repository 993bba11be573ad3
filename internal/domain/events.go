package domain

import "time"

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	EventType string      `json:"event_type"`
	OrderID   int64       `json:"order_id"`
	RemoteID  string      `json:"remote_id"`
	BakeryID  string      `json:"bakery_id"`
	Table     string      `json:"table,omitempty"`
	OldStatus OrderStatus `json:"old_status,omitempty"`
	NewStatus OrderStatus `json:"new_status"`
	Total     string      `json:"total,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// StatusTransition is the audit record of one lifecycle step.
type StatusTransition struct {
	ID            uint
	OrderRemoteID string
	OrderID       int64
	BakeryID      string
	FromStatus    OrderStatus
	ToStatus      OrderStatus
	ChangedAt     time.Time
}
