package dto

import (
	"time"

	apperrors "padaria/internal/errors"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type BakeryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type BakeriesResponse struct {
	TraceID  string           `json:"traceId"`
	Bakeries []BakeryResponse `json:"bakeries"`
	Count    int              `json:"count"`
}

type SessionResponse struct {
	TraceID   string          `json:"traceId"`
	SessionID string          `json:"sessionId"`
	IsAdmin   bool            `json:"isAdmin"`
	Bakery    *BakeryResponse `json:"bakery,omitempty"`
}

type MenuItemResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}

type MenuResponse struct {
	TraceID string             `json:"traceId"`
	Bakery  BakeryResponse     `json:"bakery"`
	Items   []MenuItemResponse `json:"items"`
	Count   int                `json:"count"`
}

type CreatedResponse struct {
	TraceID string `json:"traceId"`
	ID      string `json:"id"`
}

type CartLineResponse struct {
	Item     MenuItemResponse `json:"item"`
	Quantity int              `json:"quantity"`
	Subtotal string           `json:"subtotal"`
}

type CartResponse struct {
	TraceID string             `json:"traceId"`
	Lines   []CartLineResponse `json:"lines"`
	Total   string             `json:"total"`
}

type OrderItemResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type OrderResponse struct {
	ID        int64               `json:"id"`
	RemoteID  string              `json:"remoteId"`
	BakeryID  string              `json:"bakeryId"`
	Table     string              `json:"table"`
	Status    string              `json:"status"`
	Items     []OrderItemResponse `json:"items"`
	Total     string              `json:"total"`
	CreatedAt time.Time           `json:"createdAt"`
}

type PlaceOrderResponse struct {
	TraceID string        `json:"traceId"`
	Order   OrderResponse `json:"order"`
}

type OrdersResponse struct {
	TraceID string          `json:"traceId"`
	Orders  []OrderResponse `json:"orders"`
	Count   int             `json:"count"`
}

// ChangesResponse answers a long-poll. Changed is false when the wait expired
// without an update.
type ChangesResponse struct {
	TraceID  string             `json:"traceId"`
	Changed  bool               `json:"changed"`
	BakeryID string             `json:"bakeryId,omitempty"`
	Menu     []MenuItemResponse `json:"menu"`
	Orders   []OrderResponse    `json:"orders"`
}

type StatusChangeResponse struct {
	TraceID  string `json:"traceId"`
	RemoteID string `json:"remoteId"`
	Status   string `json:"status"`
}

type TransitionResponse struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changedAt"`
}

type HistoryResponse struct {
	TraceID     string               `json:"traceId"`
	RemoteID    string               `json:"remoteId"`
	Transitions []TransitionResponse `json:"transitions"`
}

type ErrorResponse struct {
	TraceID   string                       `json:"traceId"`
	Status    int                          `json:"status"`
	Code      string                       `json:"code"`
	Message   string                       `json:"message"`
	Details   []apperrors.ValidationDetail `json:"details,omitempty"`
	Retryable bool                         `json:"retryable,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}
