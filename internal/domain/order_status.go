package domain

import "fmt"

type OrderStatus string

const (
	OrderStatusWaiting   OrderStatus = "Waiting"
	OrderStatusPreparing OrderStatus = "Preparing"
	OrderStatusReady     OrderStatus = "Ready"
	OrderStatusDone      OrderStatus = "Done"
)

// orderStatusFlow lists the statuses in fulfillment order.
var orderStatusFlow = []OrderStatus{
	OrderStatusWaiting,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDone,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, status := range orderStatusFlow {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

func (s OrderStatus) IsValid() bool {
	return s.rank() >= 0
}

// Next returns the following status; Done stays Done.
func (s OrderStatus) Next() OrderStatus {
	r := s.rank()
	if r < 0 || r == len(orderStatusFlow)-1 {
		return s
	}
	return orderStatusFlow[r+1]
}

// Prev returns the preceding status; Waiting stays Waiting.
func (s OrderStatus) Prev() OrderStatus {
	r := s.rank()
	if r <= 0 {
		return s
	}
	return orderStatusFlow[r-1]
}

func (s OrderStatus) rank() int {
	for i, status := range orderStatusFlow {
		if status == s {
			return i
		}
	}
	return -1
}
