package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultTable is written on every new order.
	DefaultTable = "1"
	// UnknownTable is used when an order document carries no table.
	UnknownTable = "?"
)

// OrderItem is a menu item frozen at the moment the order was placed.
type OrderItem struct {
	ID       string
	Name     string
	Price    float64
	Quantity int
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(i.Price).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID        int64
	RemoteID  string
	BakeryID  string
	Table     string
	Items     []OrderItem
	Status    OrderStatus
	CreatedAt time.Time
}

// Total is recomputed from the frozen items on every call.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// SnapshotItems freezes cart lines into order items.
func SnapshotItems(lines []CartItem) []OrderItem {
	items := make([]OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, OrderItem{
			ID:       line.Item.ID,
			Name:     line.Item.Name,
			Price:    line.Item.Price,
			Quantity: line.Quantity,
		})
	}
	return items
}
