package repository

import (
	"context"
	"fmt"
	"time"

	"padaria/internal/domain"
	"padaria/internal/remote"

	"go.uber.org/zap"
)

type OrderSnapshotFunc func(orders []domain.Order, err error)

type RemoteOrderRepository struct {
	store  remote.Store
	logger *zap.Logger
}

func NewRemoteOrderRepository(store remote.Store, logger *zap.Logger) *RemoteOrderRepository {
	return &RemoteOrderRepository{store: store, logger: logger}
}

// Insert writes a new order document and returns its remote id. The numeric
// id and createdAt are both the creation time in milliseconds.
func (r *RemoteOrderRepository) Insert(ctx context.Context, order domain.Order) (string, error) {
	items := make([]any, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]any{
			"id":       item.ID,
			"name":     item.Name,
			"price":    item.Price,
			"quantity": item.Quantity,
		})
	}

	id, err := r.store.Add(ctx, remote.CollectionOrders, map[string]any{
		"id":        order.ID,
		"bakeryId":  order.BakeryID,
		"createdAt": order.CreatedAt.UnixMilli(),
		"status":    string(order.Status),
		"table":     order.Table,
		"items":     items,
	})
	if err != nil {
		return "", fmt.Errorf("inserting order: %w", err)
	}
	return id, nil
}

func (r *RemoteOrderRepository) UpdateStatus(ctx context.Context, remoteID string, status domain.OrderStatus) error {
	err := r.store.Update(ctx, remote.CollectionOrders, remoteID, map[string]any{
		"status": string(status),
	})
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	return nil
}

// Subscribe streams the orders of one bakery, oldest first. A corrupt order
// document is excluded from the snapshot; the others are still delivered.
func (r *RemoteOrderRepository) Subscribe(ctx context.Context, bakeryID string, fn OrderSnapshotFunc) (remote.Subscription, error) {
	q := remote.Query{
		Collection: remote.CollectionOrders,
		Where:      map[string]any{"bakeryId": bakeryID},
		OrderBy:    "createdAt",
	}

	sub, err := r.store.Subscribe(ctx, q, func(docs []remote.Document, err error) {
		if err != nil {
			fn(nil, err)
			return
		}

		orders := make([]domain.Order, 0, len(docs))
		for _, doc := range docs {
			order, err := decodeOrder(doc)
			if err != nil {
				r.logger.Warn("excluding corrupt order document",
					zap.String("bakeryId", bakeryID),
					zap.String("documentId", doc.ID),
					zap.Error(err),
				)
				continue
			}
			orders = append(orders, order)
		}
		fn(orders, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to orders: %w", err)
	}
	return sub, nil
}

func decodeOrder(doc remote.Document) (domain.Order, error) {
	id, ok := doc.Int("id")
	if !ok {
		return domain.Order{}, fmt.Errorf("missing numeric id")
	}

	status := domain.OrderStatusWaiting
	if raw, ok := doc.String("status"); ok {
		parsed, err := domain.ParseOrderStatus(raw)
		if err != nil {
			return domain.Order{}, err
		}
		status = parsed
	}

	table, ok := doc.String("table")
	if !ok {
		table = domain.UnknownTable
	}
	bakeryID, _ := doc.String("bakeryId")

	createdAt := time.UnixMilli(id)
	if ms, ok := doc.Int("createdAt"); ok {
		createdAt = time.UnixMilli(ms)
	}

	rawItems, err := doc.Maps("items")
	if err != nil {
		return domain.Order{}, err
	}
	items := make([]domain.OrderItem, 0, len(rawItems))
	for i, raw := range rawItems {
		item, err := decodeOrderItem(remote.Sub(raw))
		if err != nil {
			return domain.Order{}, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}

	return domain.Order{
		ID:        id,
		RemoteID:  doc.ID,
		BakeryID:  bakeryID,
		Table:     table,
		Items:     items,
		Status:    status,
		CreatedAt: createdAt,
	}, nil
}

func decodeOrderItem(doc remote.Document) (domain.OrderItem, error) {
	id, ok := doc.String("id")
	if !ok {
		return domain.OrderItem{}, fmt.Errorf("missing id")
	}
	name, ok := doc.String("name")
	if !ok {
		return domain.OrderItem{}, fmt.Errorf("missing name")
	}
	price, ok := doc.Float("price")
	if !ok {
		return domain.OrderItem{}, fmt.Errorf("missing price")
	}
	quantity, ok := doc.Int("quantity")
	if !ok {
		return domain.OrderItem{}, fmt.Errorf("missing quantity")
	}

	return domain.OrderItem{
		ID:       id,
		Name:     name,
		Price:    price,
		Quantity: int(quantity),
	}, nil
}
