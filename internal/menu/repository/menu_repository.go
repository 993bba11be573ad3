package repository

import (
	"context"
	"fmt"

	"padaria/internal/domain"
	"padaria/internal/remote"

	"go.uber.org/zap"
)

type MenuSnapshotFunc func(items []domain.MenuItem, err error)

type RemoteMenuRepository struct {
	store  remote.Store
	logger *zap.Logger
}

func NewRemoteMenuRepository(store remote.Store, logger *zap.Logger) *RemoteMenuRepository {
	return &RemoteMenuRepository{store: store, logger: logger}
}

func (r *RemoteMenuRepository) Insert(ctx context.Context, bakeryID, name string, price float64) (string, error) {
	id, err := r.store.Add(ctx, remote.CollectionMenuItems, map[string]any{
		"name":     name,
		"price":    price,
		"bakeryId": bakeryID,
	})
	if err != nil {
		return "", fmt.Errorf("inserting menu item: %w", err)
	}
	return id, nil
}

func (r *RemoteMenuRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, remote.CollectionMenuItems, id); err != nil {
		return fmt.Errorf("deleting menu item: %w", err)
	}
	return nil
}

// Subscribe streams the menu of one bakery. Documents that cannot be decoded
// are skipped; the rest of the snapshot is delivered.
func (r *RemoteMenuRepository) Subscribe(ctx context.Context, bakeryID string, fn MenuSnapshotFunc) (remote.Subscription, error) {
	q := remote.Query{
		Collection: remote.CollectionMenuItems,
		Where:      map[string]any{"bakeryId": bakeryID},
	}

	sub, err := r.store.Subscribe(ctx, q, func(docs []remote.Document, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(r.decodeAll(bakeryID, docs), nil)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to menu: %w", err)
	}
	return sub, nil
}

func (r *RemoteMenuRepository) decodeAll(bakeryID string, docs []remote.Document) []domain.MenuItem {
	items := make([]domain.MenuItem, 0, len(docs))
	for _, doc := range docs {
		item, ok := decodeMenuItem(doc)
		if !ok {
			r.logger.Warn("skipping menu document without name",
				zap.String("bakeryId", bakeryID),
				zap.String("documentId", doc.ID),
			)
			continue
		}
		items = append(items, item)
	}
	return items
}

// decodeMenuItem requires a name. A missing or non-numeric price decodes as 0.
func decodeMenuItem(doc remote.Document) (domain.MenuItem, bool) {
	name, ok := doc.String("name")
	if !ok {
		return domain.MenuItem{}, false
	}
	price, _ := doc.Float("price")
	image, _ := doc.String("image")

	return domain.MenuItem{
		ID:    doc.ID,
		Name:  name,
		Price: price,
		Image: image,
	}, true
}
