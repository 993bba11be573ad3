package repository

import (
	"context"
	"fmt"

	"padaria/internal/domain"
	"padaria/internal/remote"

	"go.uber.org/zap"
)

type RemoteBakeryRepository struct {
	store  remote.Store
	logger *zap.Logger
}

func NewRemoteBakeryRepository(store remote.Store, logger *zap.Logger) *RemoteBakeryRepository {
	return &RemoteBakeryRepository{store: store, logger: logger}
}

// FindAll skips documents without a name.
func (r *RemoteBakeryRepository) FindAll(ctx context.Context) ([]domain.Bakery, error) {
	docs, err := r.store.Get(ctx, remote.Query{Collection: remote.CollectionBakeries})
	if err != nil {
		return nil, fmt.Errorf("querying bakeries: %w", err)
	}

	bakeries := make([]domain.Bakery, 0, len(docs))
	for _, doc := range docs {
		b, ok := decodeBakery(doc)
		if !ok {
			r.logger.Warn("skipping bakery document without name", zap.String("documentId", doc.ID))
			continue
		}
		bakeries = append(bakeries, b)
	}

	return bakeries, nil
}

func (r *RemoteBakeryRepository) Insert(ctx context.Context, name, description string) (string, error) {
	id, err := r.store.Add(ctx, remote.CollectionBakeries, map[string]any{
		"name":        name,
		"description": description,
	})
	if err != nil {
		return "", fmt.Errorf("inserting bakery: %w", err)
	}
	return id, nil
}

func decodeBakery(doc remote.Document) (domain.Bakery, bool) {
	name, ok := doc.String("name")
	if !ok {
		return domain.Bakery{}, false
	}
	description, _ := doc.String("description")

	return domain.Bakery{
		ID:          doc.ID,
		Name:        name,
		Description: description,
	}, true
}
