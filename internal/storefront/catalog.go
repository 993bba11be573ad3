package storefront

import (
	"context"
	"strings"

	"padaria/internal/commons"
	"padaria/internal/domain"
	apperrors "padaria/internal/errors"
	"padaria/internal/search"

	"go.uber.org/zap"
)

type BakeryRepository interface {
	FindAll(ctx context.Context) ([]domain.Bakery, error)
	Insert(ctx context.Context, name, description string) (string, error)
}

// Catalog is the list of bakeries shared by all sessions.
type Catalog struct {
	bakeries BakeryRepository
	retry    commons.RetryPolicy
	logger   *zap.Logger
}

func NewCatalog(bakeries BakeryRepository, retry commons.RetryPolicy, logger *zap.Logger) *Catalog {
	return &Catalog{bakeries: bakeries, retry: retry, logger: logger}
}

func (c *Catalog) ListBakeries(ctx context.Context) ([]domain.Bakery, error) {
	var bakeries []domain.Bakery
	err := commons.Retry(ctx, c.retry, isTransient, func(ctx context.Context) error {
		var err error
		bakeries, err = c.bakeries.FindAll(ctx)
		return err
	})
	if err != nil {
		c.logger.Error("failed to list bakeries", zap.Error(err))
		return nil, apperrors.NewRemoteError("get bakeries", err, isTransient(err))
	}
	return bakeries, nil
}

// SearchBakeries matches q against the name or the id of each bakery.
func (c *Catalog) SearchBakeries(ctx context.Context, q string) ([]domain.Bakery, error) {
	bakeries, err := c.ListBakeries(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Bakery, 0, len(bakeries))
	for _, b := range bakeries {
		if search.Contains(b.Name, q) || search.Contains(b.ID, q) {
			matches = append(matches, b)
		}
	}
	return matches, nil
}

func (c *Catalog) FindBakery(ctx context.Context, id string) (domain.Bakery, error) {
	bakeries, err := c.ListBakeries(ctx)
	if err != nil {
		return domain.Bakery{}, err
	}

	for _, b := range bakeries {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.Bakery{}, apperrors.NewNotFoundError("bakery not found")
}

func (c *Catalog) CreateBakery(ctx context.Context, name, description string) (domain.Bakery, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Bakery{}, apperrors.NewValidationError("invalid bakery",
			apperrors.ValidationDetail{Field: "name", Message: "name is required"})
	}
	description = strings.TrimSpace(description)

	var id string
	err := commons.Retry(ctx, c.retry, isTransient, func(ctx context.Context) error {
		var err error
		id, err = c.bakeries.Insert(ctx, name, description)
		return err
	})
	if err != nil {
		c.logger.Error("failed to create bakery", zap.Error(err))
		return domain.Bakery{}, apperrors.NewRemoteError("add bakeries", err, isTransient(err))
	}

	c.logger.Info("bakery created", zap.String("bakeryId", id), zap.String("bakeryName", name))
	return domain.Bakery{ID: id, Name: name, Description: description}, nil
}
