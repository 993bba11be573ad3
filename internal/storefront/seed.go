package storefront

import (
	"context"
	"fmt"

	"padaria/internal/commons"

	"go.uber.org/zap"
)

type SeedResult struct {
	Bakeries  int
	MenuItems int
}

// Seed creates every bakery of the fixture together with its menu. It stops at
// the first failed write; what was written before stays.
func Seed(ctx context.Context, catalog *Catalog, menu MenuRepository, seed *commons.Seed, logger *zap.Logger) (SeedResult, error) {
	var result SeedResult

	for _, sb := range seed.Bakeries {
		bakery, err := catalog.CreateBakery(ctx, sb.Name, sb.Description)
		if err != nil {
			return result, fmt.Errorf("seeding bakery %q: %w", sb.Name, err)
		}
		result.Bakeries++

		for _, item := range sb.Menu {
			if _, err := menu.Insert(ctx, bakery.ID, item.Name, item.Price); err != nil {
				return result, fmt.Errorf("seeding menu item %q of %q: %w", item.Name, sb.Name, err)
			}
			result.MenuItems++
		}

		logger.Info("bakery seeded",
			zap.String("bakeryId", bakery.ID),
			zap.String("bakeryName", bakery.Name),
			zap.Int("menuItems", len(sb.Menu)),
		)
	}

	return result, nil
}
