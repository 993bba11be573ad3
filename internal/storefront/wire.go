package storefront

import (
	bakeryrepo "padaria/internal/bakery/repository"
	"padaria/internal/commons"
	"padaria/internal/config"
	menurepo "padaria/internal/menu/repository"
	"padaria/internal/order"
	orderrepo "padaria/internal/order/repository"
	"padaria/internal/remote"

	"go.uber.org/zap"
)

func NewModule(store remote.Store, orders *order.Module, cfg *config.Config, logger *zap.Logger) (*Manager, *Catalog) {
	retry := commons.RetryPolicy{
		MaxAttempts: cfg.Writes.MaxAttempts,
		BaseBackoff: cfg.Writes.BaseBackoff,
	}

	menuRepo := menurepo.NewRemoteMenuRepository(store, logger)
	orderRepo := orderrepo.NewRemoteOrderRepository(store, logger)
	catalog := NewCatalog(bakeryrepo.NewRemoteBakeryRepository(store, logger), retry, logger)

	newEngine := func() *Engine {
		return NewEngine(menuRepo, orderRepo, orders.Lifecycle, orders.Publisher, retry, logger)
	}

	return NewManager(newEngine, cfg.Admin, cfg.Session.IdleTimeout, logger), catalog
}
