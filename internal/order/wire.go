package order

import (
	"context"
	"database/sql"

	"padaria/internal/commons"
	"padaria/internal/config"
	"padaria/internal/domain"
	"padaria/internal/infrastructure/rabbitmq"
	"padaria/internal/order/events"
	orderrepo "padaria/internal/order/repository"
	"padaria/internal/order/service"

	"go.uber.org/zap"
)

type Publisher interface {
	PublishOrderCreated(ctx context.Context, order domain.Order) error
	PublishStatusChanged(ctx context.Context, order domain.Order, from, to domain.OrderStatus) error
}

type Module struct {
	Lifecycle *service.LifecycleService
	Publisher Publisher
}

// NewModule builds the order lifecycle. db and broker are optional: without
// db no audit trail is kept, without broker no events are published.
func NewModule(db *sql.DB, broker *rabbitmq.Broker, cfg *config.Config, logger *zap.Logger) *Module {
	var publisher Publisher = events.NopPublisher{}
	if broker != nil {
		publisher = events.NewOrderEventPublisher(broker)
	}

	var transitions service.TransitionRepository
	if db != nil {
		transitions = orderrepo.NewMySQLTransitionRepository(db, commons.RetryPolicy{
			MaxAttempts: cfg.Writes.MaxAttempts,
			BaseBackoff: cfg.Writes.BaseBackoff,
		})
	}

	return &Module{
		Lifecycle: service.NewLifecycleService(transitions, publisher, logger),
		Publisher: publisher,
	}
}
