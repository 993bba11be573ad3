package service

import (
	"context"
	"time"

	"padaria/internal/domain"
	apperrors "padaria/internal/errors"

	"go.uber.org/zap"
)

// StatusUpdater writes a status to the remote order document. The storefront
// engine implements it.
type StatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, order domain.Order, status domain.OrderStatus) error
}

type TransitionRepository interface {
	Insert(ctx context.Context, t domain.StatusTransition) (uint, error)
	FindByOrder(ctx context.Context, orderRemoteID string) ([]domain.StatusTransition, error)
}

type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, order domain.Order, from, to domain.OrderStatus) error
}

// LifecycleService moves orders one step along
// Waiting -> Preparing -> Ready -> Done.
type LifecycleService struct {
	transitions TransitionRepository
	publisher   EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewLifecycleService accepts a nil transitions repository when the audit
// trail is disabled.
func NewLifecycleService(transitions TransitionRepository, publisher EventPublisher, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		transitions: transitions,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *LifecycleService) Advance(ctx context.Context, updater StatusUpdater, order domain.Order) (domain.OrderStatus, error) {
	return s.transition(ctx, updater, order, order.Status.Next())
}

func (s *LifecycleService) Regress(ctx context.Context, updater StatusUpdater, order domain.Order) (domain.OrderStatus, error) {
	return s.transition(ctx, updater, order, order.Status.Prev())
}

func (s *LifecycleService) History(ctx context.Context, orderRemoteID string) ([]domain.StatusTransition, error) {
	if s.transitions == nil {
		return nil, apperrors.NewConflictError("order status audit trail is disabled")
	}
	history, err := s.transitions.FindByOrder(ctx, orderRemoteID)
	if err != nil {
		return nil, apperrors.NewInternalError("loading order status history", err)
	}
	return history, nil
}

func (s *LifecycleService) transition(ctx context.Context, updater StatusUpdater, order domain.Order, target domain.OrderStatus) (domain.OrderStatus, error) {
	if !order.Status.IsValid() {
		return order.Status, apperrors.NewValidationError("order has an unknown status",
			apperrors.ValidationDetail{Field: "status", Message: string(order.Status)})
	}

	// Terminal in this direction.
	if target == order.Status {
		s.logger.Debug("order status unchanged",
			zap.String("orderRemoteId", order.RemoteID),
			zap.String("status", string(order.Status)),
		)
		return order.Status, nil
	}

	if err := updater.UpdateOrderStatus(ctx, order, target); err != nil {
		return order.Status, err
	}

	s.logger.Info("order status changed",
		zap.String("orderRemoteId", order.RemoteID),
		zap.Int64("orderId", order.ID),
		zap.String("bakeryId", order.BakeryID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(target)),
	)

	s.record(ctx, order, target)

	if err := s.publisher.PublishStatusChanged(ctx, order, order.Status, target); err != nil {
		s.logger.Warn("failed to publish status change",
			zap.String("orderRemoteId", order.RemoteID),
			zap.Error(err),
		)
	}

	return target, nil
}

func (s *LifecycleService) record(ctx context.Context, order domain.Order, target domain.OrderStatus) {
	if s.transitions == nil {
		return
	}

	_, err := s.transitions.Insert(ctx, domain.StatusTransition{
		OrderRemoteID: order.RemoteID,
		OrderID:       order.ID,
		BakeryID:      order.BakeryID,
		FromStatus:    order.Status,
		ToStatus:      target,
		ChangedAt:     s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to record status transition",
			zap.String("orderRemoteId", order.RemoteID),
			zap.Error(err),
		)
	}
}
