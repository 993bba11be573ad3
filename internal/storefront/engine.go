// Package storefront keeps one session's view of a bakery (menu and orders)
// in sync with the remote store and exposes the writes a customer or an
// administrator can make against it.
package storefront

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"padaria/internal/commons"
	"padaria/internal/domain"
	apperrors "padaria/internal/errors"
	menurepo "padaria/internal/menu/repository"
	orderrepo "padaria/internal/order/repository"
	"padaria/internal/order/service"
	"padaria/internal/remote"

	"go.uber.org/zap"
)

type MenuRepository interface {
	Insert(ctx context.Context, bakeryID, name string, price float64) (string, error)
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, bakeryID string, fn menurepo.MenuSnapshotFunc) (remote.Subscription, error)
}

type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) (string, error)
	UpdateStatus(ctx context.Context, remoteID string, status domain.OrderStatus) error
	Subscribe(ctx context.Context, bakeryID string, fn orderrepo.OrderSnapshotFunc) (remote.Subscription, error)
}

type Lifecycle interface {
	Advance(ctx context.Context, updater service.StatusUpdater, order domain.Order) (domain.OrderStatus, error)
	Regress(ctx context.Context, updater service.StatusUpdater, order domain.Order) (domain.OrderStatus, error)
}

type OrderCreatedPublisher interface {
	PublishOrderCreated(ctx context.Context, order domain.Order) error
}

// Snapshot is a copy of the engine state at one instant.
type Snapshot struct {
	Selection domain.Selection
	MenuItems []domain.MenuItem
	Orders    []domain.Order
}

type Engine struct {
	menu      MenuRepository
	orders    OrderRepository
	lifecycle Lifecycle
	publisher OrderCreatedPublisher
	retry     commons.RetryPolicy
	logger    *zap.Logger
	now       func() time.Time

	// switchMu serializes SelectBakery and Close.
	switchMu sync.Mutex

	mu         sync.Mutex
	selection  domain.Selection
	menuItems  []domain.MenuItem
	orderList  []domain.Order
	generation uint64
	menuSub    remote.Subscription
	ordersSub  remote.Subscription
	changes    chan struct{}
	closed     bool
}

func NewEngine(
	menu MenuRepository,
	orders OrderRepository,
	lifecycle Lifecycle,
	publisher OrderCreatedPublisher,
	retry commons.RetryPolicy,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		menu:      menu,
		orders:    orders,
		lifecycle: lifecycle,
		publisher: publisher,
		retry:     retry,
		logger:    logger,
		now:       time.Now,
		selection: domain.NoneSelected(),
		changes:   make(chan struct{}, 1),
	}
}

// SelectBakery switches the engine to b. Menu and orders are cleared at once
// and refilled by the new subscriptions; snapshots still in flight for the
// previous bakery are dropped.
func (e *Engine) SelectBakery(ctx context.Context, b domain.Bakery) error {
	if strings.TrimSpace(b.ID) == "" {
		return apperrors.NewValidationError("bakery id is required",
			apperrors.ValidationDetail{Field: "bakeryId", Message: "bakery id is required"})
	}

	e.switchMu.Lock()
	defer e.switchMu.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return apperrors.NewConflictError("session is closed")
	}
	e.generation++
	gen := e.generation
	e.selection = domain.Selected(b)
	e.menuItems = nil
	e.orderList = nil
	oldMenu, oldOrders := e.menuSub, e.ordersSub
	e.menuSub, e.ordersSub = nil, nil
	e.notifyLocked()
	e.mu.Unlock()

	cancelAll(oldMenu, oldOrders)

	e.logger.Info("bakery selected", zap.String("bakeryId", b.ID), zap.String("bakeryName", b.Name))

	menuSub, err := e.subscribeMenu(ctx, b.ID, gen)
	if err != nil {
		e.dropSelection(gen)
		return apperrors.NewRemoteError("subscribe menuItems", err, isTransient(err))
	}
	ordersSub, err := e.subscribeOrders(ctx, b.ID, gen)
	if err != nil {
		menuSub.Cancel()
		e.dropSelection(gen)
		return apperrors.NewRemoteError("subscribe orders", err, isTransient(err))
	}

	e.mu.Lock()
	e.menuSub, e.ordersSub = menuSub, ordersSub
	e.mu.Unlock()

	return nil
}

// dropSelection returns the engine to NoneSelected after a failed switch, so
// no write targets a bakery without live queries.
func (e *Engine) dropSelection(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.generation != gen {
		return
	}
	e.generation++
	e.selection = domain.NoneSelected()
	e.menuItems = nil
	e.orderList = nil
	e.notifyLocked()
}

func (e *Engine) subscribeMenu(ctx context.Context, bakeryID string, gen uint64) (remote.Subscription, error) {
	return e.menu.Subscribe(ctx, bakeryID, func(items []domain.MenuItem, err error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.closed || gen != e.generation {
			return
		}
		if err != nil {
			e.logger.Warn("menu subscription interrupted", zap.String("bakeryId", bakeryID), zap.Error(err))
			return
		}
		e.menuItems = items
		e.notifyLocked()
	})
}

func (e *Engine) subscribeOrders(ctx context.Context, bakeryID string, gen uint64) (remote.Subscription, error) {
	return e.orders.Subscribe(ctx, bakeryID, func(orders []domain.Order, err error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.closed || gen != e.generation {
			return
		}
		if err != nil {
			e.logger.Warn("orders subscription interrupted", zap.String("bakeryId", bakeryID), zap.Error(err))
			return
		}
		e.orderList = orders
		e.notifyLocked()
	})
}

// AddMenuItem writes a new menu item for the selected bakery. The local menu
// changes only when the resulting snapshot arrives.
func (e *Engine) AddMenuItem(ctx context.Context, name string, price float64) (string, error) {
	name = strings.TrimSpace(name)

	var details []apperrors.ValidationDetail
	if name == "" {
		details = append(details, apperrors.ValidationDetail{Field: "name", Message: "name is required"})
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		details = append(details, apperrors.ValidationDetail{Field: "price", Message: "price must be a non-negative number"})
	}
	if len(details) > 0 {
		return "", apperrors.NewValidationError("invalid menu item", details...)
	}

	bakeryID, err := e.selectedBakeryID()
	if err != nil {
		return "", err
	}

	var id string
	err = e.write(ctx, "add menuItems", func(ctx context.Context) error {
		var err error
		id, err = e.menu.Insert(ctx, bakeryID, name, price)
		return err
	})
	if err != nil {
		return "", err
	}

	e.logger.Info("menu item added", zap.String("bakeryId", bakeryID), zap.String("menuItemId", id))
	return id, nil
}

// RemoveMenuItem deletes item remotely. An item without a remote id only
// exists locally and is dropped from the local menu.
func (e *Engine) RemoveMenuItem(ctx context.Context, item domain.MenuItem) error {
	if item.ID == "" {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, existing := range e.menuItems {
			if existing == item {
				e.menuItems = append(e.menuItems[:i:i], e.menuItems[i+1:]...)
				e.notifyLocked()
				return nil
			}
		}
		return apperrors.NewNotFoundError("menu item not found")
	}

	if _, err := e.selectedBakeryID(); err != nil {
		return err
	}

	err := e.write(ctx, "delete menuItems", func(ctx context.Context) error {
		return e.menu.Delete(ctx, item.ID)
	})
	if err != nil {
		return err
	}

	e.logger.Info("menu item removed", zap.String("menuItemId", item.ID))
	return nil
}

// CreateOrder places an order with a frozen copy of items. It does not touch
// any cart.
func (e *Engine) CreateOrder(ctx context.Context, items []domain.CartItem, table string) (domain.Order, error) {
	if len(items) == 0 {
		return domain.Order{}, apperrors.NewValidationError("order has no items",
			apperrors.ValidationDetail{Field: "items", Message: "at least one item is required"})
	}
	for _, line := range items {
		if line.Quantity < 1 {
			return domain.Order{}, apperrors.NewValidationError("invalid order item",
				apperrors.ValidationDetail{Field: "quantity", Message: "quantity must be at least 1"})
		}
	}

	bakeryID, err := e.selectedBakeryID()
	if err != nil {
		return domain.Order{}, err
	}

	table = strings.TrimSpace(table)
	if table == "" {
		table = domain.DefaultTable
	}

	createdAt := e.now().UnixMilli()
	order := domain.Order{
		ID:        createdAt,
		BakeryID:  bakeryID,
		Table:     table,
		Items:     domain.SnapshotItems(items),
		Status:    domain.OrderStatusWaiting,
		CreatedAt: time.UnixMilli(createdAt),
	}

	err = e.write(ctx, "add orders", func(ctx context.Context) error {
		remoteID, err := e.orders.Insert(ctx, order)
		order.RemoteID = remoteID
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}

	e.logger.Info("order created",
		zap.String("bakeryId", bakeryID),
		zap.String("orderRemoteId", order.RemoteID),
		zap.Int64("orderId", order.ID),
		zap.String("total", order.Total().StringFixed(2)),
	)

	if err := e.publisher.PublishOrderCreated(ctx, order); err != nil {
		e.logger.Warn("failed to publish order created", zap.String("orderRemoteId", order.RemoteID), zap.Error(err))
	}

	return order, nil
}

// UpdateOrderStatus writes status to the remote order. The local copy is left
// alone until the next snapshot.
func (e *Engine) UpdateOrderStatus(ctx context.Context, order domain.Order, status domain.OrderStatus) error {
	if order.RemoteID == "" {
		return apperrors.NewConflictError("order has no remote id")
	}
	if !status.IsValid() {
		return apperrors.NewValidationError("invalid order status",
			apperrors.ValidationDetail{Field: "status", Message: string(status)})
	}

	return e.write(ctx, "update orders", func(ctx context.Context) error {
		return e.orders.UpdateStatus(ctx, order.RemoteID, status)
	})
}

func (e *Engine) AdvanceOrder(ctx context.Context, remoteID string) (domain.OrderStatus, error) {
	order, err := e.findOrder(remoteID)
	if err != nil {
		return "", err
	}
	return e.lifecycle.Advance(ctx, e, order)
}

func (e *Engine) RegressOrder(ctx context.Context, remoteID string) (domain.OrderStatus, error) {
	order, err := e.findOrder(remoteID)
	if err != nil {
		return "", err
	}
	return e.lifecycle.Regress(ctx, e, order)
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	orders := make([]domain.Order, len(e.orderList))
	for i, order := range e.orderList {
		order.Items = append([]domain.OrderItem(nil), order.Items...)
		orders[i] = order
	}

	return Snapshot{
		Selection: e.selection,
		MenuItems: append([]domain.MenuItem{}, e.menuItems...),
		Orders:    orders,
	}
}

// Changes is signalled after every applied snapshot. Bursts coalesce into one
// signal. The channel is closed by Close.
func (e *Engine) Changes() <-chan struct{} {
	return e.changes
}

// Close releases both subscriptions. No snapshot is applied after it returns.
func (e *Engine) Close() {
	e.switchMu.Lock()
	defer e.switchMu.Unlock()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.generation++
	menuSub, ordersSub := e.menuSub, e.ordersSub
	e.menuSub, e.ordersSub = nil, nil
	e.mu.Unlock()

	cancelAll(menuSub, ordersSub)
	close(e.changes)
}

func (e *Engine) selectedBakeryID() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.selection.IsSelected() {
		return "", apperrors.NewConflictError("no bakery selected")
	}
	return e.selection.BakeryID(), nil
}

func (e *Engine) findOrder(remoteID string) (domain.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.selection.IsSelected() {
		return domain.Order{}, apperrors.NewConflictError("no bakery selected")
	}
	for _, order := range e.orderList {
		if order.RemoteID == remoteID {
			return order, nil
		}
	}
	return domain.Order{}, apperrors.NewNotFoundError("order not found")
}

// write retries op on transient failures and maps what is left to the
// storefront error types.
func (e *Engine) write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := commons.Retry(ctx, e.retry, isTransient, fn)
	if err == nil {
		return nil
	}

	if errors.Is(err, remote.ErrNotFound) {
		return apperrors.NewNotFoundError("document not found")
	}

	e.logger.Error("remote write failed", zap.String("op", op), zap.Error(err))
	return apperrors.NewRemoteError(op, err, isTransient(err))
}

func (e *Engine) notifyLocked() {
	if e.closed {
		return
	}
	select {
	case e.changes <- struct{}{}:
	default:
	}
}

func isTransient(err error) bool {
	return !errors.Is(err, remote.ErrNotFound) &&
		!errors.Is(err, remote.ErrClosed) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func cancelAll(subs ...remote.Subscription) {
	for _, sub := range subs {
		if sub != nil {
			sub.Cancel()
		}
	}
}
