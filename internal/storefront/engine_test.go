package storefront

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"padaria/internal/commons"
	"padaria/internal/domain"
	apperrors "padaria/internal/errors"
	menurepo "padaria/internal/menu/repository"
	"padaria/internal/order/events"
	orderrepo "padaria/internal/order/repository"
	"padaria/internal/order/service"
	"padaria/internal/remote"
	"padaria/internal/remote/memstore"
)

var (
	bakeryOne = domain.Bakery{ID: "b1", Name: "Padaria Central"}
	bakeryTwo = domain.Bakery{ID: "b2", Name: "Doce Lar"}
)

// manualSubscription never delivers on its own; tests drive the captured
// callbacks directly.
type manualSubscription struct {
	mu        sync.Mutex
	cancelled bool
}

func (s *manualSubscription) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

func (s *manualSubscription) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

type manualMenuRepository struct {
	mu        sync.Mutex
	callbacks map[string]menurepo.MenuSnapshotFunc
	subs      map[string]*manualSubscription
}

func newManualMenuRepository() *manualMenuRepository {
	return &manualMenuRepository{
		callbacks: make(map[string]menurepo.MenuSnapshotFunc),
		subs:      make(map[string]*manualSubscription),
	}
}

func (m *manualMenuRepository) Insert(ctx context.Context, bakeryID, name string, price float64) (string, error) {
	return "new-id", nil
}

func (m *manualMenuRepository) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *manualMenuRepository) Subscribe(ctx context.Context, bakeryID string, fn menurepo.MenuSnapshotFunc) (remote.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := &manualSubscription{}
	m.callbacks[bakeryID] = fn
	m.subs[bakeryID] = sub
	return sub, nil
}

func (m *manualMenuRepository) push(bakeryID string, items []domain.MenuItem) {
	m.mu.Lock()
	fn := m.callbacks[bakeryID]
	m.mu.Unlock()
	fn(items, nil)
}

type manualOrderRepository struct {
	InsertFunc    func(ctx context.Context, order domain.Order) (string, error)
	SubscribeFunc func(ctx context.Context, bakeryID string) error

	mu        sync.Mutex
	callbacks map[string]orderrepo.OrderSnapshotFunc
	updates   int
}

func newManualOrderRepository() *manualOrderRepository {
	return &manualOrderRepository{callbacks: make(map[string]orderrepo.OrderSnapshotFunc)}
}

func (m *manualOrderRepository) Insert(ctx context.Context, order domain.Order) (string, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, order)
	}
	return "order-remote", nil
}

func (m *manualOrderRepository) UpdateStatus(ctx context.Context, remoteID string, status domain.OrderStatus) error {
	m.mu.Lock()
	m.updates++
	m.mu.Unlock()
	return nil
}

func (m *manualOrderRepository) Subscribe(ctx context.Context, bakeryID string, fn orderrepo.OrderSnapshotFunc) (remote.Subscription, error) {
	if m.SubscribeFunc != nil {
		if err := m.SubscribeFunc(ctx, bakeryID); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[bakeryID] = fn
	return &manualSubscription{}, nil
}

func (m *manualOrderRepository) push(bakeryID string, orders []domain.Order) {
	m.mu.Lock()
	fn := m.callbacks[bakeryID]
	m.mu.Unlock()
	fn(orders, nil)
}

func testRetry() commons.RetryPolicy {
	return commons.RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond}
}

func newManualEngine() (*Engine, *manualMenuRepository, *manualOrderRepository) {
	menu := newManualMenuRepository()
	orders := newManualOrderRepository()
	lifecycle := service.NewLifecycleService(nil, events.NopPublisher{}, zap.NewNop())
	return NewEngine(menu, orders, lifecycle, events.NopPublisher{}, testRetry(), zap.NewNop()), menu, orders
}

func newMemEngine(t *testing.T) (*Engine, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	lifecycle := service.NewLifecycleService(nil, events.NopPublisher{}, zap.NewNop())
	engine := NewEngine(
		menurepo.NewRemoteMenuRepository(store, zap.NewNop()),
		orderrepo.NewRemoteOrderRepository(store, zap.NewNop()),
		lifecycle,
		events.NopPublisher{},
		testRetry(),
		zap.NewNop(),
	)
	t.Cleanup(func() {
		engine.Close()
		store.Close()
	})
	return engine, store
}

func TestEngine_StaleSnapshotAfterSwitchIsDropped(t *testing.T) {
	engine, menu, orders := newManualEngine()
	defer engine.Close()
	ctx := context.Background()

	require.NoError(t, engine.SelectBakery(ctx, bakeryOne))
	menu.push("b1", []domain.MenuItem{{ID: "m1", Name: "Bread", Price: 0.8}})
	assert.Len(t, engine.Snapshot().MenuItems, 1)

	require.NoError(t, engine.SelectBakery(ctx, bakeryTwo))
	assert.True(t, menu.subs["b1"].isCancelled())

	snapshot := engine.Snapshot()
	assert.Equal(t, "b2", snapshot.Selection.BakeryID())
	assert.Empty(t, snapshot.MenuItems)
	assert.Empty(t, snapshot.Orders)

	// Late deliveries for the previous bakery.
	menu.push("b1", []domain.MenuItem{{ID: "m2", Name: "Cake", Price: 12}})
	orders.push("b1", []domain.Order{{ID: 1, RemoteID: "o1", Status: domain.OrderStatusWaiting}})

	snapshot = engine.Snapshot()
	assert.Empty(t, snapshot.MenuItems)
	assert.Empty(t, snapshot.Orders)

	menu.push("b2", []domain.MenuItem{{ID: "m3", Name: "Coffee", Price: 4.5}})
	snapshot = engine.Snapshot()
	require.Len(t, snapshot.MenuItems, 1)
	assert.Equal(t, "Coffee", snapshot.MenuItems[0].Name)
}

func TestEngine_CloseStopsUpdates(t *testing.T) {
	engine, menu, _ := newManualEngine()
	ctx := context.Background()

	require.NoError(t, engine.SelectBakery(ctx, bakeryOne))
	engine.Close()
	engine.Close()

	assert.True(t, menu.subs["b1"].isCancelled())

	menu.push("b1", []domain.MenuItem{{ID: "m1", Name: "Bread"}})
	assert.Empty(t, engine.Snapshot().MenuItems)

	for range engine.Changes() {
	}

	err := engine.SelectBakery(ctx, bakeryTwo)
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
}

func TestEngine_ChangesSignalled(t *testing.T) {
	engine, menu, _ := newManualEngine()
	defer engine.Close()

	require.NoError(t, engine.SelectBakery(context.Background(), bakeryOne))
	<-engine.Changes()

	menu.push("b1", []domain.MenuItem{{ID: "m1", Name: "Bread"}})
	menu.push("b1", []domain.MenuItem{{ID: "m1", Name: "Bread"}, {ID: "m2", Name: "Cake"}})

	select {
	case <-engine.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}
	select {
	case <-engine.Changes():
		t.Fatal("bursts should coalesce into one signal")
	default:
	}
}

func TestEngine_SnapshotIsACopy(t *testing.T) {
	engine, menu, orders := newManualEngine()
	defer engine.Close()

	require.NoError(t, engine.SelectBakery(context.Background(), bakeryOne))
	menu.push("b1", []domain.MenuItem{{ID: "m1", Name: "Bread"}})
	orders.push("b1", []domain.Order{{ID: 1, RemoteID: "o1", Items: []domain.OrderItem{{ID: "m1", Quantity: 1}}}})

	snapshot := engine.Snapshot()
	snapshot.MenuItems[0].Name = "changed"
	snapshot.Orders[0].Items[0].Quantity = 99

	again := engine.Snapshot()
	assert.Equal(t, "Bread", again.MenuItems[0].Name)
	assert.Equal(t, 1, again.Orders[0].Items[0].Quantity)
}

func TestEngine_RequiresSelection(t *testing.T) {
	engine, _, _ := newManualEngine()
	defer engine.Close()
	ctx := context.Background()

	_, err := engine.AddMenuItem(ctx, "Bread", 0.8)
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)

	_, err = engine.CreateOrder(ctx, []domain.CartItem{{Item: domain.MenuItem{ID: "m1"}, Quantity: 1}}, "")
	_, ok = apperrors.IsConflictError(err)
	assert.True(t, ok)

	_, err = engine.AdvanceOrder(ctx, "o1")
	_, ok = apperrors.IsConflictError(err)
	assert.True(t, ok)
}

func TestEngine_AddMenuItemValidation(t *testing.T) {
	engine, _, _ := newManualEngine()
	defer engine.Close()

	_, err := engine.AddMenuItem(context.Background(), "  ", -1)
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Len(t, ve.Details, 2)
}

func TestEngine_CreateOrderValidation(t *testing.T) {
	engine, _, _ := newManualEngine()
	defer engine.Close()
	require.NoError(t, engine.SelectBakery(context.Background(), bakeryOne))

	_, err := engine.CreateOrder(context.Background(), nil, "")
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestEngine_UpdateOrderStatusRequiresRemoteID(t *testing.T) {
	engine, _, orders := newManualEngine()
	defer engine.Close()

	err := engine.UpdateOrderStatus(context.Background(), domain.Order{ID: 1}, domain.OrderStatusReady)
	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
	assert.Zero(t, orders.updates)
}

func TestEngine_RemoveLocalOnlyMenuItem(t *testing.T) {
	engine, menu, _ := newManualEngine()
	defer engine.Close()
	require.NoError(t, engine.SelectBakery(context.Background(), bakeryOne))

	local := domain.MenuItem{Name: "Draft"}
	menu.push("b1", []domain.MenuItem{{ID: "m1", Name: "Bread"}, local})

	require.NoError(t, engine.RemoveMenuItem(context.Background(), local))
	items := engine.Snapshot().MenuItems
	require.Len(t, items, 1)
	assert.Equal(t, "m1", items[0].ID)
}

func TestEngine_AdvanceDoneMakesNoWrite(t *testing.T) {
	engine, _, orders := newManualEngine()
	defer engine.Close()
	require.NoError(t, engine.SelectBakery(context.Background(), bakeryOne))

	orders.push("b1", []domain.Order{
		{ID: 1, RemoteID: "done", Status: domain.OrderStatusDone},
		{ID: 2, RemoteID: "waiting", Status: domain.OrderStatusWaiting},
	})

	status, err := engine.AdvanceOrder(context.Background(), "done")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDone, status)

	status, err = engine.RegressOrder(context.Background(), "waiting")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusWaiting, status)

	assert.Zero(t, orders.updates)

	_, err = engine.AdvanceOrder(context.Background(), "missing")
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestEngine_EndToEnd(t *testing.T) {
	engine, _ := newMemEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.SelectBakery(ctx, bakeryOne))

	breadID, err := engine.AddMenuItem(ctx, "Bread", 0.80)
	require.NoError(t, err)
	coffeeID, err := engine.AddMenuItem(ctx, "Coffee", 4.50)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(engine.Snapshot().MenuItems) == 2
	}, time.Second, 5*time.Millisecond)

	order, err := engine.CreateOrder(ctx, []domain.CartItem{
		{Item: domain.MenuItem{ID: breadID, Name: "Bread", Price: 0.80}, Quantity: 2},
		{Item: domain.MenuItem{ID: coffeeID, Name: "Coffee", Price: 4.50}, Quantity: 1},
	}, "")
	require.NoError(t, err)

	assert.NotEmpty(t, order.RemoteID)
	assert.Equal(t, domain.OrderStatusWaiting, order.Status)
	assert.Equal(t, domain.DefaultTable, order.Table)
	assert.Equal(t, "6.10", order.Total().StringFixed(2))

	assert.Eventually(t, func() bool {
		return len(engine.Snapshot().Orders) == 1
	}, time.Second, 5*time.Millisecond)

	status, err := engine.AdvanceOrder(ctx, order.RemoteID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPreparing, status)

	assert.Eventually(t, func() bool {
		orders := engine.Snapshot().Orders
		return len(orders) == 1 && orders[0].Status == domain.OrderStatusPreparing
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, engine.RemoveMenuItem(ctx, domain.MenuItem{ID: breadID}))
	assert.Eventually(t, func() bool {
		return len(engine.Snapshot().MenuItems) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestEngine_SwitchBakeryScopesData(t *testing.T) {
	engine, store := newMemEngine(t)
	ctx := context.Background()

	_, err := store.Add(ctx, remote.CollectionMenuItems, map[string]any{"name": "Bread", "price": 0.8, "bakeryId": "b1"})
	require.NoError(t, err)
	_, err = store.Add(ctx, remote.CollectionMenuItems, map[string]any{"name": "Cake", "price": int64(12), "bakeryId": "b2"})
	require.NoError(t, err)

	require.NoError(t, engine.SelectBakery(ctx, bakeryOne))
	assert.Eventually(t, func() bool {
		items := engine.Snapshot().MenuItems
		return len(items) == 1 && items[0].Name == "Bread"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, engine.SelectBakery(ctx, bakeryTwo))
	assert.Eventually(t, func() bool {
		items := engine.Snapshot().MenuItems
		return len(items) == 1 && items[0].Name == "Cake" && items[0].Price == 12.0
	}, time.Second, 5*time.Millisecond)
}

func TestEngine_RetriesTransientWrites(t *testing.T) {
	engine, store := newMemEngine(t)
	ctx := context.Background()
	require.NoError(t, engine.SelectBakery(ctx, bakeryOne))

	store.FailNextWrites(errors.New("unavailable"), errors.New("unavailable"))
	id, err := engine.AddMenuItem(ctx, "Bread", 0.8)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestEngine_PersistentFailureIsRemoteError(t *testing.T) {
	engine, store := newMemEngine(t)
	ctx := context.Background()
	require.NoError(t, engine.SelectBakery(ctx, bakeryOne))

	cause := errors.New("unavailable")
	store.FailNextWrites(cause, cause, cause)

	_, err := engine.AddMenuItem(ctx, "Bread", 0.8)
	re, ok := apperrors.IsRemoteError(err)
	require.True(t, ok)
	assert.True(t, re.Retryable)
	assert.ErrorIs(t, err, cause)

	docs, err := store.Get(ctx, remote.Query{Collection: remote.CollectionMenuItems})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestEngine_DeleteMissingIsNotFound(t *testing.T) {
	engine, _ := newMemEngine(t)
	ctx := context.Background()
	require.NoError(t, engine.SelectBakery(ctx, bakeryOne))

	err := engine.RemoveMenuItem(ctx, domain.MenuItem{ID: "missing"})
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestEngine_FailedSwitchDropsSelection(t *testing.T) {
	engine, menu, orders := newManualEngine()
	ctx := context.Background()
	watchErr := errors.New("watch failed")
	orders.SubscribeFunc = func(ctx context.Context, bakeryID string) error {
		if bakeryID == bakeryTwo.ID {
			return watchErr
		}
		return nil
	}

	require.NoError(t, engine.SelectBakery(ctx, bakeryOne))
	menu.push(bakeryOne.ID, []domain.MenuItem{{ID: "m1", Name: "Bread", Price: 0.8}})

	err := engine.SelectBakery(ctx, bakeryTwo)
	re, ok := apperrors.IsRemoteError(err)
	require.True(t, ok)
	assert.True(t, re.Retryable)
	assert.ErrorIs(t, err, watchErr)

	snapshot := engine.Snapshot()
	assert.False(t, snapshot.Selection.IsSelected())
	assert.Empty(t, snapshot.MenuItems)
	assert.True(t, menu.subs[bakeryTwo.ID].isCancelled())

	_, err = engine.AddMenuItem(ctx, "Cake", 3)
	_, ok = apperrors.IsConflictError(err)
	assert.True(t, ok)

	// late push from the abandoned menu subscription
	menu.push(bakeryTwo.ID, []domain.MenuItem{{ID: "m2", Name: "Cake", Price: 3}})
	assert.Empty(t, engine.Snapshot().MenuItems)

	require.NoError(t, engine.SelectBakery(ctx, bakeryOne))
	assert.Equal(t, bakeryOne.ID, engine.Snapshot().Selection.BakeryID())
}

func TestEngine_ClosedStoreIsNotRetryable(t *testing.T) {
	engine, store := newMemEngine(t)
	ctx := context.Background()
	require.NoError(t, engine.SelectBakery(ctx, bakeryOne))

	store.Close()

	_, err := engine.AddMenuItem(ctx, "Bread", 0.8)
	re, ok := apperrors.IsRemoteError(err)
	require.True(t, ok)
	assert.False(t, re.Retryable)
	assert.ErrorIs(t, err, remote.ErrClosed)
}
