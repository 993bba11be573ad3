package storefront

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"padaria/internal/cart"
	"padaria/internal/config"
	"padaria/internal/domain"
	apperrors "padaria/internal/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one client's storefront: its engine, its cart and whether it has
// logged in as administrator.
type Session struct {
	ID     string
	Engine *Engine
	Cart   *cart.Cart

	admin config.AdminConfig

	mu       sync.Mutex
	isAdmin  bool
	lastSeen time.Time
}

func (s *Session) Login(user, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.admin.User)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.admin.Password)) == 1
	if !userOK || !passOK {
		return apperrors.NewUnauthorizedError("invalid credentials")
	}

	s.mu.Lock()
	s.isAdmin = true
	s.mu.Unlock()
	return nil
}

func (s *Session) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAdmin
}

func (s *Session) RequireAdmin() error {
	if !s.IsAdmin() {
		return apperrors.NewForbiddenError("administrator login required")
	}
	return nil
}

// SelectBakery empties the cart once the switch succeeded, so a cart never
// mixes items of two bakeries. A failed switch leaves the cart as it was.
func (s *Session) SelectBakery(ctx context.Context, b domain.Bakery) error {
	if err := s.Engine.SelectBakery(ctx, b); err != nil {
		return err
	}
	s.Cart.Clear()
	return nil
}

// AddToCart adds the menu item with the given id from the current menu.
func (s *Session) AddToCart(itemID string) (domain.MenuItem, error) {
	snapshot := s.Engine.Snapshot()
	if !snapshot.Selection.IsSelected() {
		return domain.MenuItem{}, apperrors.NewConflictError("no bakery selected")
	}

	for _, item := range snapshot.MenuItems {
		if item.ID == itemID {
			s.Cart.Add(item)
			return item, nil
		}
	}
	return domain.MenuItem{}, apperrors.NewNotFoundError("menu item not found")
}

func (s *Session) RemoveFromCart(itemID string) error {
	line, ok := s.Cart.Find(itemID)
	if !ok || !s.Cart.Remove(line.Item) {
		return apperrors.NewNotFoundError("item not in cart")
	}
	return nil
}

// PlaceOrder turns the cart into an order. Only the ordered lines leave the
// cart, and only when the order was written; items added while the write was
// in flight stay for the next order.
func (s *Session) PlaceOrder(ctx context.Context, table string) (domain.Order, error) {
	lines := s.Cart.Items()
	order, err := s.Engine.CreateOrder(ctx, lines, table)
	if err != nil {
		return domain.Order{}, err
	}
	s.Cart.Subtract(lines)
	return order, nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

type Manager struct {
	newEngine   func() *Engine
	admin       config.AdminConfig
	idleTimeout time.Duration
	logger      *zap.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(newEngine func() *Engine, admin config.AdminConfig, idleTimeout time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		newEngine:   newEngine,
		admin:       admin,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

func (m *Manager) Create() *Session {
	s := &Session{
		ID:       uuid.NewString(),
		Engine:   m.newEngine(),
		Cart:     cart.New(),
		admin:    m.admin,
		lastSeen: m.now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session created", zap.String("sessionId", s.ID), zap.Int("activeSessions", count))
	return s
}

// Get returns the session and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	s.touch(m.now())
	return s, nil
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return apperrors.NewNotFoundError("session not found")
	}

	s.Engine.Close()
	m.logger.Info("session closed", zap.String("sessionId", id))
	return nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run evicts idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	interval := m.idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() int {
	now := m.now()

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince(now) > m.idleTimeout {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Engine.Close()
		m.logger.Info("session expired", zap.String("sessionId", s.ID))
	}
	return len(expired)
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Engine.Close()
	}
	m.logger.Info("all sessions closed", zap.Int("count", len(sessions)))
}
