// Package cart keeps the customer's in-progress selection of menu items.
package cart

import (
	"sync"

	"padaria/internal/domain"
	"padaria/internal/search"

	"github.com/shopspring/decimal"
)

// Cart holds at most one line per menu item id. Lines keep insertion order.
// A Cart is safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	lines []domain.CartItem
}

func New() *Cart {
	return &Cart{}
}

// Add increments the line for item.ID or appends a new line with quantity 1.
func (c *Cart) Add(item domain.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(item.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, domain.CartItem{Item: item, Quantity: 1})
}

// Remove decrements the line for item.ID, dropping it when it reaches zero.
// It reports whether a line was found.
func (c *Cart) Remove(item domain.MenuItem) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(item.ID)
	if i < 0 {
		return false
	}
	if c.lines[i].Quantity > 1 {
		c.lines[i].Quantity--
		return true
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

// Subtract takes the quantities in lines out of the cart, dropping lines that
// reach zero.
func (c *Cart) Subtract(lines []domain.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, line := range lines {
		i := c.indexOf(line.Item.ID)
		if i < 0 {
			continue
		}
		if c.lines[i].Quantity > line.Quantity {
			c.lines[i].Quantity -= line.Quantity
			continue
		}
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Items returns a copy of the current lines.
func (c *Cart) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.CartItem, len(c.lines))
	copy(out, c.lines)
	return out
}

// Find returns the line for a menu item id.
func (c *Cart) Find(itemID string) (domain.CartItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(itemID); i >= 0 {
		return c.lines[i], true
	}
	return domain.CartItem{}, false
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(decimal.NewFromFloat(line.Item.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

func (c *Cart) indexOf(itemID string) int {
	for i, line := range c.lines {
		if line.Item.ID == itemID {
			return i
		}
	}
	return -1
}

// FilterMenu keeps the items whose name contains query, ignoring case.
func FilterMenu(items []domain.MenuItem, query string) []domain.MenuItem {
	out := make([]domain.MenuItem, 0, len(items))
	for _, item := range items {
		if search.Contains(item.Name, query) {
			out = append(out, item)
		}
	}
	return out
}
