package cart

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padaria/internal/domain"
)

var (
	bread  = domain.MenuItem{ID: "bread", Name: "Bread", Price: 0.80}
	coffee = domain.MenuItem{ID: "coffee", Name: "Coffee", Price: 4.50}
)

func TestCart_AddMergesSameItem(t *testing.T) {
	for _, n := range []int{1, 2, 5, 17} {
		c := New()
		for i := 0; i < n; i++ {
			c.Add(bread)
		}

		items := c.Items()
		require.Len(t, items, 1)
		assert.Equal(t, n, items[0].Quantity)
	}
}

func TestCart_AddKeepsOrder(t *testing.T) {
	c := New()
	c.Add(bread)
	c.Add(coffee)
	c.Add(bread)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "bread", items[0].Item.ID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "coffee", items[1].Item.ID)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestCart_Remove(t *testing.T) {
	c := New()
	c.Add(bread)
	c.Add(bread)
	c.Add(coffee)

	assert.True(t, c.Remove(bread))
	line, ok := c.Find("bread")
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)

	assert.True(t, c.Remove(bread))
	_, ok = c.Find("bread")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	assert.False(t, c.Remove(bread))
}

func TestCart_NeverHoldsZeroQuantity(t *testing.T) {
	c := New()
	ops := []struct {
		add  bool
		item domain.MenuItem
	}{
		{true, bread}, {false, bread}, {false, bread}, {true, coffee},
		{true, coffee}, {false, coffee}, {true, bread}, {false, coffee},
	}

	for _, op := range ops {
		if op.add {
			c.Add(op.item)
		} else {
			c.Remove(op.item)
		}
		for _, line := range c.Items() {
			assert.GreaterOrEqual(t, line.Quantity, 1)
		}
	}

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "bread", items[0].Item.ID)
}

func TestCart_Clear(t *testing.T) {
	c := New()
	c.Add(bread)
	c.Add(coffee)

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Items())
}

func TestCart_Subtract(t *testing.T) {
	c := New()
	c.Add(bread)
	c.Add(bread)
	c.Add(coffee)
	ordered := c.Items()

	// added after the order was taken
	c.Add(bread)
	c.Add(domain.MenuItem{ID: "cake", Name: "Cake", Price: 3})

	c.Subtract(ordered)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "bread", items[0].Item.ID)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, "cake", items[1].Item.ID)

	c.Subtract([]domain.CartItem{{Item: bread, Quantity: 1}, {Item: coffee, Quantity: 1}})
	items = c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "cake", items[0].Item.ID)
}

func TestCart_ItemsIsACopy(t *testing.T) {
	c := New()
	c.Add(bread)

	items := c.Items()
	items[0].Quantity = 99

	line, _ := c.Find("bread")
	assert.Equal(t, 1, line.Quantity)
}

func TestCart_Total(t *testing.T) {
	c := New()
	c.Add(bread)
	c.Add(bread)
	c.Add(coffee)

	assert.True(t, c.Total().Equal(decimal.RequireFromString("6.10")), "got %s", c.Total())
}

func TestCart_ConcurrentAdds(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(bread)
		}()
	}
	wg.Wait()

	line, ok := c.Find("bread")
	require.True(t, ok)
	assert.Equal(t, 50, line.Quantity)
}

func TestFilterMenu(t *testing.T) {
	items := []domain.MenuItem{
		bread,
		coffee,
		{ID: "pq", Name: "Pão de Queijo", Price: 2},
	}

	assert.Len(t, FilterMenu(items, ""), 3)
	assert.Equal(t, []domain.MenuItem{coffee}, FilterMenu(items, "COF"))
	assert.Equal(t, []domain.MenuItem{items[2]}, FilterMenu(items, "queijo"))
	assert.Empty(t, FilterMenu(items, "croissant"))
}
