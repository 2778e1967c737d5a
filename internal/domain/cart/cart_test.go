package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saffron-restaurant/api/internal/domain/menu"
)

type mockCatalog struct {
	byID map[int64]menu.Item
}

func (m *mockCatalog) List(_ context.Context) ([]menu.Item, error)               { return nil, nil }
func (m *mockCatalog) ListCategories(_ context.Context) ([]menu.Category, error) { return nil, nil }

func (m *mockCatalog) GetByID(_ context.Context, id int64) (*menu.Item, error) {
	item, ok := m.byID[id]
	if !ok {
		return nil, menu.ErrNotFound
	}
	return &item, nil
}

func (m *mockCatalog) GetByIDs(_ context.Context, ids []int64) ([]menu.Item, error) {
	var out []menu.Item
	for _, id := range ids {
		if item, ok := m.byID[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func newTestItem(id int64, name, price string) menu.Item {
	return menu.Item{
		ID:          id,
		Name:        name,
		Price:       decimal.RequireFromString(price),
		CookingTime: 15,
	}
}

func TestAdd_AccumulatesQuantity(t *testing.T) {
	c := New()
	item := newTestItem(1, "Pilaf", "12.50")

	c.Add(item, 2, false)
	c.Add(item, 3, false)

	line, ok := c.Line(1)
	require.True(t, ok)
	assert.Equal(t, 5, line.Quantity)
}

func TestAdd_OverrideReplacesQuantity(t *testing.T) {
	c := New()
	item := newTestItem(1, "Pilaf", "12.50")

	c.Add(item, 2, false)
	c.Add(item, 7, true)

	line, _ := c.Line(1)
	assert.Equal(t, 7, line.Quantity)
}

func TestAdd_ClampsToMinimumOne(t *testing.T) {
	c := New()
	item := newTestItem(1, "Pilaf", "12.50")

	c.Add(item, -3, false)

	line, ok := c.Line(1)
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)
}

func TestAdd_SnapshotsPriceAndTruncatesDescription(t *testing.T) {
	c := New()
	longDesc := make([]byte, 250)
	for i := range longDesc {
		longDesc[i] = 'x'
	}
	item := newTestItem(1, "Pilaf", "12.50")
	item.Description = string(longDesc)

	c.Add(item, 1, false)

	line, _ := c.Line(1)
	assert.True(t, decimal.RequireFromString("12.50").Equal(line.Price))
	assert.Len(t, line.Description, 100)
}

func TestSubtotal(t *testing.T) {
	c := New()
	c.Add(newTestItem(1, "A", "20.00"), 2, false)
	c.Add(newTestItem(2, "B", "15.00"), 1, false)

	assert.True(t, decimal.RequireFromString("55.00").Equal(c.Subtotal()))
	assert.Equal(t, 3, c.ItemCount())
	assert.Equal(t, 2, c.UniqueCount())
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	c := New()
	c.Add(newTestItem(1, "A", "20.00"), 2, false)
	c.AppliedCoupon = "SAVE10"

	ok := c.UpdateQuantity(1, 0)

	require.True(t, ok)
	assert.True(t, c.IsEmpty())
	assert.Empty(t, c.AppliedCoupon, "coupon must be cleared when cart empties")
}

func TestUpdateQuantity_UnknownItem(t *testing.T) {
	c := New()
	assert.False(t, c.UpdateQuantity(42, 3))
}

func TestRemove_KeepsCouponWhileNonEmpty(t *testing.T) {
	c := New()
	c.Add(newTestItem(1, "A", "20.00"), 1, false)
	c.Add(newTestItem(2, "B", "15.00"), 1, false)
	c.AppliedCoupon = "SAVE10"

	c.Remove(1)
	assert.Equal(t, "SAVE10", c.AppliedCoupon)

	c.Remove(2)
	assert.Empty(t, c.AppliedCoupon)
}

func TestClear(t *testing.T) {
	c := New()
	c.Add(newTestItem(1, "A", "20.00"), 2, false)
	c.AppliedCoupon = "SAVE10"

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Empty(t, c.AppliedCoupon)
	assert.Equal(t, 0, c.ItemCount())
}

func TestDetails_DropsVanishedItems(t *testing.T) {
	c := New()
	c.Add(newTestItem(1, "A", "20.00"), 2, false)
	c.Add(newTestItem(2, "B", "15.00"), 1, false)

	catalog := &mockCatalog{byID: map[int64]menu.Item{
		1: newTestItem(1, "A", "20.00"),
		// item 2 was deleted from the menu
	}}

	details, err := c.Details(context.Background(), catalog)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, int64(1), details[0].ItemID)
	assert.Equal(t, 2, c.UniqueCount(), "cart itself keeps the stale line")
}

func TestDetails_EmptyCart(t *testing.T) {
	c := New()
	details, err := c.Details(context.Background(), &mockCatalog{})
	require.NoError(t, err)
	assert.Empty(t, details)
}
