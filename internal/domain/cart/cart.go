// Package cart implements the session-resident shopping cart.
//
// A cart is a mapping of menu item ID to a line holding the quantity and a
// snapshot of the item's price and display fields taken at the time the item
// was added. The whole structure is serialized into the session store after
// every mutation; the cart itself performs no I/O.
package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/saffron-restaurant/api/internal/domain/menu"
)

// maxDescriptionLen caps the description snapshot stored per line.
const maxDescriptionLen = 100

// Line is one item entry in the cart.
type Line struct {
	ItemID      int64           `json:"item_id"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CookingTime int             `json:"cooking_time,omitempty"`
}

// Total returns price * quantity for this line.
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the session's cart lines and the applied coupon code, if any.
type Cart struct {
	Lines         map[int64]Line `json:"lines"`
	AppliedCoupon string         `json:"applied_coupon,omitempty"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{Lines: make(map[int64]Line)}
}

// Add inserts the item or adjusts its quantity. When override is false the
// quantity is added to the existing one; when true it replaces it. The
// resulting quantity is clamped to a minimum of 1.
func (c *Cart) Add(item menu.Item, quantity int, override bool) {
	if c.Lines == nil {
		c.Lines = make(map[int64]Line)
	}

	line, ok := c.Lines[item.ID]
	if !ok {
		desc := item.Description
		if len(desc) > maxDescriptionLen {
			desc = desc[:maxDescriptionLen]
		}
		line = Line{
			ItemID:      item.ID,
			Price:       item.Price,
			Name:        item.Name,
			Description: desc,
			CookingTime: item.CookingTime,
		}
	}

	if override {
		line.Quantity = quantity
	} else {
		line.Quantity += quantity
	}
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	c.Lines[item.ID] = line
}

// Remove deletes the line for the given item. When the cart becomes empty the
// applied coupon is cleared as well.
func (c *Cart) Remove(itemID int64) {
	delete(c.Lines, itemID)
	if len(c.Lines) == 0 {
		c.AppliedCoupon = ""
	}
}

// UpdateQuantity sets the quantity for an existing line, removing the line
// entirely when quantity drops to zero or below. It reports whether the item
// was present in the cart.
func (c *Cart) UpdateQuantity(itemID int64, quantity int) bool {
	line, ok := c.Lines[itemID]
	if !ok {
		return false
	}
	if quantity <= 0 {
		c.Remove(itemID)
		return true
	}
	line.Quantity = quantity
	c.Lines[itemID] = line
	return true
}

// Clear removes every line and the applied coupon.
func (c *Cart) Clear() {
	c.Lines = make(map[int64]Line)
	c.AppliedCoupon = ""
}

// Subtotal returns the sum of price * quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range c.Lines {
		sum = sum.Add(line.Total())
	}
	return sum
}

// ItemCount returns the total quantity across all lines.
func (c *Cart) ItemCount() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// UniqueCount returns the number of distinct lines.
func (c *Cart) UniqueCount() int {
	return len(c.Lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Line returns the line for the given item, if present.
func (c *Cart) Line(itemID int64) (Line, bool) {
	line, ok := c.Lines[itemID]
	return line, ok
}

// Detail pairs a cart line with the current catalog item it refers to.
type Detail struct {
	Line
	Item menu.Item
}

// Details resolves every cart line against the current catalog in a single
// batch lookup. Lines whose item no longer exists are silently dropped from
// the listing (but remain in the cart).
func (c *Cart) Details(ctx context.Context, catalog menu.Repository) ([]Detail, error) {
	if len(c.Lines) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(c.Lines))
	for id := range c.Lines {
		ids = append(ids, id)
	}

	items, err := catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	details := make([]Detail, 0, len(items))
	for _, item := range items {
		line, ok := c.Lines[item.ID]
		if !ok {
			continue
		}
		details = append(details, Detail{Line: line, Item: item})
	}
	return details, nil
}
