// Package cart implements the per-session cart store: a mutable set of line
// items consumed as immutable snapshots by the pricing engine and handlers.
package cart

import (
	"github.com/shopspring/decimal"
)

// Line is a single cart entry. UnitPrice is the menu price for one unit.
type Line struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Cart holds the lines of one active cart. It is not safe for concurrent use;
// the owning session serializes access.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add inserts a new line with quantity 1, or increments the quantity of an
// existing line with the same item id.
func (c *Cart) Add(itemID, name string, unitPrice decimal.Decimal) {
	for i := range c.lines {
		if c.lines[i].ItemID == itemID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{
		ItemID:    itemID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  1,
	})
}

// Increase increments the quantity of the line with the given item id.
// Unknown ids are ignored.
func (c *Cart) Increase(itemID string) {
	for i := range c.lines {
		if c.lines[i].ItemID == itemID {
			c.lines[i].Quantity++
			return
		}
	}
}

// Decrease decrements the quantity of the line with the given item id,
// floored at 1. A line is never removed through Decrease.
func (c *Cart) Decrease(itemID string) {
	for i := range c.lines {
		if c.lines[i].ItemID == itemID && c.lines[i].Quantity > 1 {
			c.lines[i].Quantity--
			return
		}
	}
}

// Remove deletes the line with the given item id regardless of quantity.
func (c *Cart) Remove(itemID string) {
	for i := range c.lines {
		if c.lines[i].ItemID == itemID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Lines returns a snapshot copy of the current lines.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}
