package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_NewLine(t *testing.T) {
	c := New()
	c.Add("kebab", "Chicken Kebab", decimal.RequireFromString("10.00"))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "kebab", lines[0].ItemID)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestAdd_ExistingLineIncrementsQuantity(t *testing.T) {
	c := New()
	c.Add("kebab", "Chicken Kebab", decimal.RequireFromString("10.00"))
	c.Add("kebab", "Chicken Kebab", decimal.RequireFromString("10.00"))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestDecrease_FlooredAtOne(t *testing.T) {
	c := New()
	c.Add("kebab", "Chicken Kebab", decimal.RequireFromString("10.00"))

	c.Decrease("kebab")
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestDecrease_AboveOne(t *testing.T) {
	c := New()
	c.Add("kebab", "Chicken Kebab", decimal.RequireFromString("10.00"))
	c.Increase("kebab")
	c.Increase("kebab")

	c.Decrease("kebab")
	assert.Equal(t, 2, c.Lines()[0].Quantity)
}

func TestRemove_DeletesRegardlessOfQuantity(t *testing.T) {
	c := New()
	c.Add("kebab", "Chicken Kebab", decimal.RequireFromString("10.00"))
	c.Increase("kebab")
	c.Add("naan", "Garlic Naan", decimal.RequireFromString("3.50"))

	c.Remove("kebab")
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "naan", lines[0].ItemID)
}

func TestClear(t *testing.T) {
	c := New()
	c.Add("kebab", "Chicken Kebab", decimal.RequireFromString("10.00"))
	c.Clear()
	assert.True(t, c.Empty())
}

func TestLines_SnapshotIsIndependent(t *testing.T) {
	c := New()
	c.Add("kebab", "Chicken Kebab", decimal.RequireFromString("10.00"))

	snap := c.Lines()
	c.Increase("kebab")

	assert.Equal(t, 1, snap[0].Quantity)
	assert.Equal(t, 2, c.Lines()[0].Quantity)
}
