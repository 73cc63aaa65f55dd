// Package admin implements the restaurant-side console: a live view over the
// whole order collection with validated status transitions, deletion, and
// day-to-day stats.
package admin

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kababistan/orderhub/internal/domain/order"
)

// Console mirrors the order collection and applies admin operations to it.
// One Console serves the whole backend.
type Console struct {
	repo order.Repository

	mu     sync.RWMutex
	orders []order.Order
}

// NewConsole returns a Console over the given repository.
func NewConsole(repo order.Repository) *Console {
	return &Console{repo: repo}
}

// Run subscribes to the order collection and mirrors every snapshot until ctx
// is cancelled. It blocks; run it in its own goroutine.
func (c *Console) Run(ctx context.Context) error {
	w, err := c.repo.WatchAll(ctx)
	if err != nil {
		return errors.Wrap(err, "watch orders")
	}
	defer w.Stop()

	lg := zctx.From(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-w.C:
			if !ok {
				return nil
			}
			c.mu.Lock()
			c.orders = snap
			c.mu.Unlock()
			lg.Debug("Console snapshot", zap.Int("orders", len(snap)))
		}
	}
}

// Orders returns the current snapshot, newest first.
func (c *Console) Orders() []order.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]order.Order, len(c.orders))
	copy(out, c.orders)
	return out
}

// Tab returns the snapshot orders belonging to the given console tab,
// preserving the newest-first ordering.
func (c *Console) Tab(t order.Tab) []order.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []order.Order
	for _, o := range c.orders {
		if order.TabFor(o.Status) == t {
			out = append(out, o)
		}
	}
	return out
}

// UpdateStatus moves an order to a new status after validating the transition
// against the order's service chain. Illegal moves return
// *order.InvalidTransitionError.
func (c *Console) UpdateStatus(ctx context.Context, id string, to order.Status) error {
	o, err := c.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !order.CanTransition(o.ServiceType, o.Status, to) {
		return &order.InvalidTransitionError{ServiceType: o.ServiceType, From: o.Status, To: to}
	}
	if err := c.repo.UpdateStatus(ctx, id, to); err != nil {
		return err
	}
	zctx.From(ctx).Info("Order status updated",
		zap.String("order_id", id),
		zap.String("from", string(o.Status)),
		zap.String("to", string(to)),
	)
	return nil
}

// Delete removes an order outright. Unlike cancellation this erases the
// record, so it is reserved for the console.
func (c *Console) Delete(ctx context.Context, id string) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	zctx.From(ctx).Info("Order deleted", zap.String("order_id", id))
	return nil
}

// Stats summarizes the current snapshot for the console header.
type Stats struct {
	New     int             `json:"new"`
	Active  int             `json:"active"`
	History int             `json:"history"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Stats counts the snapshot per tab and totals the revenue of every
// non-cancelled order.
func (c *Console) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := Stats{Revenue: decimal.Zero}
	for _, o := range c.orders {
		switch order.TabFor(o.Status) {
		case order.TabNew:
			st.New++
		case order.TabActive:
			st.Active++
		case order.TabHistory:
			st.History++
		}
		if o.Status != order.StatusCancelled {
			st.Revenue = st.Revenue.Add(o.Total)
		}
	}
	return st
}
