package admin

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kababistan/orderhub/internal/docstore"
	"github.com/kababistan/orderhub/internal/domain/order"
	"github.com/kababistan/orderhub/internal/repository"
)

func newTestConsole(t *testing.T) (*Console, *repository.OrderRepository, context.CancelFunc) {
	t.Helper()

	repo := repository.NewOrderRepository(docstore.NewMemory())
	c := NewConsole(repo)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = c.Run(ctx) }()
	t.Cleanup(cancel)

	return c, repo, cancel
}

func seedOrder(t *testing.T, repo *repository.OrderRepository, id string, svc order.ServiceType, status order.Status, total string) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &order.Order{
		ID:          id,
		CustomerID:  "c1",
		ServiceType: svc,
		Status:      status,
		Total:       decimal.RequireFromString(total),
		CreatedAt:   time.Now(),
	}))
}

func waitForOrders(t *testing.T, c *Console, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(c.Orders()) == n
	}, time.Second, 5*time.Millisecond)
}

func TestConsole_MirrorsCollection(t *testing.T) {
	c, repo, _ := newTestConsole(t)

	seedOrder(t, repo, "#PICK-1", order.ServicePickUp, order.StatusNewPickUp, "26.55")
	seedOrder(t, repo, "#DEL-1", order.ServiceDelivery, order.StatusPreparing, "10.00")

	waitForOrders(t, c, 2)
}

func TestConsole_Tabs(t *testing.T) {
	c, repo, _ := newTestConsole(t)

	seedOrder(t, repo, "#PICK-1", order.ServicePickUp, order.StatusNewPickUp, "10.00")
	seedOrder(t, repo, "#PICK-2", order.ServicePickUp, order.StatusPending, "10.00")
	seedOrder(t, repo, "#DEL-1", order.ServiceDelivery, order.StatusOutForDelivery, "10.00")
	seedOrder(t, repo, "#RES-1", order.ServiceReservation, order.StatusCompleted, "10.00")
	seedOrder(t, repo, "#RES-2", order.ServiceReservation, order.StatusCancelled, "10.00")
	waitForOrders(t, c, 5)

	assert.Len(t, c.Tab(order.TabNew), 2, "fresh and pending orders")
	assert.Len(t, c.Tab(order.TabActive), 1)
	assert.Len(t, c.Tab(order.TabHistory), 2)
}

func TestConsole_UpdateStatus(t *testing.T) {
	c, repo, _ := newTestConsole(t)

	seedOrder(t, repo, "#PICK-1", order.ServicePickUp, order.StatusNewPickUp, "26.55")
	waitForOrders(t, c, 1)

	require.NoError(t, c.UpdateStatus(context.Background(), "#PICK-1", order.StatusPreparing))

	got, err := repo.Get(context.Background(), "#PICK-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPreparing, got.Status)
}

func TestConsole_UpdateStatusRejectsSkip(t *testing.T) {
	c, repo, _ := newTestConsole(t)

	seedOrder(t, repo, "#PICK-1", order.ServicePickUp, order.StatusNewPickUp, "26.55")
	waitForOrders(t, c, 1)

	err := c.UpdateStatus(context.Background(), "#PICK-1", order.StatusPickedUp)
	var invalid *order.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, order.StatusNewPickUp, invalid.From)
	assert.Equal(t, order.StatusPickedUp, invalid.To)
}

func TestConsole_UpdateStatusCancelsNonTerminal(t *testing.T) {
	c, repo, _ := newTestConsole(t)

	seedOrder(t, repo, "#DEL-1", order.ServiceDelivery, order.StatusOutForDelivery, "26.55")
	waitForOrders(t, c, 1)

	require.NoError(t, c.UpdateStatus(context.Background(), "#DEL-1", order.StatusCancelled))
}

func TestConsole_UpdateStatusResolvesPending(t *testing.T) {
	c, repo, _ := newTestConsole(t)

	seedOrder(t, repo, "#RES-1", order.ServiceReservation, order.StatusPending, "26.55")
	waitForOrders(t, c, 1)

	require.NoError(t, c.UpdateStatus(context.Background(), "#RES-1", order.StatusCompleted))
}

func TestConsole_UpdateStatusUnknownOrder(t *testing.T) {
	c, _, _ := newTestConsole(t)

	err := c.UpdateStatus(context.Background(), "#PICK-missing", order.StatusPreparing)
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestConsole_Delete(t *testing.T) {
	c, repo, _ := newTestConsole(t)

	seedOrder(t, repo, "#PICK-1", order.ServicePickUp, order.StatusNewPickUp, "26.55")
	waitForOrders(t, c, 1)

	require.NoError(t, c.Delete(context.Background(), "#PICK-1"))
	waitForOrders(t, c, 0)
}

func TestConsole_Stats(t *testing.T) {
	c, repo, _ := newTestConsole(t)

	seedOrder(t, repo, "#PICK-1", order.ServicePickUp, order.StatusNewPickUp, "26.55")
	seedOrder(t, repo, "#DEL-1", order.ServiceDelivery, order.StatusPreparing, "10.00")
	seedOrder(t, repo, "#RES-1", order.ServiceReservation, order.StatusCancelled, "99.99")
	waitForOrders(t, c, 3)

	st := c.Stats()
	assert.Equal(t, 1, st.New)
	assert.Equal(t, 1, st.Active)
	assert.Equal(t, 1, st.History)
	assert.True(t, decimal.RequireFromString("36.55").Equal(st.Revenue), "cancelled orders excluded from revenue")
}
