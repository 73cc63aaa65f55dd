package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kababistan/orderhub/internal/docstore"
	"github.com/kababistan/orderhub/internal/domain/cart"
	"github.com/kababistan/orderhub/internal/domain/order"
)

func testOrder(id, customerID string, createdAt time.Time) *order.Order {
	return &order.Order{
		ID:         id,
		CustomerID: customerID,
		Lines: []cart.Line{
			{ItemID: "chicken-waffle", Name: "Chicken Waffle", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
			{ItemID: "lemon-brulee", Name: "Lemon Brulee", UnitPrice: decimal.RequireFromString("5.00"), Quantity: 1},
		},
		Subtotal:      decimal.RequireFromString("25.00"),
		Discount:      decimal.RequireFromString("2.50"),
		Tax:           decimal.RequireFromString("4.05"),
		Total:         decimal.RequireFromString("26.55"),
		ServiceType:   order.ServicePickUp,
		Schedule:      order.Schedule{Date: "31 Aug 2026", Time: "06:30 PM"},
		Status:        order.StatusNewPickUp,
		PaymentMethod: order.PaymentCard,
		CardNumber:    "4242424242424242",
		CardExpiry:    "12/27",
		Customer:      order.Customer{Name: "Aliya", Phone: "555-0101"},
		CreatedAt:     createdAt,
	}
}

func TestOrderRepository_CreateGet(t *testing.T) {
	repo := NewOrderRepository(docstore.NewMemory())
	ctx := context.Background()

	created := time.Date(2026, 8, 31, 17, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, testOrder("#PICK-1", "c1", created)))

	got, err := repo.Get(ctx, "#PICK-1")
	require.NoError(t, err)

	assert.Equal(t, "#PICK-1", got.ID)
	assert.Equal(t, "c1", got.CustomerID)
	assert.Equal(t, order.StatusNewPickUp, got.Status)
	assert.Equal(t, order.ServicePickUp, got.ServiceType)
	assert.True(t, decimal.RequireFromString("26.55").Equal(got.Total))
	assert.True(t, created.Equal(got.CreatedAt))
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "Chicken Waffle", got.Lines[0].Name)
	assert.Equal(t, 2, got.Lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("10.00").Equal(got.Lines[0].UnitPrice))
	assert.Equal(t, "06:30 PM", got.Schedule.Time)
	assert.Equal(t, "Aliya", got.Customer.Name)
}

func TestOrderRepository_GetNotFound(t *testing.T) {
	repo := NewOrderRepository(docstore.NewMemory())
	_, err := repo.Get(context.Background(), "#PICK-missing")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	repo := NewOrderRepository(docstore.NewMemory())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testOrder("#PICK-1", "c1", time.Now())))
	require.NoError(t, repo.UpdateStatus(ctx, "#PICK-1", order.StatusPreparing))

	got, err := repo.Get(ctx, "#PICK-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPreparing, got.Status)
	assert.True(t, decimal.RequireFromString("26.55").Equal(got.Total), "other fields untouched")
}

func TestOrderRepository_UpdateStatusNotFound(t *testing.T) {
	repo := NewOrderRepository(docstore.NewMemory())
	err := repo.UpdateStatus(context.Background(), "#PICK-missing", order.StatusPreparing)
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestOrderRepository_Delete(t *testing.T) {
	repo := NewOrderRepository(docstore.NewMemory())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testOrder("#PICK-1", "c1", time.Now())))
	require.NoError(t, repo.Delete(ctx, "#PICK-1"))

	_, err := repo.Get(ctx, "#PICK-1")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestOrderRepository_ListByCustomer(t *testing.T) {
	repo := NewOrderRepository(docstore.NewMemory())
	ctx := context.Background()

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, testOrder("#PICK-1", "c1", base)))
	require.NoError(t, repo.Create(ctx, testOrder("#DEL-1", "c2", base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, testOrder("#RES-1", "c1", base.Add(2*time.Minute))))

	got, err := repo.ListByCustomer(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "#RES-1", got[0].ID, "newest first")
	assert.Equal(t, "#PICK-1", got[1].ID)

	got, err = repo.ListByCustomer(ctx, "c3")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOrderRepository_WatchByCustomer(t *testing.T) {
	repo := NewOrderRepository(docstore.NewMemory())
	ctx := context.Background()

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, testOrder("#PICK-1", "c1", base)))
	require.NoError(t, repo.Create(ctx, testOrder("#DEL-1", "c2", base.Add(time.Minute))))
	require.NoError(t, repo.Create(ctx, testOrder("#RES-1", "c1", base.Add(2*time.Minute))))

	w, err := repo.WatchByCustomer(ctx, "c1")
	require.NoError(t, err)
	defer w.Stop()

	select {
	case orders := <-w.C:
		require.Len(t, orders, 2)
		assert.Equal(t, "#RES-1", orders[0].ID, "newest first")
		assert.Equal(t, "#PICK-1", orders[1].ID)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}
}

func TestOrderRepository_WatchSeesStatusChange(t *testing.T) {
	repo := NewOrderRepository(docstore.NewMemory())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testOrder("#PICK-1", "c1", time.Now())))

	w, err := repo.WatchAll(ctx)
	require.NoError(t, err)
	defer w.Stop()

	<-w.C // initial snapshot

	require.NoError(t, repo.UpdateStatus(ctx, "#PICK-1", order.StatusPreparing))

	require.Eventually(t, func() bool {
		select {
		case orders := <-w.C:
			return len(orders) == 1 && orders[0].Status == order.StatusPreparing
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestOrderRepository_WatchStopClosesChannel(t *testing.T) {
	repo := NewOrderRepository(docstore.NewMemory())

	w, err := repo.WatchAll(context.Background())
	require.NoError(t, err)

	w.Stop()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-w.C:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestProfileRepository_GetZeroWhenMissing(t *testing.T) {
	repo := NewProfileRepository(docstore.NewMemory())

	p, err := repo.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, Profile{}, p)
}

func TestProfileRepository_SaveGet(t *testing.T) {
	repo := NewProfileRepository(docstore.NewMemory())
	ctx := context.Background()

	in := Profile{Name: "Aliya", Phone: "555-0101", Email: "aliya@example.com", Address: "12 Abay Ave", Favorites: []string{"chicken-waffle"}}
	require.NoError(t, repo.Save(ctx, "c1", in))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestProfileRepository_MergeFillsOnlyEmptyFields(t *testing.T) {
	repo := NewProfileRepository(docstore.NewMemory())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "c1", Profile{Name: "Aliya", Email: "aliya@example.com"}))

	require.NoError(t, repo.Merge(ctx, "c1", order.Customer{
		Name:    "Someone Else",
		Phone:   "555-0101",
		Email:   "other@example.com",
		Address: "12 Abay Ave",
	}))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Aliya", got.Name, "saved fields survive the merge")
	assert.Equal(t, "aliya@example.com", got.Email)
	assert.Equal(t, "555-0101", got.Phone)
	assert.Equal(t, "12 Abay Ave", got.Address)
}

func TestProfileRepository_MergeCreatesProfile(t *testing.T) {
	repo := NewProfileRepository(docstore.NewMemory())
	ctx := context.Background()

	require.NoError(t, repo.Merge(ctx, "c1", order.Customer{Name: "Aliya", Phone: "555-0101"}))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Aliya", got.Name)
	assert.Equal(t, "555-0101", got.Phone)
}

func TestProfileRepository_ToggleFavorite(t *testing.T) {
	repo := NewProfileRepository(docstore.NewMemory())
	ctx := context.Background()

	fav, err := repo.ToggleFavorite(ctx, "c1", "chicken-waffle")
	require.NoError(t, err)
	assert.True(t, fav)

	fav, err = repo.ToggleFavorite(ctx, "c1", "lemon-brulee")
	require.NoError(t, err)
	assert.True(t, fav)

	fav, err = repo.ToggleFavorite(ctx, "c1", "chicken-waffle")
	require.NoError(t, err)
	assert.False(t, fav)

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"lemon-brulee"}, got.Favorites)
}
