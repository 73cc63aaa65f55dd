// Package handler exposes the order backend over a thin JSON HTTP API:
// customer routes scoped by the identity header, admin routes for the
// console, delegating all business logic to the domain packages.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kababistan/orderhub/internal/admin"
	"github.com/kababistan/orderhub/internal/domain/order"
	"github.com/kababistan/orderhub/internal/identity"
	"github.com/kababistan/orderhub/internal/repository"
)

// DailyStatsFunc aggregates one calendar day of orders. Nil when the backing
// store has no SQL reporting (the in-memory store).
type DailyStatsFunc func(ctx context.Context, day time.Time) (orders int64, revenue decimal.Decimal, err error)

// Handler routes HTTP requests to the session registry, admin console, and
// profile repository.
type Handler struct {
	registry *order.Registry
	console  *admin.Console
	profiles *repository.ProfileRepository
	daily    DailyStatsFunc
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	registry *order.Registry,
	console *admin.Console,
	profiles *repository.ProfileRepository,
	daily DailyStatsFunc,
) *Handler {
	return &Handler{
		registry: registry,
		console:  console,
		profiles: profiles,
		daily:    daily,
	}
}

// Routes returns the API mux. Customer routes require the identity header;
// admin routes do not (the gateway fronts them separately).
func (h *Handler) Routes() *http.ServeMux {
	customer := http.NewServeMux()
	customer.HandleFunc("GET /cart", h.getCart)
	customer.HandleFunc("POST /cart/items", h.addCartItem)
	customer.HandleFunc("POST /cart/items/{id}/increase", h.increaseCartItem)
	customer.HandleFunc("POST /cart/items/{id}/decrease", h.decreaseCartItem)
	customer.HandleFunc("DELETE /cart/items/{id}", h.removeCartItem)
	customer.HandleFunc("DELETE /cart", h.clearCart)
	customer.HandleFunc("POST /voucher", h.applyVoucher)
	customer.HandleFunc("DELETE /voucher", h.removeVoucher)
	customer.HandleFunc("GET /quote", h.getQuote)
	customer.HandleFunc("POST /orders", h.confirmOrder)
	customer.HandleFunc("GET /orders", h.getHistory)
	customer.HandleFunc("GET /orders/active", h.getActiveState)
	customer.HandleFunc("POST /orders/cancel", h.cancelOrder)
	customer.HandleFunc("POST /orders/{id}/received", h.markReceived)
	customer.HandleFunc("POST /orders/timeup", h.timeUpResponse)
	customer.HandleFunc("POST /orders/reminder/dismiss", h.dismissReminder)
	customer.HandleFunc("GET /profile", h.getProfile)
	customer.HandleFunc("PUT /profile", h.saveProfile)
	customer.HandleFunc("POST /profile/favorites/{id}", h.toggleFavorite)

	mux := http.NewServeMux()
	mux.Handle("/", identity.Middleware(customer))
	mux.HandleFunc("GET /admin/orders", h.adminListOrders)
	mux.HandleFunc("PATCH /admin/orders/{id}/status", h.adminUpdateStatus)
	mux.HandleFunc("DELETE /admin/orders/{id}", h.adminDeleteOrder)
	mux.HandleFunc("GET /admin/stats", h.adminStats)
	mux.HandleFunc("GET /admin/stats/daily", h.adminDailyStats)
	return mux
}

// session resolves the caller's lifecycle session from the identity header.
func (h *Handler) session(r *http.Request) *order.Session {
	return h.registry.Session(identity.FromContext(r.Context()))
}
