package handler

import (
	"net/http"
	"time"

	"github.com/kababistan/orderhub/internal/domain/order"
)

// adminListOrders returns the console snapshot, optionally filtered by tab
// (?tab=new|active|history).
func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	var orders []order.Order
	switch tab := r.URL.Query().Get("tab"); tab {
	case "":
		orders = h.console.Orders()
	case "new":
		orders = h.console.Tab(order.TabNew)
	case "active":
		orders = h.console.Tab(order.TabActive)
	case "history":
		orders = h.console.Tab(order.TabHistory)
	default:
		respondError(w, r, http.StatusBadRequest, "unknown tab "+tab)
		return
	}
	respondJSON(w, r, http.StatusOK, toOrderViews(orders))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) adminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.console.UpdateStatus(r.Context(), r.PathValue("id"), order.Status(req.Status)); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.console.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminStats(w http.ResponseWriter, r *http.Request) {
	st := h.console.Stats()
	respondJSON(w, r, http.StatusOK, map[string]any{
		"new":     st.New,
		"active":  st.Active,
		"history": st.History,
		"revenue": money(st.Revenue),
	})
}

type dailyStatsResponse struct {
	Date    string  `json:"date"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// adminDailyStats reports one calendar day (?date=2006-01-02, default today)
// from the SQL store. Unavailable on the in-memory store.
func (h *Handler) adminDailyStats(w http.ResponseWriter, r *http.Request) {
	if h.daily == nil {
		respondError(w, r, http.StatusNotImplemented, "daily stats require the SQL store")
		return
	}

	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	count, revenue, err := h.daily(r.Context(), day)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, dailyStatsResponse{
		Date:    day.Format("2006-01-02"),
		Orders:  count,
		Revenue: money(revenue),
	})
}
