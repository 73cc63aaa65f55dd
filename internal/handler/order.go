package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kababistan/orderhub/internal/domain/cart"
	"github.com/kababistan/orderhub/internal/domain/order"
	"github.com/kababistan/orderhub/internal/domain/pricing"
)

// money renders a decimal amount for the JSON boundary, rounded half-even to
// two places. Internal arithmetic stays exact; only responses are floats.
func money(d decimal.Decimal) float64 {
	return d.RoundBank(2).InexactFloat64()
}

type lineView struct {
	ItemID    string  `json:"itemId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

func toLineViews(lines []cart.Line) []lineView {
	out := make([]lineView, len(lines))
	for i, l := range lines {
		out[i] = lineView{
			ItemID:    l.ItemID,
			Name:      l.Name,
			UnitPrice: money(l.UnitPrice),
			Quantity:  l.Quantity,
		}
	}
	return out
}

type quoteView struct {
	Subtotal     float64 `json:"subtotal"`
	DiscountRate float64 `json:"discountRate"`
	Discount     float64 `json:"discount"`
	Tax          float64 `json:"tax"`
	Total        float64 `json:"total"`
}

func toQuoteView(q pricing.Quote) quoteView {
	return quoteView{
		Subtotal:     money(q.Subtotal),
		DiscountRate: q.DiscountRate.InexactFloat64(),
		Discount:     money(q.Discount),
		Tax:          money(q.Tax),
		Total:        money(q.Total),
	}
}

type orderView struct {
	ID                  string         `json:"id"`
	ServiceType         string         `json:"serviceType"`
	Status              string         `json:"status"`
	Schedule            order.Schedule `json:"schedule"`
	Lines               []lineView     `json:"lines"`
	Subtotal            float64        `json:"subtotal"`
	Discount            float64        `json:"discount"`
	Tax                 float64        `json:"tax"`
	Total               float64        `json:"total"`
	PaymentMethod       string         `json:"paymentMethod,omitempty"`
	PartySize           string         `json:"partySize,omitempty"`
	SpecialInstructions string         `json:"specialInstructions,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
}

func toOrderView(o order.Order) orderView {
	return orderView{
		ID:                  o.ID,
		ServiceType:         string(o.ServiceType),
		Status:              string(o.Status),
		Schedule:            o.Schedule,
		Lines:               toLineViews(o.Lines),
		Subtotal:            money(o.Subtotal),
		Discount:            money(o.Discount),
		Tax:                 money(o.Tax),
		Total:               money(o.Total),
		PaymentMethod:       o.PaymentMethod,
		PartySize:           o.PartySize,
		SpecialInstructions: o.SpecialInstructions,
		CreatedAt:           o.CreatedAt,
	}
}

func toOrderViews(orders []order.Order) []orderView {
	out := make([]orderView, len(orders))
	for i, o := range orders {
		out[i] = toOrderView(o)
	}
	return out
}

type cartResponse struct {
	Lines []lineView `json:"lines"`
	Quote quoteView  `json:"quote"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	respondJSON(w, r, http.StatusOK, cartResponse{
		Lines: toLineViews(s.CartLines()),
		Quote: toQuoteView(s.Quote()),
	})
}

type addItemRequest struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ItemID == "" || req.Name == "" || !req.UnitPrice.IsPositive() {
		respondError(w, r, http.StatusBadRequest, "itemId, name and a positive unitPrice are required")
		return
	}

	s := h.session(r)
	s.AddItem(req.ItemID, req.Name, req.UnitPrice)
	respondJSON(w, r, http.StatusOK, cartResponse{
		Lines: toLineViews(s.CartLines()),
		Quote: toQuoteView(s.Quote()),
	})
}

func (h *Handler) increaseCartItem(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.IncreaseItem(r.PathValue("id"))
	respondJSON(w, r, http.StatusOK, cartResponse{Lines: toLineViews(s.CartLines()), Quote: toQuoteView(s.Quote())})
}

func (h *Handler) decreaseCartItem(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.DecreaseItem(r.PathValue("id"))
	respondJSON(w, r, http.StatusOK, cartResponse{Lines: toLineViews(s.CartLines()), Quote: toQuoteView(s.Quote())})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.RemoveItem(r.PathValue("id"))
	respondJSON(w, r, http.StatusOK, cartResponse{Lines: toLineViews(s.CartLines()), Quote: toQuoteView(s.Quote())})
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.ClearCart()
	respondJSON(w, r, http.StatusOK, cartResponse{Lines: toLineViews(s.CartLines()), Quote: toQuoteView(s.Quote())})
}

type voucherRequest struct {
	Code string `json:"code"`
}

type voucherResponse struct {
	Code  string    `json:"code"`
	Rate  float64   `json:"rate"`
	Quote quoteView `json:"quote"`
}

func (h *Handler) applyVoucher(w http.ResponseWriter, r *http.Request) {
	var req voucherRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s := h.session(r)
	rate, err := s.ApplyVoucher(req.Code)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	code, _, _ := s.ActiveVoucher()
	respondJSON(w, r, http.StatusOK, voucherResponse{
		Code:  code,
		Rate:  rate.InexactFloat64(),
		Quote: toQuoteView(s.Quote()),
	})
}

func (h *Handler) removeVoucher(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.RemoveVoucher()
	respondJSON(w, r, http.StatusOK, cartResponse{Lines: toLineViews(s.CartLines()), Quote: toQuoteView(s.Quote())})
}

func (h *Handler) getQuote(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, toQuoteView(h.session(r).Quote()))
}

type confirmRequest struct {
	ServiceType         string         `json:"serviceType"`
	Schedule            order.Schedule `json:"schedule"`
	Customer            order.Customer `json:"customer"`
	Payment             order.Payment  `json:"payment"`
	PartySize           string         `json:"partySize"`
	SpecialInstructions string         `json:"specialInstructions"`
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.session(r).Confirm(r.Context(), order.ConfirmRequest{
		ServiceType:         order.ServiceType(req.ServiceType),
		Schedule:            req.Schedule,
		Customer:            req.Customer,
		Payment:             req.Payment,
		PartySize:           req.PartySize,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toOrderView(*o))
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, toOrderViews(h.session(r).History()))
}

func (h *Handler) getActiveState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.session(r).State())
}

type cancelRequest struct {
	OrderID string `json:"orderId"`
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			respondError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := h.session(r).Cancel(r.Context(), req.OrderID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markReceived(w http.ResponseWriter, r *http.Request) {
	if err := h.session(r).MarkReceived(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type timeUpRequest struct {
	Confirmed bool `json:"confirmed"`
}

func (h *Handler) timeUpResponse(w http.ResponseWriter, r *http.Request) {
	var req timeUpRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.session(r).OnTimeUpResponse(r.Context(), req.Confirmed); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dismissReminder(w http.ResponseWriter, r *http.Request) {
	h.session(r).DismissReminder()
	w.WriteHeader(http.StatusNoContent)
}
