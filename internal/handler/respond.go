package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kababistan/orderhub/internal/docstore"
	"github.com/kababistan/orderhub/internal/domain/order"
	"github.com/kababistan/orderhub/internal/domain/voucher"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Error("Encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, r, status, errorResponse{Code: status, Message: msg})
}

// respondDomainError maps domain errors onto HTTP statuses. Unclassified
// errors become 500 with a generic message; the cause is logged, not leaked.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrNoActiveOrder):
		respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, voucher.ErrUnknownCode),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidServiceType),
		errors.Is(err, order.ErrCustomerRequired),
		errors.Is(err, order.ErrScheduleRequired),
		errors.Is(err, order.ErrPartySizeRequired),
		errors.Is(err, order.ErrCardDetailsRequired):
		respondError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		var invalid *order.InvalidTransitionError
		if errors.As(err, &invalid) {
			respondError(w, r, http.StatusConflict, transitionMessage(invalid))
			return
		}
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// transitionMessage renders a rejected status transition together with the
// moves that would have been accepted, so console clients can correct
// themselves.
func transitionMessage(e *order.InvalidTransitionError) string {
	var legal []string
	for _, st := range order.Allowed(e.ServiceType) {
		if order.CanTransition(e.ServiceType, e.From, st) {
			legal = append(legal, string(st))
		}
	}
	if len(legal) == 0 {
		return e.Error()
	}
	return fmt.Sprintf("%s (allowed: %s)", e.Error(), strings.Join(legal, ", "))
}

// decodeBody parses a JSON request body into dst, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}
