// Package identity resolves the calling customer from the request. There is
// no account system; clients self-identify with a stable device id in the
// X-Customer-ID header.
package identity

import (
	"context"
	"net/http"
)

// Header carries the caller's customer id.
const Header = "X-Customer-ID"

type ctxKey struct{}

// FromContext returns the customer id set by Middleware, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// WithCustomerID returns a context carrying the customer id. Exposed for
// tests and internal callers.
func WithCustomerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Middleware extracts the customer id header and stores it on the request
// context. Requests without the header are rejected with 401; every customer
// endpoint needs an identity to scope carts and orders.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			http.Error(w, "missing "+Header+" header", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCustomerID(r.Context(), id)))
	})
}
