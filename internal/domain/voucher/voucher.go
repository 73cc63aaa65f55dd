// Package voucher resolves customer-entered discount codes against the fixed
// promotional table. At most one voucher is active per resolver.
package voucher

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrUnknownCode is returned when a code does not match the promotional
// table. The active voucher is cleared in that case, matching the historical
// behaviour where partial or invalid input silently discards the voucher.
var ErrUnknownCode = errors.New("unknown voucher code")

// rates maps upper-cased voucher codes to their discount rates.
var rates = map[string]decimal.Decimal{
	"WELCOME30":    decimal.RequireFromString("0.30"),
	"KABABISTAN10": decimal.RequireFromString("0.10"),
	"SAVE15":       decimal.RequireFromString("0.15"),
}

// Rate returns the discount rate for a code, matched case-insensitively.
func Rate(code string) (decimal.Decimal, bool) {
	r, ok := rates[strings.ToUpper(code)]
	return r, ok
}

// Resolver tracks the single active voucher of one session. It is not safe
// for concurrent use; the owning session serializes access.
type Resolver struct {
	code string
	rate decimal.Decimal
}

// NewResolver returns a resolver with no active voucher.
func NewResolver() *Resolver {
	return &Resolver{rate: decimal.Zero}
}

// Apply matches the code case-insensitively against the table. On a match the
// voucher becomes active and its rate is returned. On a miss any previously
// active voucher is cleared and ErrUnknownCode is returned.
func (r *Resolver) Apply(code string) (decimal.Decimal, error) {
	rate, ok := Rate(code)
	if !ok {
		r.Remove()
		return decimal.Zero, errors.Wrapf(ErrUnknownCode, "%q", code)
	}
	r.code = strings.ToUpper(code)
	r.rate = rate
	return rate, nil
}

// Remove unconditionally clears the active voucher.
func (r *Resolver) Remove() {
	r.code = ""
	r.rate = decimal.Zero
}

// Active returns the active voucher code and rate. ok is false when no
// voucher is active.
func (r *Resolver) Active() (code string, rate decimal.Decimal, ok bool) {
	if r.code == "" {
		return "", decimal.Zero, false
	}
	return r.code, r.rate, true
}

// CurrentRate returns the active voucher rate, or zero when none is active.
func (r *Resolver) CurrentRate() decimal.Decimal {
	return r.rate
}
