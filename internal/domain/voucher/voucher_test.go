package voucher

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_CaseInsensitive(t *testing.T) {
	r := NewResolver()

	lower, err := r.Apply("welcome30")
	require.NoError(t, err)

	upper, err := r.Apply("WELCOME30")
	require.NoError(t, err)

	assert.True(t, lower.Equal(upper))
	assert.True(t, decimal.RequireFromString("0.30").Equal(lower))
}

func TestApply_AllKnownCodes(t *testing.T) {
	r := NewResolver()

	for code, want := range map[string]string{
		"WELCOME30":    "0.30",
		"KABABISTAN10": "0.10",
		"SAVE15":       "0.15",
	} {
		rate, err := r.Apply(code)
		require.NoError(t, err, code)
		assert.True(t, decimal.RequireFromString(want).Equal(rate), code)
	}
}

func TestApply_UnknownCodeClearsActiveVoucher(t *testing.T) {
	r := NewResolver()

	_, err := r.Apply("SAVE15")
	require.NoError(t, err)

	_, err = r.Apply("NOPE")
	require.ErrorIs(t, err, ErrUnknownCode)

	_, _, ok := r.Active()
	assert.False(t, ok)
	assert.True(t, r.CurrentRate().IsZero())
}

func TestRemove(t *testing.T) {
	r := NewResolver()

	_, err := r.Apply("KABABISTAN10")
	require.NoError(t, err)

	r.Remove()

	_, _, ok := r.Active()
	assert.False(t, ok)
}

func TestActive_ReportsUppercasedCode(t *testing.T) {
	r := NewResolver()

	_, err := r.Apply("save15")
	require.NoError(t, err)

	code, rate, ok := r.Active()
	require.True(t, ok)
	assert.Equal(t, "SAVE15", code)
	assert.True(t, decimal.RequireFromString("0.15").Equal(rate))
}
