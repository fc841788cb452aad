package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealthsync/internal/models"
)

func TestFetchError_IsFetchFailed(t *testing.T) {
	reason := errors.New("dial tcp: refused")
	res := Failure("CoinGecko", "BTC", reason)

	assert.ErrorIs(t, res.Err, ErrFetchFailed)
	assert.ErrorIs(t, res.Err, reason)
	assert.Contains(t, res.Err.Error(), "CoinGecko")
	assert.False(t, res.OK())
}

func TestResult_OK(t *testing.T) {
	assert.True(t, Success("BTC", decimal.NewFromInt(1)).OK())
	assert.False(t, Success("BTC", decimal.Zero).OK())
	assert.False(t, Success("BTC", decimal.NewFromInt(-1)).OK())
}

func TestRegistry_Quote(t *testing.T) {
	crypto := &stubProvider{fetchFn: func(_ context.Context, symbol string) Result {
		return Success(symbol, decimal.RequireFromString("50000.00"))
	}}
	equity := &stubProvider{fetchFn: func(_ context.Context, symbol string) Result {
		return Failure("Stub", symbol, errors.New("unknown"))
	}}
	reg := NewRegistry(crypto, equity)

	price, err := reg.Quote(context.Background(), models.AssetKindCrypto, "BTC")
	require.NoError(t, err)
	assert.Equal(t, "50000", price.String())

	_, err = reg.Quote(context.Background(), models.AssetKindStock, "XYZ")
	assert.ErrorIs(t, err, ErrFetchFailed)

	_, err = reg.Quote(context.Background(), models.AssetKindManual, "HOUSE")
	assert.ErrorIs(t, err, ErrFetchFailed)

	_, ok := reg.For(models.AssetKindManual)
	assert.False(t, ok)
}

func TestRegistry_QuoteRejectsNonPositive(t *testing.T) {
	p := &stubProvider{fetchFn: func(_ context.Context, symbol string) Result {
		return Success(symbol, decimal.Zero)
	}}
	_, err := NewRegistry(p, nil).Quote(context.Background(), models.AssetKindCrypto, "BTC")
	assert.ErrorIs(t, err, ErrFetchFailed)
}
