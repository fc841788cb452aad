// Package pricing fetches current market prices for real-time tracked assets
// from external data sources.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"wealthsync/internal/models"
)

// ErrFetchFailed is the single failure outcome a provider reports to its
// caller. The wrapped reason (transport, status, body shape, unknown symbol)
// is for logs only.
var ErrFetchFailed = errors.New("price fetch failed")

// FetchError describes why a price could not be fetched for a symbol.
// It matches ErrFetchFailed with errors.Is.
type FetchError struct {
	Provider string
	Symbol   string
	Err      error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Symbol, e.Err)
}

// Unwrap returns the underlying reason.
func (e *FetchError) Unwrap() error { return e.Err }

// Is reports whether target is ErrFetchFailed.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// Result is the outcome of a single price lookup: either a strictly positive
// price or a failure reason.
type Result struct {
	Symbol string
	Price  decimal.Decimal
	Err    error
}

// Success builds a successful result.
func Success(symbol string, price decimal.Decimal) Result {
	return Result{Symbol: symbol, Price: price}
}

// Failure builds a failed result for the given provider and symbol.
func Failure(provider, symbol string, reason error) Result {
	return Result{Symbol: symbol, Err: &FetchError{Provider: provider, Symbol: symbol, Err: reason}}
}

// OK reports whether the result carries a usable price.
func (r Result) OK() bool {
	return r.Err == nil && r.Price.IsPositive()
}

// Provider wraps one external pricing API.
type Provider interface {
	// Name returns the provider's display name (e.g. "CoinGecko").
	Name() string

	// FetchPrice returns the current price for symbol. Implementations never
	// panic on bad upstream data; every problem is reported as a failed Result.
	FetchPrice(ctx context.Context, symbol string) Result
}

// Registry selects the provider matching an asset kind.
type Registry struct {
	providers map[models.AssetKind]Provider
}

// NewRegistry creates a registry with a crypto and an equity provider.
// Either may be nil, in which case assets of that kind have no provider.
func NewRegistry(crypto, equity Provider) *Registry {
	r := &Registry{providers: make(map[models.AssetKind]Provider, 2)}
	if crypto != nil {
		r.providers[models.AssetKindCrypto] = crypto
	}
	if equity != nil {
		r.providers[models.AssetKindStock] = equity
	}
	return r
}

// For returns the provider for kind, if any.
func (r *Registry) For(kind models.AssetKind) (Provider, bool) {
	p, ok := r.providers[kind]
	return p, ok
}

// Quote fetches a price for symbol using the provider matching kind.
// It returns an error wrapping ErrFetchFailed when no valid price is available.
func (r *Registry) Quote(ctx context.Context, kind models.AssetKind, symbol string) (decimal.Decimal, error) {
	p, ok := r.For(kind)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no provider for asset kind %q", ErrFetchFailed, kind)
	}
	res := p.FetchPrice(ctx, symbol)
	if res.Err != nil {
		return decimal.Zero, res.Err
	}
	if !res.Price.IsPositive() {
		return decimal.Zero, &FetchError{Provider: p.Name(), Symbol: symbol, Err: fmt.Errorf("non-positive price %s", res.Price)}
	}
	return res.Price, nil
}

// normalizeSymbol trims whitespace and rejects empty symbols.
func normalizeSymbol(symbol string) (string, error) {
	s := strings.TrimSpace(symbol)
	if s == "" {
		return "", errors.New("empty symbol")
	}
	return s, nil
}
