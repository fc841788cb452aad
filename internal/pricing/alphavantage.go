package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wealthsync/internal/logger"
)

const (
	alphaVantageBaseURL  = "https://www.alphavantage.co/query"
	globalQuotePricePath = `$["Global Quote"]["05. price"]`
)

// alphaVantageNotices are top-level keys Alpha Vantage uses instead of a
// quote when the request is rejected (bad key, rate limit, bad symbol).
var alphaVantageNotices = []string{"Error Message", "Note", "Information"}

// AlphaVantageProvider fetches equity prices from the Alpha Vantage GLOBAL_QUOTE endpoint.
type AlphaVantageProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	apiKey     string
	log        *zap.SugaredLogger
}

// NewAlphaVantageProvider creates a new Alpha Vantage price provider.
// An empty baseURL selects the public endpoint.
func NewAlphaVantageProvider(httpClient *http.Client, baseURL, apiKey string) *AlphaVantageProvider {
	if baseURL == "" {
		baseURL = alphaVantageBaseURL
	}
	return &AlphaVantageProvider{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		log:        logger.Named("pricing.alphavantage"),
	}
}

// Name returns the provider's display name.
func (p *AlphaVantageProvider) Name() string { return "Alpha Vantage" }

// FetchPrice fetches the latest quote for a ticker.
func (p *AlphaVantageProvider) FetchPrice(ctx context.Context, symbol string) Result {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return Failure(p.Name(), symbol, err)
	}
	sym = strings.ToUpper(sym)
	if p.apiKey == "" {
		return Failure(p.Name(), sym, errors.New("api key not configured"))
	}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", sym)
	params.Set("apikey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Failure(p.Name(), sym, fmt.Errorf("building request: %w", err))
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Warnw("alpha vantage request failed", "symbol", sym, "error", err)
		return Failure(p.Name(), sym, fmt.Errorf("http request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		p.log.Warnw("alpha vantage returned non-200", "symbol", sym, "status", resp.StatusCode)
		return Failure(p.Name(), sym, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Failure(p.Name(), sym, fmt.Errorf("decoding response: %w", err))
	}

	for _, key := range alphaVantageNotices {
		if msg, ok := body[key]; ok {
			p.log.Warnw("alpha vantage rejected request", "symbol", sym, "notice", key, "message", msg)
			return Failure(p.Name(), sym, fmt.Errorf("%s: %v", strings.ToLower(key), msg))
		}
	}

	price, err := parseGlobalQuotePrice(body)
	if err != nil {
		p.log.Warnw("invalid alpha vantage quote", "symbol", sym, "error", err)
		return Failure(p.Name(), sym, err)
	}

	p.log.Debugw("fetched stock price", "symbol", sym, "price", price.String())
	return Success(sym, price)
}

// parseGlobalQuotePrice extracts the string-formatted "05. price" field.
// An empty "Global Quote" object is how Alpha Vantage answers unknown tickers.
func parseGlobalQuotePrice(body map[string]any) (decimal.Decimal, error) {
	raw, err := jsonpath.Get(globalQuotePricePath, body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unknown symbol or missing price: %w", err)
	}
	s, ok := raw.(string)
	if !ok {
		return decimal.Zero, fmt.Errorf("price is %T, want string", raw)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing price %q: %w", s, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive price %s", price)
	}
	return price, nil
}
