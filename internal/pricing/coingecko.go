package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"wealthsync/internal/logger"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3/simple/price"

// defaultCoinGeckoIDs maps common tickers to CoinGecko coin ids.
var defaultCoinGeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"LTC":   "litecoin",
	"BNB":   "binancecoin",
	"USDT":  "tether",
	"USDC":  "usd-coin",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"MATIC": "matic-network",
}

// LookupCoinGeckoID returns the built-in CoinGecko id for a ticker, case-insensitively.
func LookupCoinGeckoID(symbol string) (string, bool) {
	id, ok := defaultCoinGeckoIDs[strings.ToUpper(strings.TrimSpace(symbol))]
	return id, ok
}

// LoadSymbolMap reads additional ticker -> coin id mappings from a YAML file:
//
//	PEPE: pepe
//	ARB: arbitrum
func LoadSymbolMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading symbol map: %w", err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing symbol map %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for sym, id := range raw {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		id = strings.TrimSpace(id)
		if sym == "" || id == "" {
			return nil, fmt.Errorf("symbol map %s: empty entry %q: %q", path, sym, id)
		}
		out[sym] = id
	}
	return out, nil
}

// CoinGeckoProvider fetches crypto prices from the CoinGecko simple price API.
type CoinGeckoProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	vsCurrency string
	ids        map[string]string
	log        *zap.SugaredLogger
}

// CoinGeckoOption customizes a CoinGeckoProvider.
type CoinGeckoOption func(*CoinGeckoProvider)

// WithCoinGeckoURL overrides the simple price endpoint.
func WithCoinGeckoURL(u string) CoinGeckoOption {
	return func(p *CoinGeckoProvider) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// WithVsCurrency sets the fiat currency prices are quoted in (default "usd").
func WithVsCurrency(currency string) CoinGeckoOption {
	return func(p *CoinGeckoProvider) {
		if currency != "" {
			p.vsCurrency = strings.ToLower(currency)
		}
	}
}

// WithSymbolMap adds ticker -> coin id mappings on top of the built-in ones.
func WithSymbolMap(m map[string]string) CoinGeckoOption {
	return func(p *CoinGeckoProvider) {
		for sym, id := range m {
			p.ids[strings.ToUpper(sym)] = id
		}
	}
}

// NewCoinGeckoProvider creates a new CoinGecko price provider.
func NewCoinGeckoProvider(httpClient *http.Client, opts ...CoinGeckoOption) *CoinGeckoProvider {
	p := &CoinGeckoProvider{
		httpClient: httpClient,
		baseURL:    coinGeckoBaseURL,
		vsCurrency: "usd",
		ids:        make(map[string]string, len(defaultCoinGeckoIDs)),
		log:        logger.Named("pricing.coingecko"),
	}
	for sym, id := range defaultCoinGeckoIDs {
		p.ids[sym] = id
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider's display name.
func (p *CoinGeckoProvider) Name() string { return "CoinGecko" }

// coinID maps a ticker to a CoinGecko id. Unknown tickers are assumed to
// already be CoinGecko ids.
func (p *CoinGeckoProvider) coinID(symbol string) string {
	if id, ok := p.ids[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// FetchPrice fetches the current price of a coin.
func (p *CoinGeckoProvider) FetchPrice(ctx context.Context, symbol string) Result {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return Failure(p.Name(), symbol, err)
	}
	id := p.coinID(sym)

	params := url.Values{}
	params.Set("ids", id)
	params.Set("vs_currencies", p.vsCurrency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Failure(p.Name(), sym, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Warnw("coingecko request failed", "symbol", sym, "coin_id", id, "error", err)
		return Failure(p.Name(), sym, fmt.Errorf("http request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		p.log.Warnw("coingecko returned non-200", "symbol", sym, "status", resp.StatusCode)
		return Failure(p.Name(), sym, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Failure(p.Name(), sym, fmt.Errorf("decoding response: %w", err))
	}

	quotes, ok := body[id]
	if !ok {
		return Failure(p.Name(), sym, fmt.Errorf("unknown coin id %q", id))
	}
	price, ok := quotes[p.vsCurrency]
	if !ok {
		return Failure(p.Name(), sym, fmt.Errorf("no %s quote for %q", p.vsCurrency, id))
	}
	if !price.IsPositive() {
		return Failure(p.Name(), sym, errors.New("non-positive price "+price.String()))
	}

	p.log.Debugw("fetched crypto price", "symbol", sym, "coin_id", id, "price", price.String())
	return Success(sym, price)
}
