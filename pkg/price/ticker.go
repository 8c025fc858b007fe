package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"bearswap/pkg/token"
)

// TickerSource asks a market-data ticker endpoint for the last traded price
// of the (native, token) pair. The endpoint normalizes pair order itself,
// so the reported price may be quoted either way round; the response names
// the base side and the source inverts when the native asset is the base.
type TickerSource struct {
	client  *http.Client
	baseURL string
}

// NewTickerSource builds a ticker source against baseURL.
func NewTickerSource(client *http.Client, baseURL string) *TickerSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &TickerSource{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *TickerSource) Name() string { return "ticker" }

type tickerResponse struct {
	Base    string `json:"base"`
	Counter string `json:"counter"`
	Last    string `json:"last"`
}

// TryPrice fetches the last price for the pair and returns it as native
// asset per one token.
func (s *TickerSource) TryPrice(ctx context.Context, t token.Token) (decimal.Decimal, error) {
	pair := fmt.Sprintf("%s/%s.%s", token.NativeCurrency, url.PathEscape(t.Currency), url.PathEscape(t.Issuer))
	endpoint := fmt.Sprintf("%s/ticker/%s", s.baseURL, pair)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ticker: build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ticker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, fmt.Errorf("ticker: pair %s: %w", pair, ErrNoResult)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("ticker: status %d", resp.StatusCode)
	}

	var body tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("ticker: decode: %w", err)
	}
	last, err := decimal.NewFromString(body.Last)
	if err != nil || last.IsZero() || last.IsNegative() {
		return decimal.Zero, fmt.Errorf("ticker: last %q: %w", body.Last, ErrNoResult)
	}

	// When the endpoint kept the native asset as base, last is tokens per
	// one native unit, the reciprocal of what the oracle wants.
	if strings.EqualFold(body.Base, token.NativeCurrency) {
		return decimal.NewFromInt(1).Div(last), nil
	}
	return last, nil
}
