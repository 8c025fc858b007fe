package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bearswap/pkg/token"
)

// SearchSource queries a token-search endpoint with several search terms in
// parallel and picks the first hit matching the token's symbol and issuer.
// The search index already quotes prices in the native asset, so no
// inversion is needed. Outstanding queries are abandoned, not cancelled,
// once a result or the deadline arrives.
type SearchSource struct {
	client  *http.Client
	baseURL string
}

// NewSearchSource builds a search source against baseURL.
func NewSearchSource(client *http.Client, baseURL string) *SearchSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &SearchSource{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *SearchSource) Name() string { return "search" }

type searchHit struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
	PriceXRP string `json:"price_xrp"`
}

type searchResponse struct {
	Tokens []searchHit `json:"tokens"`
}

// TryPrice fans the search terms out concurrently and returns the first
// matching hit's native-denominated price.
func (s *SearchSource) TryPrice(ctx context.Context, t token.Token) (decimal.Decimal, error) {
	terms := searchTerms(t)
	results := make(chan decimal.Decimal, len(terms))

	for _, term := range terms {
		go func(term string) {
			price, err := s.query(ctx, term, t)
			if err != nil {
				log.WithFields(log.Fields{"term": term, "token": t.Key()}).
					WithError(err).Debug("search term yielded nothing")
				return
			}
			results <- price
		}(term)
	}

	// First acceptable result wins; the rest are abandoned. The per-source
	// deadline on ctx bounds the wait when no term produces anything.
	select {
	case price := <-results:
		return price, nil
	case <-ctx.Done():
		return decimal.Zero, fmt.Errorf("search: %s: %w", t, ErrNoResult)
	}
}

func (s *SearchSource) query(ctx context.Context, term string, t token.Token) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/tokens?q=%s", s.baseURL, url.QueryEscape(term))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("search: status %d", resp.StatusCode)
	}
	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("search: decode: %w", err)
	}

	var truncated decimal.Decimal
	var haveTruncated bool
	for _, hit := range body.Tokens {
		if !matches(hit, t) {
			continue
		}
		price, err := decimal.NewFromString(hit.PriceXRP)
		if err != nil || price.IsZero() || price.IsNegative() {
			continue
		}
		if hit.Issuer == t.Issuer {
			return price, nil
		}
		if !haveTruncated {
			truncated, haveTruncated = price, true
		}
	}
	if haveTruncated {
		return truncated, nil
	}
	return decimal.Zero, ErrNoResult
}

// matches compares a hit against the wanted token: symbols must agree after
// normalization, and the hit's issuer must be the wanted issuer or a
// truncation of it (search indexes sometimes cut issuers short). A
// different address that merely contains the wanted one must not match.
func matches(hit searchHit, t token.Token) bool {
	if token.NormalizeCurrency(hit.Currency) != token.NormalizeCurrency(t.Currency) {
		return false
	}
	if hit.Issuer == "" || t.Issuer == "" {
		return true
	}
	return hit.Issuer == t.Issuer || strings.HasPrefix(t.Issuer, hit.Issuer)
}

// searchTerms derives the query terms for a token: the canonical symbol,
// the raw on-ledger code when it differs (hex-encoded currencies), and an
// issuer prefix.
func searchTerms(t token.Token) []string {
	canonical := token.NormalizeCurrency(t.Currency)
	terms := []string{canonical}
	if t.Currency != canonical {
		terms = append(terms, t.Currency)
	}
	if len(t.Issuer) >= 10 {
		terms = append(terms, t.Issuer[:10])
	}
	return terms
}
