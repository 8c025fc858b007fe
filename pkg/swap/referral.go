package swap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Lookup resolves the registered referrer for an account, or "" when the
// account has none.
type Lookup interface {
	ReferrerFor(ctx context.Context, address string) (string, error)
}

// HTTPLookup queries the referral registration API.
type HTTPLookup struct {
	client  *http.Client
	baseURL string
}

// NewHTTPLookup builds a lookup against baseURL.
func NewHTTPLookup(client *http.Client, baseURL string) *HTTPLookup {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLookup{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// ReferrerFor fetches the referrer registered for address. A 404 means no
// referrer, which is not an error.
func (l *HTTPLookup) ReferrerFor(ctx context.Context, address string) (string, error) {
	endpoint := fmt.Sprintf("%s/referrer/%s", l.baseURL, address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("referral: build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("referral: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("referral: status %d", resp.StatusCode)
	}

	var body struct {
		Referrer string `json:"referrer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("referral: decode: %w", err)
	}
	return body.Referrer, nil
}

// CachedLookup wraps a Lookup with a last-known-good cache keyed by the
// requesting address. A failing upstream falls back to the cached answer;
// with no cached answer either, the swap proceeds unreferred rather than
// failing.
type CachedLookup struct {
	inner Lookup

	mu    sync.RWMutex
	known map[string]string
}

// NewCachedLookup wraps inner with the fallback cache.
func NewCachedLookup(inner Lookup) *CachedLookup {
	return &CachedLookup{inner: inner, known: make(map[string]string)}
}

// ReferrerFor resolves through the upstream lookup, remembering successful
// answers and serving them when the upstream is down.
func (c *CachedLookup) ReferrerFor(ctx context.Context, address string) (string, error) {
	referrer, err := c.inner.ReferrerFor(ctx, address)
	if err == nil {
		c.mu.Lock()
		c.known[address] = referrer
		c.mu.Unlock()
		return referrer, nil
	}

	c.mu.RLock()
	cached, ok := c.known[address]
	c.mu.RUnlock()
	if ok {
		log.WithField("address", address).WithError(err).
			Warn("referral lookup failed, using cached referrer")
		return cached, nil
	}
	log.WithField("address", address).WithError(err).
		Warn("referral lookup failed with no cached fallback, proceeding unreferred")
	return "", nil
}
