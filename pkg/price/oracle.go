package price

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bearswap/pkg/token"
)

// DefaultSourceTimeout bounds each source attempt. A timed-out source is a
// failed source, not a fatal error.
const DefaultSourceTimeout = 3 * time.Second

// Oracle resolves token prices by walking a ranked source cascade, first
// success wins. Results are written through to a short-TTL cache; the
// cache is consulted before any source. When the whole cascade comes up
// empty the caller gets NoPriceError, never a zero or a stale value.
type Oracle struct {
	sources []Source
	cache   *Cache
	timeout time.Duration
}

// NewOracle builds an oracle over the given sources, in rank order.
func NewOracle(cache *Cache, timeout time.Duration, sources ...Source) *Oracle {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	return &Oracle{sources: sources, cache: cache, timeout: timeout}
}

// PriceOf returns the price of one unit of t in the native asset. The
// native asset itself is always 1.
func (o *Oracle) PriceOf(ctx context.Context, t token.Token) (decimal.Decimal, error) {
	if t.IsNative() {
		return decimal.NewFromInt(1), nil
	}
	t = t.Normalized()

	if cached, ok := o.cache.Get(t); ok {
		return cached, nil
	}

	for _, source := range o.sources {
		attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
		price, err := source.TryPrice(attemptCtx, t)
		cancel()

		if err != nil {
			log.WithFields(log.Fields{
				"source": source.Name(),
				"token":  t.Key(),
			}).WithError(err).Debug("price source failed, trying next")
			continue
		}
		if !price.IsPositive() {
			log.WithFields(log.Fields{
				"source": source.Name(),
				"token":  t.Key(),
			}).Warn("price source returned non-positive price, trying next")
			continue
		}

		o.cache.Set(t, price)
		return price, nil
	}

	return decimal.Zero, &NoPriceError{Token: t}
}
