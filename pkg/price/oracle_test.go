package price

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bearswap/pkg/token"
)

type fakeSource struct {
	name  string
	price decimal.Decimal
	err   error
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) TryPrice(ctx context.Context, t token.Token) (decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.price, nil
}

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	cache, err := NewCache(ttl)
	require.NoError(t, err)
	t.Cleanup(cache.Close)
	return cache
}

func TestOracle_FirstSuccessWins(t *testing.T) {
	broken := &fakeSource{name: "broken", err: errors.New("boom")}
	empty := &fakeSource{name: "empty", err: ErrNoResult}
	good := &fakeSource{name: "good", price: decimal.RequireFromString("0.002")}
	last := &fakeSource{name: "last", price: decimal.NewFromInt(99)}

	oracle := NewOracle(newTestCache(t, time.Second), time.Second, broken, empty, good, last)

	price, err := oracle.PriceOf(context.Background(), token.Issued("BEAR", "rIssuer"))
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.RequireFromString("0.002")))
	require.Equal(t, 1, broken.calls)
	require.Equal(t, 1, empty.calls)
	require.Equal(t, 1, good.calls)
	require.Equal(t, 0, last.calls, "cascade must short-circuit on first success")
}

func TestOracle_CacheSuppressesSecondFetch(t *testing.T) {
	source := &fakeSource{name: "counted", price: decimal.RequireFromString("0.002")}
	oracle := NewOracle(newTestCache(t, time.Minute), time.Second, source)
	bear := token.Issued("BEAR", "rIssuer")

	first, err := oracle.PriceOf(context.Background(), bear)
	require.NoError(t, err)
	second, err := oracle.PriceOf(context.Background(), bear)
	require.NoError(t, err)

	require.True(t, first.Equal(second))
	require.Equal(t, 1, source.calls, "second call within the TTL must hit the cache")
}

func TestOracle_HexEncodedTokenSharesCacheEntry(t *testing.T) {
	source := &fakeSource{name: "counted", price: decimal.RequireFromString("0.002")}
	oracle := NewOracle(newTestCache(t, time.Minute), time.Second, source)

	_, err := oracle.PriceOf(context.Background(), token.Issued("BEAR", "rIssuer"))
	require.NoError(t, err)
	_, err = oracle.PriceOf(context.Background(), token.Issued("4245415200000000000000000000000000000000", "rIssuer"))
	require.NoError(t, err)
	require.Equal(t, 1, source.calls)
}

func TestOracle_ExhaustedCascade(t *testing.T) {
	oracle := NewOracle(newTestCache(t, time.Second), time.Second,
		&fakeSource{name: "a", err: ErrNoResult},
		&fakeSource{name: "b", err: errors.New("timeout")},
	)

	_, err := oracle.PriceOf(context.Background(), token.Issued("BEAR", "rIssuer"))
	var noPrice *NoPriceError
	require.ErrorAs(t, err, &noPrice)
}

func TestOracle_ZeroPriceIsNotAResult(t *testing.T) {
	oracle := NewOracle(newTestCache(t, time.Second), time.Second,
		&fakeSource{name: "zero", price: decimal.Zero},
	)
	_, err := oracle.PriceOf(context.Background(), token.Issued("BEAR", "rIssuer"))
	var noPrice *NoPriceError
	require.ErrorAs(t, err, &noPrice)
}

func TestOracle_NativeIsAlwaysOne(t *testing.T) {
	source := &fakeSource{name: "never", price: decimal.NewFromInt(5)}
	oracle := NewOracle(newTestCache(t, time.Second), time.Second, source)

	price, err := oracle.PriceOf(context.Background(), token.Native())
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.NewFromInt(1)))
	require.Equal(t, 0, source.calls)
}
