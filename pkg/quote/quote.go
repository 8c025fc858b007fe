package quote

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bearswap/pkg/fee"
	"bearswap/pkg/token"
)

// Validity is the fixed window in which a quote may be executed.
const Validity = 30 * time.Second

// Quote is an immutable, time-bounded snapshot of an exchange rate and the
// fee terms applied to it. It is built once, consumed at most once by the
// executor, and rejected after ExpiresAt.
type Quote struct {
	ID          uuid.UUID       `json:"id"`
	InputToken  token.Token     `json:"inputToken"`
	OutputToken token.Token     `json:"outputToken"`
	InputAmount decimal.Decimal `json:"inputAmount"`

	// OutputAmount is the expected output after the protocol fee.
	OutputAmount decimal.Decimal `json:"outputAmount"`

	// ExchangeRate is output units per input unit before fees.
	ExchangeRate decimal.Decimal `json:"exchangeRate"`

	// FeeAmount is always denominated in the native asset.
	FeeAmount decimal.Decimal `json:"feeAmount"`
	FeeTier   fee.Tier        `json:"feeTier"`

	SlippageBps     int             `json:"slippageBps"`
	MinimumReceived decimal.Decimal `json:"minimumReceived"`
	PriceImpactPct  decimal.Decimal `json:"priceImpactPct"`

	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the quote may no longer be executed.
func (q *Quote) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

// Price impact is a size-bucketed heuristic, not a depth-derived figure:
// downstream impact warnings are tuned to these exact buckets, so they must
// stay deterministic and non-decreasing in trade size.
var impactBuckets = []struct {
	below  decimal.Decimal
	impact decimal.Decimal
}{
	{decimal.NewFromInt(100), decimal.RequireFromString("0.1")},
	{decimal.NewFromInt(1_000), decimal.RequireFromString("0.3")},
	{decimal.NewFromInt(10_000), decimal.RequireFromString("0.8")},
	{decimal.NewFromInt(50_000), decimal.RequireFromString("1.5")},
}

var impactCeiling = decimal.RequireFromString("3.0")

// ImpactForSize maps a trade's native-asset value to its bucketed price
// impact percentage.
func ImpactForSize(nativeValue decimal.Decimal) decimal.Decimal {
	for _, bucket := range impactBuckets {
		if nativeValue.LessThan(bucket.below) {
			return bucket.impact
		}
	}
	return impactCeiling
}
