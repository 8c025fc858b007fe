package fee

import (
	"github.com/shopspring/decimal"
)

// Tier is a caller's fee discount tier. Tiers are assigned externally based
// on NFT holdings and are immutable for the lifetime of a quote.
type Tier string

const (
	TierStandard   Tier = "standard"
	TierDiscounted Tier = "discounted"
	TierPremium    Tier = "premium"
)

// Protocol fee rates per tier, as fractions of the native-asset leg.
var (
	rateStandard   = decimal.RequireFromString("0.00589")
	rateDiscounted = decimal.RequireFromString("0.00485")
	ratePremium    = decimal.RequireFromString("0.00321")
)

// RateOf returns the protocol fee rate for a tier. An unrecognized tier
// resolves to the standard rate: over-charging a mislabeled caller is
// acceptable, an uncollectable tier blocking swaps is not.
func RateOf(t Tier) decimal.Decimal {
	switch t {
	case TierDiscounted:
		return rateDiscounted
	case TierPremium:
		return ratePremium
	default:
		return rateStandard
	}
}

// Describe renders the tier's rate as a human-readable percentage, e.g.
// "0.589%".
func Describe(t Tier) string {
	pct := RateOf(t).Mul(decimal.NewFromInt(100))
	return pct.String() + "%"
}

// TierFromNFTCount maps a holder's NFT count to a tier, mirroring the
// external assignment rules.
func TierFromNFTCount(n int) Tier {
	switch {
	case n >= 5:
		return TierPremium
	case n >= 1:
		return TierDiscounted
	default:
		return TierStandard
	}
}
