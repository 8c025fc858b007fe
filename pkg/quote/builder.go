package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bearswap/pkg/fee"
	"bearswap/pkg/token"
)

var (
	// ErrInvalidPair rejects pairs where the native asset is on neither or
	// both legs. The protocol fee is collected in the native asset, so one
	// leg must carry it.
	ErrInvalidPair = errors.New("quote: exactly one leg must be the native asset")

	// ErrInvalidAmount rejects non-positive input amounts.
	ErrInvalidAmount = errors.New("quote: input amount must be positive")

	// ErrInvalidSlippage rejects slippage outside [0, 10000] bps.
	ErrInvalidSlippage = errors.New("quote: slippage must be between 0 and 10000 bps")
)

const bpsDenominator = 10_000

// PriceResolver is the oracle capability the builder needs.
type PriceResolver interface {
	PriceOf(ctx context.Context, t token.Token) (decimal.Decimal, error)
}

// Builder derives fee-adjusted, slippage-bounded quotes from oracle prices.
type Builder struct {
	oracle PriceResolver
	now    func() time.Time
}

// NewBuilder builds a quote builder over the given oracle.
func NewBuilder(oracle PriceResolver) *Builder {
	return &Builder{oracle: oracle, now: time.Now}
}

// Build prices a swap of amountIn inputToken for outputToken and stamps the
// result with fee, slippage floor, impact estimate and expiry.
//
// The fee is always taken in the native asset, on whichever leg is native:
// off the input before pricing when the input is native, off the output
// after pricing otherwise. That way the fee is payable from value the user
// is already moving, never from a third asset.
func (b *Builder) Build(ctx context.Context, inputToken, outputToken token.Token, amountIn decimal.Decimal, slippageBps int, tier fee.Tier) (*Quote, error) {
	if inputToken.IsNative() == outputToken.IsNative() {
		return nil, ErrInvalidPair
	}
	if !amountIn.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if slippageBps < 0 || slippageBps > bpsDenominator {
		return nil, ErrInvalidSlippage
	}

	nonNative := outputToken
	if !inputToken.IsNative() {
		nonNative = inputToken
	}
	price, err := b.oracle.PriceOf(ctx, nonNative)
	if err != nil {
		return nil, fmt.Errorf("quote: resolve price for %s: %w", nonNative, err)
	}

	feeRate := fee.RateOf(tier)
	one := decimal.NewFromInt(1)

	var outputBeforeFee, outputAfterFee, feeAmount, nativeValue decimal.Decimal
	if inputToken.IsNative() {
		outputBeforeFee = amountIn.Div(price)
		feeAmount = amountIn.Mul(feeRate)
		outputAfterFee = amountIn.Sub(feeAmount).Div(price)
		nativeValue = amountIn
	} else {
		outputBeforeFee = amountIn.Mul(price)
		feeAmount = outputBeforeFee.Mul(feeRate)
		outputAfterFee = outputBeforeFee.Sub(feeAmount)
		nativeValue = outputBeforeFee
	}

	slippage := decimal.NewFromInt(int64(slippageBps)).Div(decimal.NewFromInt(bpsDenominator))
	minimumReceived := outputAfterFee.Mul(one.Sub(slippage))

	now := b.now()
	return &Quote{
		ID:              uuid.New(),
		InputToken:      inputToken,
		OutputToken:     outputToken,
		InputAmount:     amountIn,
		OutputAmount:    outputAfterFee,
		ExchangeRate:    outputBeforeFee.Div(amountIn),
		FeeAmount:       feeAmount,
		FeeTier:         tier,
		SlippageBps:     slippageBps,
		MinimumReceived: minimumReceived,
		PriceImpactPct:  ImpactForSize(nativeValue),
		CreatedAt:       now,
		ExpiresAt:       now.Add(Validity),
	}, nil
}
