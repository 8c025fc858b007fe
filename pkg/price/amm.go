package price

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"bearswap/pkg/token"
	"bearswap/pkg/xrpl"
)

// ammFeeDenominator converts the pool's trading_fee field (units of
// 1/100000) into a fraction.
var ammFeeDenominator = decimal.NewFromInt(100_000)

// AMMReader is the slice of the ledger client the AMM source needs.
type AMMReader interface {
	AMMInfo(ctx context.Context, asset, asset2 token.Token) (*xrpl.AMMPool, error)
}

// AMMSource prices a token off the on-ledger automated market maker pool
// for the (native, token) pair using the constant-product formula, with the
// pool's own trading fee deducted from the output.
type AMMSource struct {
	ledger AMMReader
	probe  decimal.Decimal
}

// NewAMMSource builds an AMM source probing with probe native units
// (DefaultBookProbe if zero).
func NewAMMSource(ledger AMMReader, probe decimal.Decimal) *AMMSource {
	if probe.IsZero() {
		probe = DefaultBookProbe
	}
	return &AMMSource{ledger: ledger, probe: probe}
}

func (s *AMMSource) Name() string { return "amm" }

// TryPrice reads both pool balances and quotes the probe trade.
func (s *AMMSource) TryPrice(ctx context.Context, t token.Token) (decimal.Decimal, error) {
	pool, err := s.ledger.AMMInfo(ctx, token.Native(), t)
	if err != nil {
		var rpcErr *xrpl.RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == "actNotFound" {
			return decimal.Zero, fmt.Errorf("amm: no pool for %s: %w", t, ErrNoResult)
		}
		return decimal.Zero, fmt.Errorf("amm: %w", err)
	}

	native, other := pool.Amount, pool.Amount2
	if !native.IsNative() {
		native, other = other, native
	}
	if !native.IsNative() || other.IsNative() {
		return decimal.Zero, fmt.Errorf("amm: pool is not a native pair: %w", ErrNoResult)
	}

	out, err := ConstantProductOut(native.Value, other.Value, s.probe, pool.TradingFee)
	if err != nil {
		return decimal.Zero, err
	}
	return s.probe.Div(out), nil
}

// ConstantProductOut quotes dy = y*dx/(x+dx) for reserves x (input side)
// and y (output side), then deducts the pool's trading fee (tradingFee in
// units of 1/100000). Empty pools yield no result.
func ConstantProductOut(x, y, dx decimal.Decimal, tradingFee int64) (decimal.Decimal, error) {
	if !x.IsPositive() || !y.IsPositive() || !dx.IsPositive() {
		return decimal.Zero, fmt.Errorf("amm: empty pool: %w", ErrNoResult)
	}
	out := y.Mul(dx).Div(x.Add(dx))
	feeFraction := decimal.NewFromInt(tradingFee).Div(ammFeeDenominator)
	out = out.Mul(decimal.NewFromInt(1).Sub(feeFraction))
	if !out.IsPositive() {
		return decimal.Zero, fmt.Errorf("amm: zero output: %w", ErrNoResult)
	}
	return out, nil
}
