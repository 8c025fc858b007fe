package price

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bearswap/pkg/token"
	"bearswap/pkg/xrpl"
)

// DefaultBookProbe is the native-asset amount the book walk prices against.
var DefaultBookProbe = decimal.NewFromInt(10)

const bookDepth = 100

// BookReader is the slice of the ledger client the book source needs.
type BookReader interface {
	BookOffers(ctx context.Context, takerGets, takerPays token.Token, limit int) ([]xrpl.Offer, error)
}

// BookSource prices a token off the on-ledger order book: it walks the top
// offers best-first, consuming liquidity until a probe amount of the native
// asset is spent, and reports the volume-weighted effective rate. An empty
// or unfunded book is "no result", never a zero price.
type BookSource struct {
	ledger BookReader
	probe  decimal.Decimal
}

// NewBookSource builds a book source probing with probe native units
// (DefaultBookProbe if zero).
func NewBookSource(ledger BookReader, probe decimal.Decimal) *BookSource {
	if probe.IsZero() {
		probe = DefaultBookProbe
	}
	return &BookSource{ledger: ledger, probe: probe}
}

func (s *BookSource) Name() string { return "orderbook" }

// TryPrice walks the book where makers sell the token for the native asset.
func (s *BookSource) TryPrice(ctx context.Context, t token.Token) (decimal.Decimal, error) {
	offers, err := s.ledger.BookOffers(ctx, t, token.Native(), bookDepth)
	if err != nil {
		return decimal.Zero, fmt.Errorf("orderbook: %w", err)
	}

	spent, received, err := WalkBook(offers, s.probe)
	if err != nil {
		return decimal.Zero, err
	}
	return spent.Div(received), nil
}

// WalkBook consumes offers best-first until spend native units are used up
// or the book runs dry. Each offer contributes at most its funded size.
// It returns the native amount actually spent and the token volume bought.
func WalkBook(offers []xrpl.Offer, spend decimal.Decimal) (spent, received decimal.Decimal, err error) {
	remaining := spend
	for _, offer := range offers {
		if !remaining.IsPositive() {
			break
		}
		gets := offer.FundedGets().Value // token the maker delivers
		pays := offer.FundedPays().Value // native the maker wants
		if !gets.IsPositive() || !pays.IsPositive() {
			continue
		}

		take := decimal.Min(remaining, pays)
		received = received.Add(gets.Mul(take).Div(pays))
		spent = spent.Add(take)
		remaining = remaining.Sub(take)
	}

	if !received.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("orderbook: empty book: %w", ErrNoResult)
	}
	return spent, received, nil
}
