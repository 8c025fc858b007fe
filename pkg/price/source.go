package price

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"bearswap/pkg/token"
)

// ErrNoResult signals that a source has no price for the token. The oracle
// moves on to the next source; it is not a hard failure.
var ErrNoResult = errors.New("price: no result")

// NoPriceError is returned once every source in the cascade has been
// exhausted for a token.
type NoPriceError struct {
	Token token.Token
}

func (e *NoPriceError) Error() string {
	return fmt.Sprintf("price: no price available for %s from any source", e.Token)
}

// Source resolves the price of one unit of a token, denominated in the
// native asset. Implementations must respect the context deadline the
// oracle sets per attempt and return ErrNoResult (possibly wrapped) when
// they simply have nothing, reserving other errors for transport failures.
type Source interface {
	Name() string
	TryPrice(ctx context.Context, t token.Token) (decimal.Decimal, error)
}
