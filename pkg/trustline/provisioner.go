package trustline

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bearswap/pkg/token"
	"bearswap/pkg/xrpl"
)

// defaultLimit is the trust line limit for provisioned lines, generous
// enough to never cap a swap's delivered amount.
var defaultLimit = decimal.New(1, 15)

// LineReader is the slice of the ledger client the provisioner needs.
type LineReader interface {
	AccountLines(ctx context.Context, account string) ([]xrpl.TrustLine, error)
}

// Provisioner makes sure an account can hold an asset before a swap tries
// to deliver it. Delivery of a non-native asset fails outright without a
// matching trust line, so this runs before the swap transaction is built.
type Provisioner struct {
	ledger LineReader
}

// New builds a provisioner over the given ledger.
func New(ledger LineReader) *Provisioner {
	return &Provisioner{ledger: ledger}
}

// Ensure reports whether account already holds a line for t. When the line
// is missing it returns the TrustSet the caller must sign and submit before
// swapping; the transaction sets no-rippling and a generous limit. Native
// assets never need a line.
func (p *Provisioner) Ensure(ctx context.Context, account string, t token.Token) (present bool, tx *xrpl.TrustSet, err error) {
	if t.IsNative() {
		return true, nil, nil
	}

	lines, err := p.ledger.AccountLines(ctx, account)
	if err != nil {
		return false, nil, fmt.Errorf("trustline: list lines for %s: %w", account, err)
	}
	for _, line := range lines {
		if token.Same(token.Issued(line.Currency, line.Account), t) {
			return true, nil, nil
		}
	}

	return false, &xrpl.TrustSet{
		TxBase: xrpl.TxBase{
			TransactionType: "TrustSet",
			Account:         account,
			Flags:           xrpl.TfSetNoRipple,
		},
		LimitAmount: xrpl.IssuedAmount(t, defaultLimit),
	}, nil
}
