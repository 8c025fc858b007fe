package swap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bearswap/pkg/token"
)

// ErrQuoteExpired rejects execution attempts against a quote past its
// validity window. Submitting one is a client-side error; the executor
// refuses before touching the network.
var ErrQuoteExpired = errors.New("swap: quote has expired, request a fresh one")

// InsufficientFeeFundsError means the affordability precheck failed: the
// post-swap balance would not cover the reserve, the protocol fee and the
// network fee buffer. Nothing was built, signed or submitted.
type InsufficientFeeFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFeeFundsError) Error() string {
	shortfall := e.Required.Sub(e.Available)
	return fmt.Sprintf(
		"swap: insufficient funds to cover the protocol fee: add at least %s %s (post-swap balance %s, required %s)",
		shortfall, token.NativeCurrency, e.Available, e.Required,
	)
}

// Shortfall is the exact native amount missing.
func (e *InsufficientFeeFundsError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Available)
}

// TrustlineCreationFailedError means the receiving account could not be
// provisioned to hold the output asset. Fatal, pre-submission.
type TrustlineCreationFailedError struct {
	Token token.Token
	Err   error
}

func (e *TrustlineCreationFailedError) Error() string {
	return fmt.Sprintf("swap: could not establish a trust line for %s: %v", e.Token, e.Err)
}

func (e *TrustlineCreationFailedError) Unwrap() error { return e.Err }

// SwapFailedError means the ledger rejected the swap transaction. No fee
// transactions were submitted.
type SwapFailedError struct {
	Code string
	Hash string
}

func (e *SwapFailedError) Error() string {
	return fmt.Sprintf("swap: ledger rejected the swap (%s), no fees were collected", e.Code)
}

// FeeCollectionPartialError means the swap itself succeeded and delivered
// funds, but at least one fee transaction failed afterwards. It is a
// warning alongside a successful result, never a rollback.
type FeeCollectionPartialError struct {
	Failed []string // result codes or transport errors, in submission order
}

func (e *FeeCollectionPartialError) Error() string {
	return fmt.Sprintf("swap: swap succeeded but %d fee transaction(s) failed: %s",
		len(e.Failed), strings.Join(e.Failed, "; "))
}
