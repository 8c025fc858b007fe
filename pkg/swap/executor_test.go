package swap

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bearswap/pkg/token"
	"bearswap/pkg/xrpl"
)

type fakeLedger struct {
	balance  decimal.Decimal
	sequence uint32

	// results maps a signed blob to its submission outcome; unmapped
	// blobs validate successfully.
	results map[string]*xrpl.TxResult

	submitted        []string
	accountInfoCalls int
}

func (f *fakeLedger) AccountInfo(ctx context.Context, account string) (*xrpl.AccountInfo, error) {
	f.accountInfoCalls++
	return &xrpl.AccountInfo{Account: account, Balance: f.balance, Sequence: f.sequence}, nil
}

func (f *fakeLedger) Autofill(ctx context.Context, tx xrpl.Transaction) error {
	base := tx.Base()
	base.Sequence = f.sequence
	base.Fee = "12"
	base.LastLedgerSequence = 1000
	return nil
}

func (f *fakeLedger) SubmitAndWait(ctx context.Context, blob string) (*xrpl.TxResult, error) {
	f.submitted = append(f.submitted, blob)
	if res, ok := f.results[blob]; ok {
		return res, nil
	}
	return &xrpl.TxResult{Hash: "HASH-" + blob, ResultCode: "tesSUCCESS", Validated: true}, nil
}

func (f *fakeLedger) feeSubmissions() int {
	n := 0
	for _, blob := range f.submitted {
		if strings.HasPrefix(blob, "Payment-") && blob != blobFor("Payment", 42) {
			n++
		}
	}
	return n
}

func blobFor(txType string, seq uint32) string {
	return fmt.Sprintf("%s-%d", txType, seq)
}

type fakeSigner struct {
	signed []xrpl.Transaction
}

func (f *fakeSigner) Sign(ctx context.Context, tx xrpl.Transaction) (string, error) {
	f.signed = append(f.signed, tx)
	return blobFor(tx.Base().TransactionType, tx.Base().Sequence), nil
}

type fakeTrustlines struct {
	present bool
	tx      *xrpl.TrustSet
	calls   int
}

func (f *fakeTrustlines) Ensure(ctx context.Context, account string, t token.Token) (bool, *xrpl.TrustSet, error) {
	f.calls++
	return f.present, f.tx, nil
}

type fixedLookup struct {
	referrer string
}

func (f *fixedLookup) ReferrerFor(ctx context.Context, address string) (string, error) {
	return f.referrer, nil
}

func testConfig() Config {
	return Config{
		Treasury:         testTreasury,
		BaseReserve:      decimal.NewFromInt(1),
		NetworkFeeBuffer: decimal.RequireFromString("0.1"),
	}
}

func testSetup(balance string, referrer string) (*Executor, *fakeLedger, *fakeSigner) {
	ledger := &fakeLedger{
		balance:  decimal.RequireFromString(balance),
		sequence: 42,
		results:  map[string]*xrpl.TxResult{},
	}
	signer := &fakeSigner{}
	executor := NewExecutor(ledger, &fakeTrustlines{present: true}, &fixedLookup{referrer: referrer}, testConfig())
	return executor, ledger, signer
}

func TestExecute_ExpiredQuoteRejectedBeforeAnyNetworkCall(t *testing.T) {
	executor, ledger, signer := testSetup("1000", "")
	q := nativeInQuote("1")
	q.ExpiresAt = time.Now().Add(-time.Second)

	_, err := executor.Execute(context.Background(), q, testAccount, signer, nil)
	require.ErrorIs(t, err, ErrQuoteExpired)
	require.Equal(t, 0, ledger.accountInfoCalls)
	require.Empty(t, ledger.submitted)
	require.Empty(t, signer.signed)
}

// A referred swap with a 1 XRP fee produces exactly two half-fee payments
// with chained sequences and the fixed memo tags.
func TestExecute_ReferredFeeSplit(t *testing.T) {
	executor, ledger, signer := testSetup("1000", testReferrer)
	q := nativeInQuote("1")

	result, err := executor.Execute(context.Background(), q, testAccount, signer, nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, 2, result.FeeCount)
	require.Len(t, result.FeeTxHashes, 2)
	require.Nil(t, result.Warning)

	require.Len(t, signer.signed, 3)
	swapTx, ok := signer.signed[0].(*xrpl.Payment)
	require.True(t, ok)
	require.Equal(t, uint32(42), swapTx.Sequence)

	referralTx := signer.signed[1].(*xrpl.Payment)
	require.Equal(t, uint32(43), referralTx.Sequence)
	require.Equal(t, testReferrer, referralTx.Destination)
	require.Equal(t, "500000", referralTx.Amount.Drops())
	require.Equal(t, MemoReferralCommission, referralTx.Memos[0].MemoTag())

	treasuryTx := signer.signed[2].(*xrpl.Payment)
	require.Equal(t, uint32(44), treasuryTx.Sequence)
	require.Equal(t, testTreasury, treasuryTx.Destination)
	require.Equal(t, "500000", treasuryTx.Amount.Drops())
	require.Equal(t, MemoSwapFee, treasuryTx.Memos[0].MemoTag())

	// Swap submitted before either fee.
	require.Equal(t, blobFor("Payment", 42), ledger.submitted[0])
}

func TestExecute_UnreferredSingleFee(t *testing.T) {
	executor, _, signer := testSetup("1000", "")
	q := nativeInQuote("1")

	result, err := executor.Execute(context.Background(), q, testAccount, signer, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.FeeCount)

	feeTx := signer.signed[1].(*xrpl.Payment)
	require.Equal(t, testTreasury, feeTx.Destination)
	require.Equal(t, "1000000", feeTx.Amount.Drops())
	require.Equal(t, MemoSwapFee, feeTx.Memos[0].MemoTag())
}

func TestExecute_MalformedReferrerDiscarded(t *testing.T) {
	executor, _, signer := testSetup("1000", "not-a-ledger-address")
	q := nativeInQuote("1")

	result, err := executor.Execute(context.Background(), q, testAccount, signer, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.FeeCount, "invalid referrer must fall back to a single treasury fee")
}

// Balance of exactly baseReserve + input + fee leaves nothing for the
// network fee buffer, which makes the swap strictly unaffordable.
func TestExecute_AffordabilityExactReserve(t *testing.T) {
	// post-swap = 102 - 100 = 2; required = 1 + 1 + 0.1.
	executor, ledger, signer := testSetup("102", "")
	q := nativeInQuote("1")

	_, err := executor.Execute(context.Background(), q, testAccount, signer, nil)

	var insufficient *InsufficientFeeFundsError
	require.ErrorAs(t, err, &insufficient)
	require.True(t, insufficient.Shortfall().Equal(decimal.RequireFromString("0.1")),
		"shortfall %s", insufficient.Shortfall())
	require.Empty(t, signer.signed, "nothing may be signed after a failed precheck")
	require.Empty(t, ledger.submitted)
}

func TestExecute_SwapFailureSubmitsNoFees(t *testing.T) {
	executor, ledger, signer := testSetup("1000", testReferrer)
	ledger.results[blobFor("Payment", 42)] = &xrpl.TxResult{
		Hash: "SWAPHASH", ResultCode: "tecPATH_DRY", Validated: true,
	}
	q := nativeInQuote("1")

	result, err := executor.Execute(context.Background(), q, testAccount, signer, nil)

	var swapFailed *SwapFailedError
	require.ErrorAs(t, err, &swapFailed)
	require.Equal(t, "tecPATH_DRY", swapFailed.Code)
	require.NotNil(t, result)
	require.False(t, result.Success)
	require.Equal(t, 0, ledger.feeSubmissions(), "no fee transaction may follow a failed swap")
}

func TestExecute_PartialFeeFailureIsAWarningNotAFailure(t *testing.T) {
	executor, ledger, signer := testSetup("1000", testReferrer)
	q := nativeInQuote("1")

	ledger.results[blobFor("Payment", 43)] = &xrpl.TxResult{
		Hash: "FEE1", ResultCode: "tecUNFUNDED_PAYMENT", Validated: true,
	}

	result, err := executor.Execute(context.Background(), q, testAccount, signer, nil)
	require.NoError(t, err, "a fee failure never fails the swap")
	require.True(t, result.Success)
	require.Equal(t, 2, result.FeeCount)
	require.Len(t, result.FeeTxHashes, 1)
	require.NotNil(t, result.Warning)
	require.Len(t, result.Warning.Failed, 1)
}

func TestExecute_ProvisionsMissingTrustline(t *testing.T) {
	ledger := &fakeLedger{balance: decimal.NewFromInt(1000), sequence: 42, results: map[string]*xrpl.TxResult{}}
	signer := &fakeSigner{}
	trustlines := &fakeTrustlines{
		present: false,
		tx: &xrpl.TrustSet{
			TxBase:      xrpl.TxBase{TransactionType: "TrustSet", Account: testAccount, Flags: xrpl.TfSetNoRipple},
			LimitAmount: xrpl.IssuedAmount(bearToken, decimal.New(1, 15)),
		},
	}
	executor := NewExecutor(ledger, trustlines, &fixedLookup{}, testConfig())

	var statuses []Status
	result, err := executor.Execute(context.Background(), nativeInQuote("1"), testAccount, signer,
		func(s Status) { statuses = append(statuses, s) })
	require.NoError(t, err)
	require.True(t, result.Success)

	_, isTrustSet := signer.signed[0].(*xrpl.TrustSet)
	require.True(t, isTrustSet, "trust line must be signed and submitted before the swap")
	require.Contains(t, statuses, StatusProvisioningTrustline)
}

func TestExecute_StatusOrdering(t *testing.T) {
	executor, _, signer := testSetup("1000", "")
	var statuses []Status

	_, err := executor.Execute(context.Background(), nativeInQuote("1"), testAccount, signer,
		func(s Status) { statuses = append(statuses, s) })
	require.NoError(t, err)

	require.Equal(t, []Status{
		StatusIdle,
		StatusCheckingTrustline,
		StatusCheckingAffordability,
		StatusBuildingPlan,
		StatusAwaitingSignatures,
		StatusSubmittingSwap,
		StatusSubmittingFees,
		StatusDone,
	}, statuses)

	// No state is re-entered.
	seen := map[Status]bool{}
	for _, s := range statuses {
		require.False(t, seen[s], "state %s re-entered", s)
		seen[s] = true
	}
}
