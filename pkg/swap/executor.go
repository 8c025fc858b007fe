package swap

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bearswap/pkg/quote"
	"bearswap/pkg/token"
	"bearswap/pkg/xrpl"
)

// Ledger is the slice of the ledger client the executor needs.
type Ledger interface {
	AccountInfo(ctx context.Context, account string) (*xrpl.AccountInfo, error)
	Autofill(ctx context.Context, tx xrpl.Transaction) error
	SubmitAndWait(ctx context.Context, blob string) (*xrpl.TxResult, error)
}

// TrustlineEnsurer checks and prepares trust lines for the output asset.
type TrustlineEnsurer interface {
	Ensure(ctx context.Context, account string, t token.Token) (present bool, tx *xrpl.TrustSet, err error)
}

// Config carries the executor's fixed parameters.
type Config struct {
	// Treasury receives the protocol fee (or its half under a referral).
	Treasury string

	// BaseReserve is the ledger's account reserve that must stay untouched.
	BaseReserve decimal.Decimal

	// NetworkFeeBuffer is headroom for the transactions' own network fees.
	NetworkFeeBuffer decimal.Decimal
}

// Result is the outcome of one execution attempt.
type Result struct {
	Success     bool
	SwapTxHash  string
	FeeTxHashes []string
	FeeCount    int

	// Warning is set when the swap succeeded but fee collection was
	// incomplete. It never turns Success off: the swap is final.
	Warning *FeeCollectionPartialError
}

// Executor runs a quote through trustline provisioning, the affordability
// precheck, plan building, signing and ordered submission. One attempt per
// quote; failures are never retried with the same plan.
type Executor struct {
	ledger     Ledger
	trustlines TrustlineEnsurer
	referrals  Lookup
	cfg        Config
	now        func() time.Time
}

// NewExecutor wires an executor.
func NewExecutor(ledger Ledger, trustlines TrustlineEnsurer, referrals Lookup, cfg Config) *Executor {
	return &Executor{
		ledger:     ledger,
		trustlines: trustlines,
		referrals:  referrals,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Execute performs the swap described by q for account, signing through
// signer and reporting progress through onStatus. The quote must be fresh;
// an expired quote is rejected before any network call.
func (e *Executor) Execute(ctx context.Context, q *quote.Quote, account string, signer xrpl.Signer, onStatus StatusFunc) (*Result, error) {
	emit := func(s Status) {
		if onStatus != nil {
			onStatus(s)
		}
	}
	attempt := uuid.New()
	logger := log.WithFields(log.Fields{
		"attempt": attempt,
		"quote":   q.ID,
		"account": account,
	})

	emit(StatusIdle)
	if q.Expired(e.now()) {
		emit(StatusFailed)
		return nil, ErrQuoteExpired
	}

	// 1. Trustline: the output asset must be holdable before the swap can
	// deliver it.
	emit(StatusCheckingTrustline)
	if !q.OutputToken.IsNative() {
		if err := e.ensureTrustline(ctx, q, account, signer, emit, logger); err != nil {
			emit(StatusFailed)
			return nil, err
		}
	}

	// 2. Affordability: the fee is mandatory; refuse before building or
	// signing anything rather than silently skipping it.
	emit(StatusCheckingAffordability)
	if err := e.checkAffordability(ctx, q, account); err != nil {
		emit(StatusFailed)
		return nil, err
	}

	// 3 & 4. Referrer resolution and plan building.
	emit(StatusBuildingPlan)
	referrer := e.resolveReferrer(ctx, account, logger)
	plan := BuildPlan(q, account, NewFeePlan(q.FeeAmount, e.cfg.Treasury, referrer))
	if err := e.ledger.Autofill(ctx, plan.Swap); err != nil {
		emit(StatusFailed)
		return nil, fmt.Errorf("swap: autofill: %w", err)
	}
	plan.ChainSequences()

	// 5. Signatures, strictly sequential: each one may wait on a human and
	// sequence numbers depend on the order.
	emit(StatusAwaitingSignatures)
	swapBlob, err := signer.Sign(ctx, plan.Swap)
	if err != nil {
		emit(StatusFailed)
		return nil, fmt.Errorf("swap: sign swap: %w", err)
	}
	feeBlobs := make([]string, 0, len(plan.Fees))
	for i, feeTx := range plan.Fees {
		if err := ctx.Err(); err != nil {
			emit(StatusFailed)
			return nil, err
		}
		blob, err := signer.Sign(ctx, feeTx)
		if err != nil {
			emit(StatusFailed)
			return nil, fmt.Errorf("swap: sign fee tx %d: %w", i+1, err)
		}
		feeBlobs = append(feeBlobs, blob)
	}

	// 6. Swap first. A rejected swap aborts everything: no fee is owed on
	// a trade that never happened.
	emit(StatusSubmittingSwap)
	swapRes, err := e.ledger.SubmitAndWait(ctx, swapBlob)
	if err != nil {
		emit(StatusFailed)
		return nil, fmt.Errorf("swap: submit swap: %w", err)
	}
	if !swapRes.Succeeded() {
		emit(StatusFailed)
		return &Result{Success: false, SwapTxHash: swapRes.Hash},
			&SwapFailedError{Code: swapRes.ResultCode, Hash: swapRes.Hash}
	}
	logger.WithField("hash", swapRes.Hash).Info("swap validated")

	// 7. Fees, in order, tracked per transaction. The swap already
	// delivered funds; a failed fee is a warning, not a rollback.
	emit(StatusSubmittingFees)
	result := &Result{Success: true, SwapTxHash: swapRes.Hash, FeeCount: len(feeBlobs)}
	var failed []string
	for i, blob := range feeBlobs {
		feeRes, err := e.ledger.SubmitAndWait(ctx, blob)
		switch {
		case err != nil:
			failed = append(failed, fmt.Sprintf("fee tx %d: %v", i+1, err))
		case !feeRes.Succeeded():
			failed = append(failed, fmt.Sprintf("fee tx %d: %s", i+1, feeRes.ResultCode))
		default:
			result.FeeTxHashes = append(result.FeeTxHashes, feeRes.Hash)
		}
	}
	if len(failed) > 0 {
		result.Warning = &FeeCollectionPartialError{Failed: failed}
		logger.WithField("failed", failed).Warn("fee collection incomplete")
	}

	emit(StatusDone)
	return result, nil
}

func (e *Executor) ensureTrustline(ctx context.Context, q *quote.Quote, account string, signer xrpl.Signer, emit func(Status), logger *log.Entry) error {
	present, trustSet, err := e.trustlines.Ensure(ctx, account, q.OutputToken)
	if err != nil {
		return &TrustlineCreationFailedError{Token: q.OutputToken, Err: err}
	}
	if present {
		return nil
	}

	emit(StatusProvisioningTrustline)
	if err := e.ledger.Autofill(ctx, trustSet); err != nil {
		return &TrustlineCreationFailedError{Token: q.OutputToken, Err: err}
	}
	blob, err := signer.Sign(ctx, trustSet)
	if err != nil {
		return &TrustlineCreationFailedError{Token: q.OutputToken, Err: err}
	}
	res, err := e.ledger.SubmitAndWait(ctx, blob)
	if err != nil {
		return &TrustlineCreationFailedError{Token: q.OutputToken, Err: err}
	}
	if !res.Succeeded() {
		return &TrustlineCreationFailedError{Token: q.OutputToken, Err: fmt.Errorf("result %s", res.ResultCode)}
	}
	logger.WithField("hash", res.Hash).Info("trust line provisioned")
	return nil
}

func (e *Executor) checkAffordability(ctx context.Context, q *quote.Quote, account string) error {
	info, err := e.ledger.AccountInfo(ctx, account)
	if err != nil {
		return fmt.Errorf("swap: affordability check: %w", err)
	}

	postSwap := info.Balance
	if q.InputToken.IsNative() {
		postSwap = postSwap.Sub(q.InputAmount)
	} else {
		postSwap = postSwap.Add(q.MinimumReceived)
	}

	required := e.cfg.BaseReserve.Add(q.FeeAmount).Add(e.cfg.NetworkFeeBuffer)
	if postSwap.LessThan(required) {
		return &InsufficientFeeFundsError{Required: required, Available: postSwap}
	}
	return nil
}

func (e *Executor) resolveReferrer(ctx context.Context, account string, logger *log.Entry) string {
	if e.referrals == nil {
		return ""
	}
	referrer, err := e.referrals.ReferrerFor(ctx, account)
	if err != nil {
		logger.WithError(err).Warn("referral resolution failed, proceeding unreferred")
		return ""
	}
	if referrer == "" {
		return ""
	}
	if !xrpl.IsValidAddress(referrer) {
		logger.WithField("referrer", referrer).Warn("discarding malformed referrer address")
		return ""
	}
	return referrer
}
