package swap

import (
	"github.com/shopspring/decimal"

	"bearswap/pkg/quote"
	"bearswap/pkg/xrpl"
)

// Memo tags identifying fee transactions in ledger history. Off-chain
// trade-accounting tools scan for these exact strings; never change them.
const (
	MemoSwapFee            = "BEAR_SWAP_FEE"
	MemoReferralCommission = "REFERRAL_COMMISSION"
)

// FeeLeg is one fee payment: a destination, a native-asset amount and the
// memo tag identifying its purpose.
type FeeLeg struct {
	Destination string
	Amount      decimal.Decimal
	MemoTag     string
}

// FeePlan is the fee side of a swap: a single treasury payment, or a
// half/half split between referrer and treasury when the sender was
// referred. Built once, consumed uniformly by the transaction builder.
type FeePlan struct {
	Legs []FeeLeg
}

// NewFeePlan splits feeAmount across the recipients. With a referrer the
// referrer's half goes first, then the treasury's.
func NewFeePlan(feeAmount decimal.Decimal, treasury, referrer string) FeePlan {
	if referrer == "" {
		return FeePlan{Legs: []FeeLeg{
			{Destination: treasury, Amount: feeAmount, MemoTag: MemoSwapFee},
		}}
	}
	half := feeAmount.Div(decimal.NewFromInt(2))
	return FeePlan{Legs: []FeeLeg{
		{Destination: referrer, Amount: half, MemoTag: MemoReferralCommission},
		{Destination: treasury, Amount: half, MemoTag: MemoSwapFee},
	}}
}

// Plan is the full set of unsigned transactions for one execution attempt:
// the swap plus one or two fee payments. A plan is never retried verbatim;
// a failed attempt rebuilds from a fresh quote.
type Plan struct {
	Swap *xrpl.Payment
	Fees []*xrpl.Payment
}

// BuildPlan derives the unsigned transactions from a quote.
//
// The swap is a self-directed partial payment through the DEX: the sender
// caps their outlay with SendMax and is guaranteed at least DeliverMin,
// while actual execution may do better. The legs carry the fee-adjusted
// amounts: a native input is reduced by the fee before it enters the DEX,
// a native output is requested gross so the fee can be paid out of it.
func BuildPlan(q *quote.Quote, account string, fees FeePlan) *Plan {
	swapTx := &xrpl.Payment{
		TxBase: xrpl.TxBase{
			TransactionType: "Payment",
			Account:         account,
			Flags:           xrpl.TfPartialPayment,
		},
		Destination: account,
	}

	if q.InputToken.IsNative() {
		sendMax := xrpl.NativeAmount(q.InputAmount.Sub(q.FeeAmount))
		deliverMin := xrpl.IssuedAmount(q.OutputToken, q.MinimumReceived)
		swapTx.Amount = xrpl.IssuedAmount(q.OutputToken, q.OutputAmount)
		swapTx.SendMax = &sendMax
		swapTx.DeliverMin = &deliverMin
	} else {
		// Gross amounts: the swap must deliver the fee on top of what the
		// user keeps, since the fee is paid out of the native output.
		sendMax := xrpl.IssuedAmount(q.InputToken, q.InputAmount)
		deliverMin := xrpl.NativeAmount(q.MinimumReceived.Add(q.FeeAmount))
		swapTx.Amount = xrpl.NativeAmount(q.OutputAmount.Add(q.FeeAmount))
		swapTx.SendMax = &sendMax
		swapTx.DeliverMin = &deliverMin
	}

	plan := &Plan{Swap: swapTx}
	for _, leg := range fees.Legs {
		plan.Fees = append(plan.Fees, &xrpl.Payment{
			TxBase: xrpl.TxBase{
				TransactionType: "Payment",
				Account:         account,
				Memos:           []xrpl.Memo{xrpl.MemoFromString(leg.MemoTag)},
			},
			Destination: leg.Destination,
			Amount:      xrpl.NativeAmount(leg.Amount),
		})
	}
	return plan
}

// ChainSequences gives the fee transactions the sequence numbers directly
// after the swap's, copying its fee and ledger window. Back-to-back
// submission from one account must not race the network for sequence
// allocation.
func (p *Plan) ChainSequences() {
	base := p.Swap.Base()
	for i, feeTx := range p.Fees {
		feeBase := feeTx.Base()
		feeBase.Sequence = base.Sequence + uint32(i) + 1
		feeBase.Fee = base.Fee
		feeBase.LastLedgerSequence = base.LastLedgerSequence
	}
}
