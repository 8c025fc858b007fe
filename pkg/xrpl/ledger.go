package xrpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bearswap/pkg/token"
)

const (
	// minFeeDrops is the floor for the per-transaction network fee.
	minFeeDrops = 12

	// ledgerWindow is how many ledgers past the current one a transaction
	// stays valid (LastLedgerSequence = current + ledgerWindow).
	ledgerWindow = 20

	submitPollInterval = 1 * time.Second
)

// AccountInfo is the subset of account_info the engine needs.
type AccountInfo struct {
	Account  string
	Balance  decimal.Decimal // native asset, whole units
	Sequence uint32
}

// TrustLine is one entry of an account's trust line listing.
type TrustLine struct {
	Account  string `json:"account"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
	Limit    string `json:"limit"`
	NoRipple bool   `json:"no_ripple"`
}

// Offer is one order-book entry. The funded fields, when present, cap how
// much of the offer is actually backed by the maker's balance.
type Offer struct {
	TakerGets       Amount  `json:"TakerGets"`
	TakerPays       Amount  `json:"TakerPays"`
	TakerGetsFunded *Amount `json:"taker_gets_funded,omitempty"`
	TakerPaysFunded *Amount `json:"taker_pays_funded,omitempty"`
}

// FundedGets returns the deliverable size of the offer's TakerGets side.
func (o Offer) FundedGets() Amount {
	if o.TakerGetsFunded != nil {
		return *o.TakerGetsFunded
	}
	return o.TakerGets
}

// FundedPays returns the cost matching FundedGets.
func (o Offer) FundedPays() Amount {
	if o.TakerPaysFunded != nil {
		return *o.TakerPaysFunded
	}
	return o.TakerPays
}

// AMMPool is the state of an automated market maker instance for one asset
// pair. TradingFee is in units of 1/100000 (500 = 0.5%).
type AMMPool struct {
	Account    string
	Amount     Amount
	Amount2    Amount
	TradingFee int64
}

// TxResult is the outcome of a submitted transaction.
type TxResult struct {
	Hash       string
	ResultCode string
	Validated  bool
}

// Succeeded reports whether the result code is the success class.
func (r *TxResult) Succeeded() bool {
	return strings.HasPrefix(r.ResultCode, "tes")
}

func assetSpec(t token.Token) map[string]interface{} {
	if t.IsNative() {
		return map[string]interface{}{"currency": token.NativeCurrency}
	}
	return map[string]interface{}{"currency": wireCurrency(t.Currency), "issuer": t.Issuer}
}

// AccountInfo fetches balance and next sequence from the validated ledger.
func (c *Client) AccountInfo(ctx context.Context, account string) (*AccountInfo, error) {
	raw, err := c.Request(ctx, "account_info", map[string]interface{}{
		"account":      account,
		"ledger_index": "validated",
	})
	if err != nil {
		return nil, err
	}
	var result struct {
		AccountData struct {
			Account  string `json:"Account"`
			Balance  string `json:"Balance"`
			Sequence uint32 `json:"Sequence"`
		} `json:"account_data"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("xrpl: account_info: %w", err)
	}
	balance, err := XRPFromDrops(result.AccountData.Balance)
	if err != nil {
		return nil, fmt.Errorf("xrpl: account_info: %w", err)
	}
	return &AccountInfo{
		Account:  result.AccountData.Account,
		Balance:  balance,
		Sequence: result.AccountData.Sequence,
	}, nil
}

// AccountLines lists the account's trust lines.
func (c *Client) AccountLines(ctx context.Context, account string) ([]TrustLine, error) {
	raw, err := c.Request(ctx, "account_lines", map[string]interface{}{
		"account":      account,
		"ledger_index": "validated",
	})
	if err != nil {
		return nil, err
	}
	var result struct {
		Lines []TrustLine `json:"lines"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("xrpl: account_lines: %w", err)
	}
	return result.Lines, nil
}

// BookOffers pulls the top of the order book where makers give takerGets in
// exchange for takerPays. Offers arrive best quality first.
func (c *Client) BookOffers(ctx context.Context, takerGets, takerPays token.Token, limit int) ([]Offer, error) {
	raw, err := c.Request(ctx, "book_offers", map[string]interface{}{
		"taker_gets":   assetSpec(takerGets),
		"taker_pays":   assetSpec(takerPays),
		"limit":        limit,
		"ledger_index": "validated",
	})
	if err != nil {
		return nil, err
	}
	var result struct {
		Offers []Offer `json:"offers"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("xrpl: book_offers: %w", err)
	}
	return result.Offers, nil
}

// AMMInfo reads the AMM instance for the asset pair, if one exists.
func (c *Client) AMMInfo(ctx context.Context, asset, asset2 token.Token) (*AMMPool, error) {
	raw, err := c.Request(ctx, "amm_info", map[string]interface{}{
		"asset":  assetSpec(asset),
		"asset2": assetSpec(asset2),
	})
	if err != nil {
		return nil, err
	}
	var result struct {
		AMM struct {
			Account    string `json:"account"`
			Amount     Amount `json:"amount"`
			Amount2    Amount `json:"amount2"`
			TradingFee int64  `json:"trading_fee"`
		} `json:"amm"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("xrpl: amm_info: %w", err)
	}
	return &AMMPool{
		Account:    result.AMM.Account,
		Amount:     result.AMM.Amount,
		Amount2:    result.AMM.Amount2,
		TradingFee: result.AMM.TradingFee,
	}, nil
}

// ValidatedLedgerIndex returns the index of the latest validated ledger.
func (c *Client) ValidatedLedgerIndex(ctx context.Context) (uint32, error) {
	raw, err := c.Request(ctx, "ledger", map[string]interface{}{
		"ledger_index": "validated",
	})
	if err != nil {
		return 0, err
	}
	var result struct {
		LedgerIndex uint32 `json:"ledger_index"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, fmt.Errorf("xrpl: ledger: %w", err)
	}
	return result.LedgerIndex, nil
}

// OpenLedgerFee returns the current open-ledger fee in drops, floored at
// the network minimum.
func (c *Client) OpenLedgerFee(ctx context.Context) (string, error) {
	raw, err := c.Request(ctx, "fee", nil)
	if err != nil {
		return "", err
	}
	var result struct {
		Drops struct {
			OpenLedgerFee string `json:"open_ledger_fee"`
		} `json:"drops"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("xrpl: fee: %w", err)
	}
	fee, err := decimal.NewFromString(result.Drops.OpenLedgerFee)
	if err != nil || fee.LessThan(decimal.NewFromInt(minFeeDrops)) {
		return fmt.Sprintf("%d", minFeeDrops), nil
	}
	return fee.Truncate(0).String(), nil
}

// Autofill populates Sequence, Fee and LastLedgerSequence on a transaction.
func (c *Client) Autofill(ctx context.Context, tx Transaction) error {
	base := tx.Base()
	if base.Sequence == 0 {
		info, err := c.AccountInfo(ctx, base.Account)
		if err != nil {
			return fmt.Errorf("xrpl: autofill sequence: %w", err)
		}
		base.Sequence = info.Sequence
	}
	if base.Fee == "" {
		fee, err := c.OpenLedgerFee(ctx)
		if err != nil {
			return fmt.Errorf("xrpl: autofill fee: %w", err)
		}
		base.Fee = fee
	}
	if base.LastLedgerSequence == 0 {
		idx, err := c.ValidatedLedgerIndex(ctx)
		if err != nil {
			return fmt.Errorf("xrpl: autofill ledger window: %w", err)
		}
		base.LastLedgerSequence = idx + ledgerWindow
	}
	return nil
}

// ErrTxExpired reports that a submitted transaction was not included in any
// validated ledger before its LastLedgerSequence passed. The transaction
// can never validate after that point.
var ErrTxExpired = errors.New("xrpl: transaction expired unvalidated")

// SubmitAndWait submits a signed blob and polls until the transaction is in
// a validated ledger, its LastLedgerSequence passes, or the context expires.
// Locally rejected transactions (tem/tef class) return immediately with
// their preliminary code.
func (c *Client) SubmitAndWait(ctx context.Context, blob string) (*TxResult, error) {
	raw, err := c.Request(ctx, "submit", map[string]interface{}{
		"tx_blob": blob,
	})
	if err != nil {
		return nil, err
	}
	var result struct {
		EngineResult string `json:"engine_result"`
		TxJSON       struct {
			Hash               string `json:"hash"`
			LastLedgerSequence uint32 `json:"LastLedgerSequence"`
		} `json:"tx_json"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("xrpl: submit: %w", err)
	}

	code := result.EngineResult
	hash := result.TxJSON.Hash
	if strings.HasPrefix(code, "tem") || strings.HasPrefix(code, "tef") {
		return &TxResult{Hash: hash, ResultCode: code, Validated: false}, nil
	}

	return c.awaitValidation(ctx, hash, result.TxJSON.LastLedgerSequence)
}

// awaitValidation polls tx until hash lands in a validated ledger. Once the
// validated ledger index moves past lastLedger the transaction is dead and
// the wait ends with ErrTxExpired; lastLedger zero means the transaction
// carried no expiry and only the context bounds the wait.
func (c *Client) awaitValidation(ctx context.Context, hash string, lastLedger uint32) (*TxResult, error) {
	ticker := time.NewTicker(submitPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("xrpl: awaiting validation of %s: %w", hash, ctx.Err())
		case <-ticker.C:
		}

		final, ok, err := c.txOutcome(ctx, hash)
		if err != nil {
			// txnNotFound while the transaction is in flight is normal.
			var rpcErr *RPCError
			if !errors.As(err, &rpcErr) || rpcErr.Code != "txnNotFound" {
				return nil, err
			}
		}
		if ok {
			return final, nil
		}
		if lastLedger == 0 {
			continue
		}
		idx, err := c.ValidatedLedgerIndex(ctx)
		if err != nil {
			continue
		}
		if idx > lastLedger {
			return nil, fmt.Errorf("%w: %s not included by ledger %d", ErrTxExpired, hash, lastLedger)
		}
	}
}

func (c *Client) txOutcome(ctx context.Context, hash string) (*TxResult, bool, error) {
	raw, err := c.Request(ctx, "tx", map[string]interface{}{
		"transaction": hash,
	})
	if err != nil {
		return nil, false, err
	}
	var result struct {
		Validated bool `json:"validated"`
		Meta      struct {
			TransactionResult string `json:"TransactionResult"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("xrpl: tx: %w", err)
	}
	if !result.Validated {
		return nil, false, nil
	}
	return &TxResult{
		Hash:       hash,
		ResultCode: result.Meta.TransactionResult,
		Validated:  true,
	}, true, nil
}
