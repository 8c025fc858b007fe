package xrpl

import (
	"encoding/hex"
)

// Transaction flags.
const (
	// TfPartialPayment lets a Payment deliver less than Amount, bounded
	// below by DeliverMin and above by SendMax.
	TfPartialPayment uint32 = 0x00020000

	// TfSetNoRipple sets the no-rippling flag on a trust line.
	TfSetNoRipple uint32 = 0x00020000
)

// TxBase carries the fields common to every transaction. Autofill populates
// Sequence, Fee and LastLedgerSequence.
type TxBase struct {
	TransactionType    string `json:"TransactionType"`
	Account            string `json:"Account"`
	Sequence           uint32 `json:"Sequence,omitempty"`
	Fee                string `json:"Fee,omitempty"`
	LastLedgerSequence uint32 `json:"LastLedgerSequence,omitempty"`
	Flags              uint32 `json:"Flags,omitempty"`
	Memos              []Memo `json:"Memos,omitempty"`
}

// Base returns the embedded common fields for autofill and sequencing.
func (b *TxBase) Base() *TxBase { return b }

// Transaction is any ledger transaction with the common field block.
type Transaction interface {
	Base() *TxBase
}

// Payment moves value between accounts, or through the DEX when the sender
// pays itself in a different asset than SendMax.
type Payment struct {
	TxBase
	Destination string  `json:"Destination"`
	Amount      Amount  `json:"Amount"`
	SendMax     *Amount `json:"SendMax,omitempty"`
	DeliverMin  *Amount `json:"DeliverMin,omitempty"`
}

// TrustSet creates or updates a trust line from Account to the issuer of
// LimitAmount.
type TrustSet struct {
	TxBase
	LimitAmount Amount `json:"LimitAmount"`
}

// Memo is one entry of a transaction's memo array.
type Memo struct {
	Memo MemoField `json:"Memo"`
}

// MemoField holds the hex-encoded memo payload.
type MemoField struct {
	MemoData string `json:"MemoData,omitempty"`
	MemoType string `json:"MemoType,omitempty"`
}

// MemoFromString hex-encodes a tag into a memo entry. Off-chain accounting
// tools scan ledger history for these tags, so the encoding must stay
// byte-exact.
func MemoFromString(tag string) Memo {
	return Memo{Memo: MemoField{MemoData: hex.EncodeToString([]byte(tag))}}
}

// MemoTag decodes the memo payload back to its tag string.
func (m Memo) MemoTag() string {
	raw, err := hex.DecodeString(m.Memo.MemoData)
	if err != nil {
		return ""
	}
	return string(raw)
}
