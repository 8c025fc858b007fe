package token

import (
	"encoding/hex"
	"strings"
)

// NativeCurrency is the currency code of the ledger's native asset.
const NativeCurrency = "XRP"

// Token identifies an asset on the ledger. An empty Issuer denotes the
// native asset, which has no issuer and never needs a trust line.
type Token struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer,omitempty"`
}

// Native returns the native asset.
func Native() Token {
	return Token{Currency: NativeCurrency}
}

// Issued returns an issued (non-native) asset.
func Issued(currency, issuer string) Token {
	return Token{Currency: currency, Issuer: issuer}
}

// IsNative reports whether the token is the ledger's native asset. A token
// without an issuer is native by definition.
func (t Token) IsNative() bool {
	return t.Issuer == ""
}

// Normalized returns the token with its currency code in canonical form.
func (t Token) Normalized() Token {
	return Token{Currency: NormalizeCurrency(t.Currency), Issuer: t.Issuer}
}

// Key returns the cache/map identity of the token: normalized currency and
// issuer joined by a colon.
func (t Token) Key() string {
	n := t.Normalized()
	if n.Issuer == "" {
		return n.Currency
	}
	return n.Currency + ":" + n.Issuer
}

func (t Token) String() string {
	return t.Key()
}

// Same reports whether two tokens identify the same asset. Currency codes
// are normalized first, so the 40-hex form and the short ASCII form of the
// same currency compare equal.
func Same(a, b Token) bool {
	return a.Key() == b.Key()
}

// NormalizeCurrency canonicalizes a currency code. The ledger accepts two
// encodings of the same currency: a short ASCII code (up to 3 characters)
// and a 160-bit value rendered as 40 hex characters with zero padding. Both
// must map to one canonical form before comparison or cache keying.
func NormalizeCurrency(code string) string {
	code = strings.TrimSpace(code)
	if len(code) == 40 {
		if decoded, ok := decodeHexCurrency(code); ok {
			return decoded
		}
	}
	return strings.ToUpper(code)
}

// decodeHexCurrency turns a 40-hex currency code into its ASCII form when
// the decoded bytes are a zero-padded printable code. Codes that do not
// decode cleanly keep their uppercase hex representation.
func decodeHexCurrency(code string) (string, bool) {
	raw, err := hex.DecodeString(code)
	if err != nil {
		return "", false
	}
	trimmed := strings.TrimRight(string(raw), "\x00")
	if trimmed == "" {
		return "", false
	}
	for _, c := range trimmed {
		if c < 0x21 || c > 0x7e {
			return strings.ToUpper(code), true
		}
	}
	return strings.ToUpper(trimmed), true
}
