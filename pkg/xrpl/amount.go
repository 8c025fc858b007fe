package xrpl

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bearswap/pkg/token"
)

// DropsPerXRP is the number of drops in one unit of the native asset.
const DropsPerXRP = 1_000_000

var dropsPerXRP = decimal.NewFromInt(DropsPerXRP)

// Amount is a ledger amount. On the wire a native amount is a string of
// drops, an issued amount is a {currency, issuer, value} object.
type Amount struct {
	Currency string
	Issuer   string
	Value    decimal.Decimal
}

// NativeAmount builds a native-asset amount from a value in whole XRP.
func NativeAmount(xrp decimal.Decimal) Amount {
	return Amount{Currency: token.NativeCurrency, Value: xrp}
}

// IssuedAmount builds an issued-asset amount.
func IssuedAmount(t token.Token, value decimal.Decimal) Amount {
	return Amount{Currency: t.Currency, Issuer: t.Issuer, Value: value}
}

// IsNative reports whether the amount is in the native asset.
func (a Amount) IsNative() bool {
	return a.Issuer == ""
}

// Token returns the asset the amount is denominated in.
func (a Amount) Token() token.Token {
	if a.IsNative() {
		return token.Native()
	}
	return token.Issued(a.Currency, a.Issuer)
}

// Drops renders a native amount as an integer drops string, truncating
// anything below one drop.
func (a Amount) Drops() string {
	return a.Value.Mul(dropsPerXRP).Truncate(0).String()
}

func (a Amount) String() string {
	if a.IsNative() {
		return a.Value.String() + " " + token.NativeCurrency
	}
	return a.Value.String() + " " + a.Token().Key()
}

// MarshalJSON renders the amount in wire form.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.IsNative() {
		return json.Marshal(a.Drops())
	}
	return json.Marshal(struct {
		Currency string `json:"currency"`
		Issuer   string `json:"issuer"`
		Value    string `json:"value"`
	}{wireCurrency(a.Currency), a.Issuer, a.Value.String()})
}

// wireCurrency renders a currency code in one of the two forms the ledger
// accepts on the wire: a short code of up to 3 characters, or 40 hex
// characters encoding a zero-padded 160-bit value. Longer ASCII codes are
// hex-encoded; a code already in 40-hex form passes through uppercased.
func wireCurrency(code string) string {
	if len(code) <= 3 {
		return code
	}
	if len(code) == 40 {
		if _, err := hex.DecodeString(code); err == nil {
			return strings.ToUpper(code)
		}
	}
	raw := make([]byte, 20)
	copy(raw, code)
	return strings.ToUpper(hex.EncodeToString(raw))
}

// UnmarshalJSON accepts both wire forms: a drops string for native amounts
// and a currency/issuer/value object for issued ones.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var drops string
	if err := json.Unmarshal(data, &drops); err == nil {
		xrp, err := XRPFromDrops(drops)
		if err != nil {
			return err
		}
		*a = NativeAmount(xrp)
		return nil
	}
	var obj struct {
		Currency string `json:"currency"`
		Issuer   string `json:"issuer"`
		Value    string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("xrpl: malformed amount %s: %w", data, err)
	}
	value, err := decimal.NewFromString(obj.Value)
	if err != nil {
		return fmt.Errorf("xrpl: malformed amount value %q: %w", obj.Value, err)
	}
	*a = Amount{Currency: obj.Currency, Issuer: obj.Issuer, Value: value}
	return nil
}

// XRPFromDrops converts a drops string to a value in whole XRP.
func XRPFromDrops(drops string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(drops)
	if err != nil {
		return decimal.Zero, fmt.Errorf("xrpl: malformed drops %q: %w", drops, err)
	}
	return d.Div(dropsPerXRP), nil
}
