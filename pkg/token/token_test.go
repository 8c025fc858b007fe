package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeCurrency_HexForm(t *testing.T) {
	// "BEAR" zero-padded to 160 bits.
	hex := "4245415200000000000000000000000000000000"
	require.Equal(t, "BEAR", NormalizeCurrency(hex))
}

func TestNormalizeCurrency_ShortCode(t *testing.T) {
	require.Equal(t, "USD", NormalizeCurrency("usd"))
	require.Equal(t, "USD", NormalizeCurrency("USD"))
}

func TestNormalizeCurrency_NonPrintableHexKeepsHex(t *testing.T) {
	hex := "0102030000000000000000000000000000000000"
	require.Equal(t, "0102030000000000000000000000000000000000", NormalizeCurrency(hex))
}

func TestSame_AcrossEncodings(t *testing.T) {
	issuer := "rIssuerAccount"
	a := Issued("4245415200000000000000000000000000000000", issuer)
	b := Issued("BEAR", issuer)
	require.True(t, Same(a, b))
	require.Equal(t, a.Key(), b.Key())
}

func TestSame_DifferentIssuers(t *testing.T) {
	a := Issued("BEAR", "rIssuerOne")
	b := Issued("BEAR", "rIssuerTwo")
	require.False(t, Same(a, b))
}

func TestNative(t *testing.T) {
	n := Native()
	require.True(t, n.IsNative())
	require.False(t, Issued("BEAR", "rIssuer").IsNative())
	require.Equal(t, "XRP", n.Key())
}
