package trustline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"bearswap/pkg/token"
	"bearswap/pkg/xrpl"
)

type fakeLineReader struct {
	lines []xrpl.TrustLine
	calls int
}

func (f *fakeLineReader) AccountLines(ctx context.Context, account string) ([]xrpl.TrustLine, error) {
	f.calls++
	return f.lines, nil
}

func TestEnsure_NativeNeedsNothing(t *testing.T) {
	reader := &fakeLineReader{}
	present, tx, err := New(reader).Ensure(context.Background(), "rTrader", token.Native())
	require.NoError(t, err)
	require.True(t, present)
	require.Nil(t, tx)
	require.Equal(t, 0, reader.calls)
}

func TestEnsure_ExistingLine(t *testing.T) {
	reader := &fakeLineReader{lines: []xrpl.TrustLine{
		{Account: "rIssuer", Currency: "BEAR", Limit: "1000000"},
	}}
	present, tx, err := New(reader).Ensure(context.Background(), "rTrader", token.Issued("BEAR", "rIssuer"))
	require.NoError(t, err)
	require.True(t, present)
	require.Nil(t, tx)
}

func TestEnsure_MatchesHexEncodedLine(t *testing.T) {
	reader := &fakeLineReader{lines: []xrpl.TrustLine{
		{Account: "rIssuer", Currency: "4245415200000000000000000000000000000000"},
	}}
	present, _, err := New(reader).Ensure(context.Background(), "rTrader", token.Issued("BEAR", "rIssuer"))
	require.NoError(t, err)
	require.True(t, present)
}

func TestEnsure_MissingLineBuildsTrustSet(t *testing.T) {
	reader := &fakeLineReader{lines: []xrpl.TrustLine{
		{Account: "rOtherIssuer", Currency: "BEAR"},
	}}
	bear := token.Issued("BEAR", "rIssuer")

	present, tx, err := New(reader).Ensure(context.Background(), "rTrader", bear)
	require.NoError(t, err)
	require.False(t, present)
	require.NotNil(t, tx)
	require.Equal(t, "TrustSet", tx.TransactionType)
	require.Equal(t, "rTrader", tx.Account)
	require.Equal(t, xrpl.TfSetNoRipple, tx.Flags)
	require.Equal(t, "BEAR", tx.LimitAmount.Currency)
	require.Equal(t, "rIssuer", tx.LimitAmount.Issuer)
	require.True(t, tx.LimitAmount.Value.IsPositive())
}
