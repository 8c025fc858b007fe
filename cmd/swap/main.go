package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bearswap/pkg/config"
	"bearswap/pkg/fee"
	"bearswap/pkg/price"
	"bearswap/pkg/quote"
	"bearswap/pkg/swap"
	"bearswap/pkg/token"
	"bearswap/pkg/xrpl"
)

var (
	inputAsset  = flag.String("input", "", "Input asset: XRP or currency.issuer (required)")
	outputAsset = flag.String("output", "", "Output asset: XRP or currency.issuer (required)")
	amount      = flag.String("amount", "", "Input amount in whole units (required)")
	slippageBps = flag.Int("slippage", 50, "Slippage tolerance in basis points")
	tierName    = flag.String("tier", string(fee.TierStandard), "Fee tier: standard, discounted or premium")
	account     = flag.String("account", "", "Trading account (optional, prints the unsigned plan)")
	ledgerURL   = flag.String("ledger", "", "Node websocket endpoint (defaults to LEDGER_ENDPOINT)")
)

// The CLI quotes a swap and, when an account is given, prints the unsigned
// transaction plan for external signing. Key custody stays outside this
// tool.
func main() {
	config.LoadEnv(".env")
	flag.Parse()

	if *inputAsset == "" || *outputAsset == "" || *amount == "" {
		flag.Usage()
		os.Exit(2)
	}
	input, err := parseAsset(*inputAsset)
	if err != nil {
		log.WithError(err).Fatal("bad -input")
	}
	output, err := parseAsset(*outputAsset)
	if err != nil {
		log.WithError(err).Fatal("bad -output")
	}
	amountIn, err := decimal.NewFromString(*amount)
	if err != nil {
		log.WithError(err).Fatal("bad -amount")
	}

	endpoint := *ledgerURL
	if endpoint == "" {
		endpoint = config.LedgerEndpoint()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	ledger, err := xrpl.NewClient(ctx, endpoint, config.RequestLimitPerSecond())
	if err != nil {
		log.WithError(err).Fatal("connect to ledger")
	}
	defer ledger.Close()

	cache, err := price.NewCache(price.DefaultCacheTTL)
	if err != nil {
		log.WithError(err).Fatal("create price cache")
	}
	defer cache.Close()

	httpClient := &http.Client{Timeout: 5 * time.Second}
	oracle := price.NewOracle(cache, price.DefaultSourceTimeout,
		price.NewTickerSource(httpClient, config.TickerURL()),
		price.NewSearchSource(httpClient, config.SearchURL()),
		price.NewBookSource(ledger, decimal.Zero),
		price.NewAMMSource(ledger, decimal.Zero),
	)

	builder := quote.NewBuilder(oracle)
	q, err := builder.Build(ctx, input, output, amountIn, *slippageBps, fee.Tier(*tierName))
	if err != nil {
		log.WithError(err).Fatal("quote failed")
	}
	printJSON("quote", q)

	if *account == "" {
		return
	}

	referrals := swap.NewCachedLookup(swap.NewHTTPLookup(httpClient, config.ReferralURL()))
	referrer, err := referrals.ReferrerFor(ctx, *account)
	if err != nil {
		log.WithError(err).Warn("referral lookup failed, proceeding unreferred")
		referrer = ""
	}
	if referrer != "" && !xrpl.IsValidAddress(referrer) {
		referrer = ""
	}

	plan := swap.BuildPlan(q, *account, swap.NewFeePlan(q.FeeAmount, config.TreasuryAddress(), referrer))
	if err := ledger.Autofill(ctx, plan.Swap); err != nil {
		log.WithError(err).Fatal("autofill failed")
	}
	plan.ChainSequences()
	printJSON("unsigned swap transaction", plan.Swap)
	for i, feeTx := range plan.Fees {
		printJSON(fmt.Sprintf("unsigned fee transaction %d", i+1), feeTx)
	}
}

func parseAsset(raw string) (token.Token, error) {
	if raw == token.NativeCurrency {
		return token.Native(), nil
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] == '.' {
			return token.Issued(raw[:i], raw[i+1:]), nil
		}
	}
	return token.Token{}, &parseError{raw}
}

type parseError struct{ raw string }

func (e *parseError) Error() string {
	return "asset " + e.raw + ": want XRP or currency.issuer"
}

func printJSON(label string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.WithError(err).Fatal("encode output")
	}
	log.Info(label)
	os.Stdout.Write(append(data, '\n'))
}
