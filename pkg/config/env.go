package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// DefaultTreasury receives all non-referred protocol fees and the treasury
// half of referred ones. Fixed at the configuration level.
const DefaultTreasury = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"

// LoadEnv loads environment variables from a .env file if one exists. The
// file is optional; real environment variables win.
func LoadEnv(filename string) {
	if err := godotenv.Load(filename); err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warnf("could not load %s", filename)
		}
	}
}

// LedgerEndpoint returns the node websocket endpoint.
func LedgerEndpoint() string {
	return getOr("LEDGER_ENDPOINT", "wss://xrplcluster.com")
}

// TreasuryAddress returns the fee treasury account.
func TreasuryAddress() string {
	return getOr("TREASURY_ADDRESS", DefaultTreasury)
}

// TickerURL returns the market-data ticker API base URL.
func TickerURL() string {
	return getOr("TICKER_URL", "https://api.onthedex.live/public/v1")
}

// SearchURL returns the token-search API base URL.
func SearchURL() string {
	return getOr("SEARCH_URL", "https://api.xrpldata.com/v1")
}

// ReferralURL returns the referral registration API base URL.
func ReferralURL() string {
	return getOr("REFERRAL_URL", "https://api.bearswap.io/v1")
}

// RequestLimitPerSecond returns the per-connection node request budget.
func RequestLimitPerSecond() int {
	raw := getOr("LEDGER_RATELIMIT", "20")
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 20
	}
	return n
}

func getOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
