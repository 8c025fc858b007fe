package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"bearswap/pkg/config"
	"bearswap/pkg/fee"
	"bearswap/pkg/price"
	"bearswap/pkg/quote"
	"bearswap/pkg/token"
	"bearswap/pkg/xrpl"
)

var (
	port          = flag.Int("port", 8080, "HTTP server port")
	ledgerURL     = flag.String("ledger", "", "Node websocket endpoint (defaults to LEDGER_ENDPOINT)")
	rateLimit     = flag.Int("ratelimit", 0, "Node requests per second (defaults to LEDGER_RATELIMIT)")
	sourceTimeout = flag.Duration("source-timeout", price.DefaultSourceTimeout, "Per-price-source timeout")
)

type server struct {
	builder *quote.Builder
}

func main() {
	config.LoadEnv(".env")
	flag.Parse()

	endpoint := *ledgerURL
	if endpoint == "" {
		endpoint = config.LedgerEndpoint()
	}
	limit := *rateLimit
	if limit == 0 {
		limit = config.RequestLimitPerSecond()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledger, err := xrpl.NewClient(ctx, endpoint, limit)
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
	oracle := price.NewOracle(cache, *sourceTimeout,
		price.NewTickerSource(httpClient, config.TickerURL()),
		price.NewSearchSource(httpClient, config.SearchURL()),
		price.NewBookSource(ledger, decimal.Zero),
		price.NewAMMSource(ledger, decimal.Zero),
	)
	srv := &server{builder: quote.NewBuilder(oracle)}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/health"))
	router.Get("/quote", srv.handleQuote)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: router,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("server shutdown")
		}
		cancel()
	}()

	log.WithFields(log.Fields{"port": *port, "ledger": endpoint}).Info("quote service listening")
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.WithError(err).Fatal("server error")
	}
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	input, err := parseToken(q.Get("input"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("input: %v", err))
		return
	}
	output, err := parseToken(q.Get("output"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("output: %v", err))
		return
	}
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount: not a number")
		return
	}
	slippageBps := 50
	if raw := q.Get("slippageBps"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "slippageBps: not a number")
			return
		}
		slippageBps = parsed
	}
	tier := fee.Tier(q.Get("tier"))

	built, err := s.builder.Build(r.Context(), input, output, amount, slippageBps, tier)
	if err != nil {
		log.WithError(err).Warn("quote failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(built)
}

// parseToken accepts "XRP" or "CUR.issuer".
func parseToken(raw string) (token.Token, error) {
	if raw == "" {
		return token.Token{}, fmt.Errorf("missing")
	}
	if raw == token.NativeCurrency {
		return token.Native(), nil
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] == '.' {
			return token.Issued(raw[:i], raw[i+1:]), nil
		}
	}
	return token.Token{}, fmt.Errorf("want %q or currency.issuer", token.NativeCurrency)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
