package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/httpapi"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/pricing/coingecko"
	"github.com/tallyhq/tally/internal/storage/memory"
	pgstore "github.com/tallyhq/tally/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLoggerFromEnv()
	slog.SetDefault(logger)

	oracle := coingecko.New(os.Getenv("COINGECKO_API_KEY"), os.Getenv("COINGECKO_BASE_URL"))

	var srvMux http.Handler
	var closeFn func()

	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		pg, err := pgstore.Open(ctx, dsn)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = func() { pg.Close() }
		if devSeedEnabled() {
			accs, err := pg.SeedDev(ctx)
			if err != nil {
				logger.Error("dev seed failed", "err", err)
			} else {
				logDevSeed(logger, "postgres", accs)
			}
		}
		srvMux = httpapi.New(pg, pg, oracle, logger).Handler()
		logger.Info("storage backend: postgres")
	} else {
		store := memory.New()
		accs := seedMemory(store)
		logDevSeed(logger, "memory", accs)
		srvMux = httpapi.New(store, store, oracle, logger).Handler()
		logger.Info("storage backend: memory")
	}

	addr := ":8080"
	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		addr = ":" + p
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           srvMux,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ledger service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// seedMemory populates the in-memory store with the root INIT account and a
// small asset/revenue pair for local poking.
func seedMemory(store *memory.Store) []ledger.Account {
	root := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeEquity, Name: ledger.RootAccountName, Valuation: ledger.Valuation{Kind: ledger.ValuationNone}}
	checking := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeAsset, Name: "Checking", InitialBalance: decimal.NewFromInt(100), Valuation: ledger.Valuation{Kind: ledger.ValuationNone}}
	salary := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeEquity, Category: ledger.CategoryRevenue, Name: "Salary", Valuation: ledger.Valuation{Kind: ledger.ValuationNone}}

	init := ledger.Transaction{
		ID:              uuid.New(),
		Date:            ledger.InitDate,
		Description:     ledger.InitDescription,
		CreditAccountID: root.ID,
		DebitAccountID:  checking.ID,
		Amount:          checking.InitialBalance,
	}
	checking.InitTxnID = init.ID

	store.SeedAccount(root)
	store.SeedAccount(checking)
	store.SeedAccount(salary)
	store.SeedTransaction(init)
	return []ledger.Account{root, checking, salary}
}

// logDevSeed emits the seeded ids so they can be copy/pasted into requests.
func logDevSeed(l *slog.Logger, backend string, accs []ledger.Account) {
	ids := map[string]string{}
	for _, a := range accs {
		ids[strings.ToLower(a.Name)+"_account_id"] = a.ID.String()
	}
	l.Info("DEV seed ("+backend+")", "ids", ids)
	fmt.Println("==================== DEV SEED ====================")
	for _, a := range accs {
		fmt.Printf("%s_account_id: %s\n", strings.ToLower(a.Name), a.ID.String())
	}
	fmt.Println("==================================================")
}

func devSeedEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("DEV_SEED")))
	return v == "1" || v == "true" || v == "yes"
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLoggerFromEnv() *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
