// Package httpapi wires the HTTP surface of the ledger service. Handlers stay
// thin and delegate all accounting rules to the service layer.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tallyhq/tally/internal/pricing"
	"github.com/tallyhq/tally/internal/service/account"
	"github.com/tallyhq/tally/internal/service/balance"
	"github.com/tallyhq/tally/internal/service/income"
	"github.com/tallyhq/tally/internal/service/journal"
)

// Server wires handlers and middleware using Chi.
type Server struct {
	repo       Repository
	balanceSvc balance.Service
	incomeSvc  income.Service
	accountSvc account.Service
	journalSvc journal.Service
	oracle     pricing.Oracle
	log        *slog.Logger
	rt         *chi.Mux
}

// New constructs the HTTP server with routes and middleware. The logger is
// used by request/response logging and panic recovery.
func New(repo Repository, writer Writer, oracle pricing.Oracle, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	balanceSvc := balance.New(repo, oracle)
	s := &Server{
		repo:       repo,
		balanceSvc: balanceSvc,
		incomeSvc:  income.New(repo, balanceSvc, oracle),
		accountSvc: account.New(repo, writer),
		journalSvc: journal.New(repo, writer),
		oracle:     oracle,
		log:        logger,
		rt:         r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
	// Accounts
	s.rt.Get("/v1/accounts", s.listAccounts)
	s.rt.Post("/v1/accounts", s.postAccount)
	s.rt.Get("/v1/accounts/{id}", s.getAccount)
	s.rt.Put("/v1/accounts/{id}", s.putAccount)
	s.rt.Delete("/v1/accounts/{id}", s.deleteAccount)
	// Balances and flows
	s.rt.Get("/v1/accounts/{id}/balance", s.getAccountBalance)
	s.rt.Get("/v1/accounts/{id}/outflows", s.getAccountOutflows)
	s.rt.Get("/v1/accounts/{id}/inflows", s.getAccountInflows)
	// Income statement
	s.rt.Get("/v1/income-statement", s.getIncomeStatement)
	// Spot price passthrough
	s.rt.Get("/v1/price", s.getPrice)
	// Transactions
	s.rt.Get("/v1/transactions", s.listTransactions)
	s.rt.Post("/v1/transactions", s.postTransaction)
	s.rt.Put("/v1/transactions/{id}", s.putTransaction)
	s.rt.Post("/v1/transactions/delete", s.deleteTransactions)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
