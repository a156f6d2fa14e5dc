package httpapi

import (
	"context"

	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/service/account"
	"github.com/tallyhq/tally/internal/service/balance"
	"github.com/tallyhq/tally/internal/service/income"
	"github.com/tallyhq/tally/internal/service/journal"
)

// Repository composes the read-side operations used by the API. It is a
// convenience union satisfied by both stores.
type Repository interface {
	balance.Repo
	income.Repo
	account.Repo
	journal.Repo
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
}

// Writer composes the write-side operations used by the API.
type Writer interface {
	account.Writer
	journal.Writer
}

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}
