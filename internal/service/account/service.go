// Package account implements account mutations. Every account is created with
// an initializing transaction posting its opening balance against the root
// INIT account, and the pair is written atomically through the store.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/ledger"
)

// Repo defines the read operations needed by the service.
type Repo interface {
	GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	AccountsByName(ctx context.Context, name string) ([]ledger.Account, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (ledger.Transaction, error)
	TransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]ledger.Transaction, error)
}

// Writer defines the write operations needed by the service.
type Writer interface {
	// CreateAccountWithInit persists the account and its initializing
	// transaction as a single atomic write.
	CreateAccountWithInit(ctx context.Context, a ledger.Account, init ledger.Transaction) (ledger.Account, error)
	SaveAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	SaveTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}

// Input carries the caller-supplied account fields.
type Input struct {
	Type           ledger.AccountType
	Category       ledger.Category
	Name           string
	InitialBalance decimal.Decimal
}

// Service exposes account mutations.
type Service interface {
	Create(ctx context.Context, in Input) (ledger.Account, error)
	Edit(ctx context.Context, id uuid.UUID, in Input) (ledger.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo   Repo
	writer Writer
}

// New constructs the account service.
func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

// rootAccount resolves the distinguished INIT account. The store must contain
// exactly one; the engine never creates it.
func (s *service) rootAccount(ctx context.Context) (ledger.Account, error) {
	roots, err := s.repo.AccountsByName(ctx, ledger.RootAccountName)
	if err != nil {
		return ledger.Account{}, err
	}
	switch len(roots) {
	case 1:
		return roots[0], nil
	case 0:
		return ledger.Account{}, fmt.Errorf("%w: no %s account", errs.ErrPrecondition, ledger.RootAccountName)
	default:
		return ledger.Account{}, fmt.Errorf("%w: %d %s accounts", errs.ErrPrecondition, len(roots), ledger.RootAccountName)
	}
}

// initSides returns the credit/debit assignment for an initializing
// transaction: an Asset account is debited from the root, anything else is
// credited toward it.
func initSides(t ledger.AccountType, accountID, rootID uuid.UUID) (credit, debit uuid.UUID) {
	if t == ledger.AccountTypeAsset {
		return rootID, accountID
	}
	return accountID, rootID
}

func validate(in Input) error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	if in.InitialBalance.IsNegative() {
		return fmt.Errorf("%w: initial balance must not be negative", errs.ErrValidation)
	}
	return nil
}

func (s *service) Create(ctx context.Context, in Input) (ledger.Account, error) {
	if err := validate(in); err != nil {
		return ledger.Account{}, err
	}
	root, err := s.rootAccount(ctx)
	if err != nil {
		return ledger.Account{}, err
	}

	acc := ledger.Account{
		ID:             uuid.New(),
		Type:           in.Type,
		Category:       in.Category,
		Name:           in.Name,
		InitialBalance: in.InitialBalance,
		Valuation:      ledger.ResolveValuation(in.Name),
	}
	credit, debit := initSides(acc.Type, acc.ID, root.ID)
	init := ledger.Transaction{
		ID:              uuid.New(),
		Date:            ledger.InitDate,
		Description:     ledger.InitDescription,
		CreditAccountID: credit,
		DebitAccountID:  debit,
		Amount:          in.InitialBalance,
	}
	acc.InitTxnID = init.ID
	return s.writer.CreateAccountWithInit(ctx, acc, init)
}

// Edit rewrites the account's initializing transaction in place with the
// polarity rule for the (possibly changed) type, then overwrites the account
// fields. No new init transaction is created.
func (s *service) Edit(ctx context.Context, id uuid.UUID, in Input) (ledger.Account, error) {
	if err := validate(in); err != nil {
		return ledger.Account{}, err
	}
	root, err := s.rootAccount(ctx)
	if err != nil {
		return ledger.Account{}, err
	}
	acc, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return ledger.Account{}, err
	}

	init, err := s.repo.GetTransaction(ctx, acc.InitTxnID)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("init transaction %s: %w", acc.InitTxnID, err)
	}
	init.Date = ledger.InitDate
	init.Description = ledger.InitDescription
	init.CreditAccountID, init.DebitAccountID = initSides(in.Type, id, root.ID)
	init.Amount = in.InitialBalance
	if _, err := s.writer.SaveTransaction(ctx, init); err != nil {
		return ledger.Account{}, err
	}

	acc.Type = in.Type
	acc.Category = in.Category
	acc.Name = in.Name
	acc.InitialBalance = in.InitialBalance
	acc.Valuation = ledger.ResolveValuation(in.Name)
	return s.writer.SaveAccount(ctx, acc)
}

// Delete removes the account and its initializing transaction. It refuses
// while any other transaction still references the account, so the log never
// holds dangling account ids.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	acc, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	txns, err := s.repo.TransactionsByAccount(ctx, id)
	if err != nil {
		return err
	}
	var refs int
	for _, t := range txns {
		if t.ID != acc.InitTxnID {
			refs++
		}
	}
	if refs > 0 {
		return fmt.Errorf("%w: %d transactions still reference account %s", errs.ErrConflict, refs, id)
	}
	if acc.InitTxnID != uuid.Nil {
		// The init transaction may already be gone if the root was edited
		// by hand; a missing row is not an error here.
		if err := s.writer.DeleteTransaction(ctx, acc.InitTxnID); err != nil && !errors.Is(err, errs.ErrNotFound) {
			return err
		}
	}
	return s.writer.DeleteAccount(ctx, id)
}
