// Package journal implements transaction mutations: ledger postings between
// two resolved accounts, edits, and independent batch deletes.
package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/date"
	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/ledger"
)

// Repo defines the read operations needed by the service.
type Repo interface {
	GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (ledger.Transaction, error)
	ListTransactions(ctx context.Context) ([]ledger.Transaction, error)
}

// Writer defines the write operations needed by the service.
type Writer interface {
	SaveTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}

// Input carries the caller-supplied transaction fields.
type Input struct {
	Date            date.Date
	Description     string
	Note            string
	CreditAccountID uuid.UUID
	DebitAccountID  uuid.UUID
	Amount          decimal.Decimal
}

// DeleteFailure reports the id at which a batch delete stopped.
type DeleteFailure struct {
	ID  uuid.UUID
	Err error
}

func (f *DeleteFailure) Error() string {
	return "delete transaction " + f.ID.String() + ": " + f.Err.Error()
}

func (f *DeleteFailure) Unwrap() error { return f.Err }

// Service exposes transaction mutations.
type Service interface {
	Create(ctx context.Context, in Input) (ledger.Transaction, error)
	Edit(ctx context.Context, id uuid.UUID, in Input) (ledger.Transaction, error)
	// DeleteBatch deletes each id independently, in order. It stops at the
	// first failure; prior deletions stay committed. Deleted returns how
	// many ids were removed before the failure, if any.
	DeleteBatch(ctx context.Context, ids []uuid.UUID) (deleted int, err error)
	List(ctx context.Context) ([]ledger.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (ledger.Transaction, error)
}

type service struct {
	repo   Repo
	writer Writer
}

// New constructs the journal service.
func New(repo Repo, writer Writer) Service { return &service{repo: repo, writer: writer} }

func (s *service) validate(ctx context.Context, in Input) error {
	if in.Date.IsZero() {
		return fmt.Errorf("%w: date is required", errs.ErrValidation)
	}
	if in.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", errs.ErrValidation)
	}
	if in.CreditAccountID == in.DebitAccountID {
		return fmt.Errorf("%w: credit and debit accounts must differ", errs.ErrValidation)
	}
	if _, err := s.repo.GetAccount(ctx, in.CreditAccountID); err != nil {
		return fmt.Errorf("credit account %s: %w", in.CreditAccountID, err)
	}
	if _, err := s.repo.GetAccount(ctx, in.DebitAccountID); err != nil {
		return fmt.Errorf("debit account %s: %w", in.DebitAccountID, err)
	}
	return nil
}

func (s *service) Create(ctx context.Context, in Input) (ledger.Transaction, error) {
	if err := s.validate(ctx, in); err != nil {
		return ledger.Transaction{}, err
	}
	t := ledger.Transaction{
		ID:              uuid.New(),
		Date:            in.Date,
		Description:     in.Description,
		Note:            in.Note,
		CreditAccountID: in.CreditAccountID,
		DebitAccountID:  in.DebitAccountID,
		Amount:          in.Amount,
	}
	return s.writer.SaveTransaction(ctx, t)
}

func (s *service) Edit(ctx context.Context, id uuid.UUID, in Input) (ledger.Transaction, error) {
	if err := s.validate(ctx, in); err != nil {
		return ledger.Transaction{}, err
	}
	t, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return ledger.Transaction{}, err
	}
	t.Date = in.Date
	t.Description = in.Description
	t.Note = in.Note
	t.CreditAccountID = in.CreditAccountID
	t.DebitAccountID = in.DebitAccountID
	t.Amount = in.Amount
	return s.writer.SaveTransaction(ctx, t)
}

func (s *service) DeleteBatch(ctx context.Context, ids []uuid.UUID) (int, error) {
	for i, id := range ids {
		if err := s.writer.DeleteTransaction(ctx, id); err != nil {
			return i, &DeleteFailure{ID: id, Err: err}
		}
	}
	return len(ids), nil
}

func (s *service) List(ctx context.Context) ([]ledger.Transaction, error) {
	return s.repo.ListTransactions(ctx)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (ledger.Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}
