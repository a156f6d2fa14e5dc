package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/date"
	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/storage/memory"
)

func setup(t *testing.T) (*memory.Store, Service, ledger.Account, ledger.Account) {
	t.Helper()
	store := memory.New()
	checking := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeAsset, Name: "Checking"}
	salary := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeEquity, Category: ledger.CategoryRevenue, Name: "Salary"}
	store.SeedAccount(checking)
	store.SeedAccount(salary)
	return store, New(store, store), checking, salary
}

func validInput(credit, debit uuid.UUID) Input {
	return Input{
		Date:            date.MustParse("2024-04-01"),
		Description:     "payday",
		CreditAccountID: credit,
		DebitAccountID:  debit,
		Amount:          decimal.NewFromInt(500),
	}
}

func TestCreate(t *testing.T) {
	store, svc, checking, salary := setup(t)

	got, err := svc.Create(context.Background(), validInput(salary.ID, checking.ID))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, "payday", got.Description)

	stored, err := store.GetTransaction(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestCreate_Validation(t *testing.T) {
	_, svc, checking, salary := setup(t)
	ctx := context.Background()

	in := validInput(salary.ID, checking.ID)
	in.Date = date.Date{}
	_, err := svc.Create(ctx, in)
	assert.True(t, errors.Is(err, errs.ErrValidation), "zero date: %v", err)

	in = validInput(salary.ID, checking.ID)
	in.Amount = decimal.NewFromInt(-5)
	_, err = svc.Create(ctx, in)
	assert.True(t, errors.Is(err, errs.ErrValidation), "negative amount: %v", err)

	in = validInput(checking.ID, checking.ID)
	_, err = svc.Create(ctx, in)
	assert.True(t, errors.Is(err, errs.ErrValidation), "same account: %v", err)

	in = validInput(uuid.New(), checking.ID)
	_, err = svc.Create(ctx, in)
	assert.True(t, errors.Is(err, errs.ErrNotFound), "unknown credit account: %v", err)
}

func TestCreate_ZeroAmountAllowed(t *testing.T) {
	_, svc, checking, salary := setup(t)

	in := validInput(salary.ID, checking.ID)
	in.Amount = decimal.Zero
	_, err := svc.Create(context.Background(), in)
	assert.NoError(t, err)
}

func TestEdit(t *testing.T) {
	store, svc, checking, salary := setup(t)
	ctx := context.Background()

	orig, err := svc.Create(ctx, validInput(salary.ID, checking.ID))
	require.NoError(t, err)

	in := validInput(checking.ID, salary.ID)
	in.Description = "correction"
	in.Amount = decimal.NewFromInt(450)
	got, err := svc.Edit(ctx, orig.ID, in)
	require.NoError(t, err)
	assert.Equal(t, orig.ID, got.ID)
	assert.Equal(t, "correction", got.Description)
	assert.Equal(t, checking.ID, got.CreditAccountID)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(450)))

	all, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEdit_UnknownTransaction(t *testing.T) {
	_, svc, checking, salary := setup(t)

	_, err := svc.Edit(context.Background(), uuid.New(), validInput(salary.ID, checking.ID))
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestDeleteBatch(t *testing.T) {
	store, svc, checking, salary := setup(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, validInput(salary.ID, checking.ID))
	require.NoError(t, err)
	b, err := svc.Create(ctx, validInput(salary.ID, checking.ID))
	require.NoError(t, err)

	deleted, err := svc.DeleteBatch(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	all, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeleteBatch_StopsAtFirstFailure(t *testing.T) {
	store, svc, checking, salary := setup(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, validInput(salary.ID, checking.ID))
	require.NoError(t, err)
	b, err := svc.Create(ctx, validInput(salary.ID, checking.ID))
	require.NoError(t, err)
	missing := uuid.New()

	deleted, err := svc.DeleteBatch(ctx, []uuid.UUID{a.ID, missing, b.ID})
	require.Error(t, err)
	assert.Equal(t, 1, deleted)

	var fail *DeleteFailure
	require.True(t, errors.As(err, &fail))
	assert.Equal(t, missing, fail.ID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	// a is gone, b survived the aborted batch.
	_, err = store.GetTransaction(ctx, a.ID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	_, err = store.GetTransaction(ctx, b.ID)
	assert.NoError(t, err)
}

func TestDeleteBatch_DoubleDelete(t *testing.T) {
	_, svc, checking, salary := setup(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, validInput(salary.ID, checking.ID))
	require.NoError(t, err)

	deleted, err := svc.DeleteBatch(ctx, []uuid.UUID{a.ID, a.ID})
	require.Error(t, err)
	assert.Equal(t, 1, deleted)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}
