package postgres

// Package postgres provides a pgx-backed storage implementation satisfying
// the repository and writer interfaces used by the services.
//
// It is intentionally small and explicit: mapping between domain entities and
// SQL rows, and the few statements/transactions the engine needs. Schema
// migrations live under db/migrations.

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/date"
	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/ledger"
)

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

const accountCols = `id, type, category, name, initial_balance, init_txn_id, valuation_kind, valuation_symbol`

const txnCols = `id, date, description, note, credit_account_id, debit_account_id, amount`

func scanAccount(row pgx.Row) (ledger.Account, error) {
	var a ledger.Account
	var initTxn *uuid.UUID
	if err := row.Scan(&a.ID, &a.Type, &a.Category, &a.Name, &a.InitialBalance, &initTxn, &a.Valuation.Kind, &a.Valuation.Symbol); err != nil {
		return ledger.Account{}, err
	}
	if initTxn != nil {
		a.InitTxnID = *initTxn
	}
	return a, nil
}

func scanTxn(row pgx.Row) (ledger.Transaction, error) {
	var t ledger.Transaction
	var day time.Time
	if err := row.Scan(&t.ID, &day, &t.Description, &t.Note, &t.CreditAccountID, &t.DebitAccountID, &t.Amount); err != nil {
		return ledger.Transaction{}, err
	}
	t.Date = date.FromTime(day)
	return t, nil
}

// --- Account reads ---

// GetAccount fetches a single account by id.
func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	row := s.pool.QueryRow(ctx, `select `+accountCols+` from accounts where id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, err
}

// ListAccounts returns all accounts.
func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `select `+accountCols+` from accounts order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// AccountsByType returns accounts of the given type.
func (s *Store) AccountsByType(ctx context.Context, t ledger.AccountType) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `select `+accountCols+` from accounts where type = $1 order by name`, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// AccountsByName returns accounts with an exact name match.
func (s *Store) AccountsByName(ctx context.Context, name string) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `select `+accountCols+` from accounts where name = $1`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows pgx.Rows) ([]ledger.Account, error) {
	out := make([]ledger.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Transaction reads ---

// GetTransaction fetches a single transaction by id.
func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (ledger.Transaction, error) {
	row := s.pool.QueryRow(ctx, `select `+txnCols+` from transactions where id = $1`, id)
	t, err := scanTxn(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	return t, err
}

// ListTransactions returns all transactions ascending by date.
func (s *Store) ListTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	rows, err := s.pool.Query(ctx, `select `+txnCols+` from transactions order by date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxns(rows)
}

// TransactionsByAccount returns transactions referencing the account on
// either side.
func (s *Store) TransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]ledger.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		select `+txnCols+` from transactions
		where credit_account_id = $1 or debit_account_id = $1
		order by date, id
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxns(rows)
}

// TransactionsBySide returns transactions referencing the account on one side.
func (s *Store) TransactionsBySide(ctx context.Context, accountID uuid.UUID, side ledger.Side) ([]ledger.Transaction, error) {
	col := "credit_account_id"
	if side == ledger.SideDebit {
		col = "debit_account_id"
	}
	rows, err := s.pool.Query(ctx, `select `+txnCols+` from transactions where `+col+` = $1 order by date, id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTxns(rows)
}

func collectTxns(rows pgx.Rows) ([]ledger.Transaction, error) {
	out := make([]ledger.Transaction, 0)
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// --- Writes ---

const upsertAccount = `
	insert into accounts (id, type, category, name, initial_balance, init_txn_id, valuation_kind, valuation_symbol)
	values ($1,$2,$3,$4,$5,$6,$7,$8)
	on conflict (id) do update set
		type = excluded.type,
		category = excluded.category,
		name = excluded.name,
		initial_balance = excluded.initial_balance,
		init_txn_id = excluded.init_txn_id,
		valuation_kind = excluded.valuation_kind,
		valuation_symbol = excluded.valuation_symbol
`

const upsertTxn = `
	insert into transactions (id, date, description, note, credit_account_id, debit_account_id, amount)
	values ($1,$2,$3,$4,$5,$6,$7)
	on conflict (id) do update set
		date = excluded.date,
		description = excluded.description,
		note = excluded.note,
		credit_account_id = excluded.credit_account_id,
		debit_account_id = excluded.debit_account_id,
		amount = excluded.amount
`

func accountArgs(a ledger.Account) []any {
	var initTxn *uuid.UUID
	if a.InitTxnID != uuid.Nil {
		id := a.InitTxnID
		initTxn = &id
	}
	return []any{a.ID, a.Type, a.Category, a.Name, a.InitialBalance, initTxn, a.Valuation.Kind, a.Valuation.Symbol}
}

func txnArgs(t ledger.Transaction) []any {
	return []any{t.ID, t.Date.Time(), t.Description, t.Note, t.CreditAccountID, t.DebitAccountID, t.Amount}
}

// SaveAccount inserts or updates an account row.
func (s *Store) SaveAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	if _, err := s.pool.Exec(ctx, upsertAccount, accountArgs(a)...); err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

// SaveTransaction inserts or updates a transaction row.
func (s *Store) SaveTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	if _, err := s.pool.Exec(ctx, upsertTxn, txnArgs(t)...); err != nil {
		return ledger.Transaction{}, err
	}
	return t, nil
}

// CreateAccountWithInit writes the account and its initializing transaction
// in one database transaction. A crash between the two statements can no
// longer leave a half-initialized account.
func (s *Store) CreateAccountWithInit(ctx context.Context, a ledger.Account, init ledger.Transaction) (ledger.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ledger.Account{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, upsertTxn, txnArgs(init)...); err != nil {
		return ledger.Account{}, err
	}
	if _, err := tx.Exec(ctx, upsertAccount, accountArgs(a)...); err != nil {
		return ledger.Account{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

// DeleteAccount removes an account row.
func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `delete from accounts where id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a transaction row.
func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `delete from transactions where id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SeedDev inserts the root INIT account plus a small asset/revenue pair for
// quick local testing.
func (s *Store) SeedDev(ctx context.Context) ([]ledger.Account, error) {
	root := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeEquity, Name: ledger.RootAccountName, Valuation: ledger.Valuation{Kind: ledger.ValuationNone}}
	checking := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeAsset, Name: "Checking", InitialBalance: decimal.NewFromInt(100), Valuation: ledger.Valuation{Kind: ledger.ValuationNone}}
	salary := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeEquity, Category: ledger.CategoryRevenue, Name: "Salary", Valuation: ledger.Valuation{Kind: ledger.ValuationNone}}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	accs := []ledger.Account{root, checking, salary}
	for _, a := range accs {
		if _, err := tx.Exec(ctx, upsertAccount, accountArgs(a)...); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return accs, nil
}
