// Package balance computes account balances and directional flow totals from
// the transaction log.
//
// Three date-filter modes exist and are deliberately distinct:
//
//   - live balance:   date < today            (exclusive)
//   - as-of balance:  date < end              (exclusive)
//   - windowed fold:  start <= date <= end    (inclusive both ends)
//
// Balance queries apply the Equity sign multiplier and external valuation;
// the windowed fold and the flow totals apply neither. The asymmetry matches
// the observed behavior of the book this service keeps.
package balance

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/date"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/pricing"
)

// RefCurrency is the reference currency external valuations are quoted in.
const RefCurrency = "USD"

// Repo defines the read operations needed by the service.
type Repo interface {
	GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	// TransactionsByAccount returns every transaction referencing the
	// account on either side.
	TransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]ledger.Transaction, error)
	// TransactionsBySide returns transactions referencing the account on
	// the given side only.
	TransactionsBySide(ctx context.Context, accountID uuid.UUID, side ledger.Side) ([]ledger.Transaction, error)
}

// Service exposes balance and flow queries.
type Service interface {
	// Balance returns the live balance: transactions dated strictly before
	// today, type multiplier and valuation applied.
	Balance(ctx context.Context, accountID uuid.UUID) (Result, error)
	// BalanceAsOf returns the balance over transactions dated strictly
	// before end, type multiplier and valuation applied.
	BalanceAsOf(ctx context.Context, accountID uuid.UUID, end date.Date) (Result, error)
	// WindowedNet returns the raw credit/debit fold over the inclusive
	// window [start, end]. No multiplier, no valuation.
	WindowedNet(ctx context.Context, accountID uuid.UUID, start, end date.Date) (decimal.Decimal, error)
	// Outflows totals the account's credit-side transactions over
	// [start, end), excluding initializing postings. The total is negative.
	Outflows(ctx context.Context, accountID uuid.UUID, start, end date.Date) (FlowResult, error)
	// Inflows totals the account's debit-side transactions over
	// [start, end), excluding initializing postings. The total is positive.
	Inflows(ctx context.Context, accountID uuid.UUID, start, end date.Date) (FlowResult, error)
}

// Result carries a computed balance plus the transactions that produced it.
type Result struct {
	AccountID    uuid.UUID
	Balance      decimal.Decimal
	Transactions []ledger.Transaction
}

// FlowResult carries a one-sided flow total.
type FlowResult struct {
	AccountID    uuid.UUID
	Total        decimal.Decimal
	NumTxns      int
	Transactions []ledger.Transaction
}

type service struct {
	repo   Repo
	oracle pricing.Oracle
}

// New constructs the balance service.
func New(repo Repo, oracle pricing.Oracle) Service {
	return &service{repo: repo, oracle: oracle}
}

func (s *service) Balance(ctx context.Context, accountID uuid.UUID) (Result, error) {
	return s.balanceBefore(ctx, accountID, date.Today())
}

func (s *service) BalanceAsOf(ctx context.Context, accountID uuid.UUID, end date.Date) (Result, error) {
	return s.balanceBefore(ctx, accountID, end)
}

// balanceBefore folds transactions dated strictly before cutoff, applying the
// account-type sign multiplier and, for externally priced accounts, the
// current spot price.
func (s *service) balanceBefore(ctx context.Context, accountID uuid.UUID, cutoff date.Date) (Result, error) {
	acc, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return Result{}, err
	}
	txns, err := s.repo.TransactionsByAccount(ctx, accountID)
	if err != nil {
		return Result{}, err
	}
	kept := filter(txns, func(t ledger.Transaction) bool { return t.Date.Before(cutoff) })
	sortByDate(kept)

	mult := decimal.NewFromInt(acc.SignMultiplier())
	bal := fold(kept, accountID, mult)

	if acc.Valuation.Kind == ledger.ValuationExternallyPriced {
		price, err := s.oracle.SpotPrice(ctx, acc.Valuation.Symbol, RefCurrency)
		if err != nil {
			return Result{}, fmt.Errorf("value %s balance: %w", acc.Valuation.Symbol, err)
		}
		bal = bal.Mul(price)
	}
	return Result{AccountID: accountID, Balance: bal, Transactions: kept}, nil
}

func (s *service) WindowedNet(ctx context.Context, accountID uuid.UUID, start, end date.Date) (decimal.Decimal, error) {
	txns, err := s.repo.TransactionsByAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	kept := filter(txns, func(t ledger.Transaction) bool {
		return !t.Date.Before(start) && !t.Date.After(end)
	})
	return fold(kept, accountID, decimal.NewFromInt(1)), nil
}

func (s *service) Outflows(ctx context.Context, accountID uuid.UUID, start, end date.Date) (FlowResult, error) {
	return s.flow(ctx, accountID, ledger.SideCredit, start, end)
}

func (s *service) Inflows(ctx context.Context, accountID uuid.UUID, start, end date.Date) (FlowResult, error) {
	return s.flow(ctx, accountID, ledger.SideDebit, start, end)
}

// flow totals one posting side over [start, end), skipping initializing
// postings. Credits count negative, debits positive; the account-type
// multiplier is never applied here.
func (s *service) flow(ctx context.Context, accountID uuid.UUID, side ledger.Side, start, end date.Date) (FlowResult, error) {
	txns, err := s.repo.TransactionsBySide(ctx, accountID, side)
	if err != nil {
		return FlowResult{}, err
	}
	kept := filter(txns, func(t ledger.Transaction) bool {
		if t.IsInit() {
			return false
		}
		return !t.Date.Before(start) && t.Date.Before(end)
	})
	sortByDate(kept)

	total := decimal.Zero
	for _, t := range kept {
		if t.Amount.IsZero() {
			continue
		}
		if side == ledger.SideCredit {
			total = total.Sub(t.Amount)
		} else {
			total = total.Add(t.Amount)
		}
	}
	return FlowResult{AccountID: accountID, Total: total, NumTxns: len(kept), Transactions: kept}, nil
}

// fold accumulates the signed running total for an account over transactions:
// credit subtracts amount*mult, debit adds amount*mult. Zero amounts
// contribute nothing but are not excluded from the candidate set.
func fold(txns []ledger.Transaction, accountID uuid.UUID, mult decimal.Decimal) decimal.Decimal {
	bal := decimal.Zero
	for _, t := range txns {
		if t.Amount.IsZero() {
			continue
		}
		// Both sides are checked so a self-referential posting, should one
		// ever exist, nets to zero instead of leaving a leftover.
		if t.CreditAccountID == accountID {
			bal = bal.Sub(t.Amount.Mul(mult))
		}
		if t.DebitAccountID == accountID {
			bal = bal.Add(t.Amount.Mul(mult))
		}
	}
	return bal
}

func filter(txns []ledger.Transaction, keep func(ledger.Transaction) bool) []ledger.Transaction {
	out := make([]ledger.Transaction, 0, len(txns))
	for _, t := range txns {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func sortByDate(txns []ledger.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })
}
