// Package income builds income statements over a calendar-date period.
package income

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/date"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/pricing"
	"github.com/tallyhq/tally/internal/service/balance"
)

// Repo defines the read operations needed by the service.
type Repo interface {
	AccountsByType(ctx context.Context, t ledger.AccountType) ([]ledger.Account, error)
}

// Service builds income statements.
type Service interface {
	// Statement classifies Equity accounts into revenue, expense and
	// gain-or-loss lines over the inclusive period [start, end] and totals
	// them into net income.
	Statement(ctx context.Context, start, end date.Date) (Statement, error)
}

// Line is one account's contribution to a statement section.
type Line struct {
	Account ledger.Account
	Total   decimal.Decimal
}

// Statement is an itemized income statement for a period.
type Statement struct {
	Start     date.Date
	End       date.Date
	Revenue   []Line
	Expense   []Line
	GainLoss  []Line
	NetIncome decimal.Decimal
}

type service struct {
	repo    Repo
	balance balance.Service
	oracle  pricing.Oracle
}

// New constructs the income service. The balance service supplies the
// windowed fold; the oracle values externally priced gain accounts.
func New(repo Repo, bal balance.Service, oracle pricing.Oracle) Service {
	return &service{repo: repo, balance: bal, oracle: oracle}
}

func (s *service) Statement(ctx context.Context, start, end date.Date) (Statement, error) {
	accounts, err := s.repo.AccountsByType(ctx, ledger.AccountTypeEquity)
	if err != nil {
		return Statement{}, err
	}

	st := Statement{Start: start, End: end}
	for _, acc := range accounts {
		// Raw fold over the inclusive window; the Equity multiplier is
		// deliberately not applied here. Classification handles signs.
		bal, err := s.balance.WindowedNet(ctx, acc.ID, start, end)
		if err != nil {
			return Statement{}, err
		}
		switch acc.Category {
		case ledger.CategoryRevenue:
			st.Revenue = append(st.Revenue, Line{Account: acc, Total: bal.Neg()})
		case ledger.CategoryExpense:
			st.Expense = append(st.Expense, Line{Account: acc, Total: bal})
		case ledger.CategoryGainLoss:
			total := bal.Neg()
			if acc.Valuation.Kind == ledger.ValuationExternallyPriced {
				price, err := s.oracle.SpotPrice(ctx, acc.Valuation.Symbol, balance.RefCurrency)
				if err != nil {
					return Statement{}, fmt.Errorf("value %s gains: %w", acc.Valuation.Symbol, err)
				}
				total = total.Mul(price)
			}
			st.GainLoss = append(st.GainLoss, Line{Account: acc, Total: total})
		default:
			// Equity accounts outside the three categories are dropped.
		}
	}

	st.NetIncome = sum(st.Revenue).Add(sum(st.GainLoss)).Sub(sum(st.Expense))
	return st, nil
}

func sum(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total)
	}
	return total
}
