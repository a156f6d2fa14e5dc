package httpapi

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/date"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/service/balance"
	"github.com/tallyhq/tally/internal/service/income"
)

// accountPayload is the create/edit request body for accounts.
type accountPayload struct {
	Type           ledger.AccountType `json:"type"`
	Category       ledger.Category    `json:"category"`
	Name           string             `json:"name"`
	InitialBalance decimal.Decimal    `json:"initial_balance"`
}

type accountResponse struct {
	ID             uuid.UUID          `json:"id"`
	Type           ledger.AccountType `json:"type"`
	Category       ledger.Category    `json:"category,omitempty"`
	Name           string             `json:"name"`
	InitialBalance decimal.Decimal    `json:"initial_balance"`
	InitTxnID      uuid.UUID          `json:"init_txn_id,omitempty"`
	ValuationKind  string             `json:"valuation_kind"`
	ValuationSym   string             `json:"valuation_symbol,omitempty"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Type:           a.Type,
		Category:       a.Category,
		Name:           a.Name,
		InitialBalance: a.InitialBalance,
		InitTxnID:      a.InitTxnID,
		ValuationKind:  string(a.Valuation.Kind),
		ValuationSym:   a.Valuation.Symbol,
	}
}

// transactionPayload is the create/edit request body for transactions.
type transactionPayload struct {
	Date            date.Date       `json:"date"`
	Description     string          `json:"description"`
	Note            string          `json:"note,omitempty"`
	CreditAccountID uuid.UUID       `json:"credit_account_id"`
	DebitAccountID  uuid.UUID       `json:"debit_account_id"`
	Amount          decimal.Decimal `json:"amount"`
}

type transactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	Date            date.Date       `json:"date"`
	Description     string          `json:"description"`
	Note            string          `json:"note,omitempty"`
	CreditAccountID uuid.UUID       `json:"credit_account_id"`
	DebitAccountID  uuid.UUID       `json:"debit_account_id"`
	Amount          decimal.Decimal `json:"amount"`
}

func toTransactionResponse(t ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		Date:            t.Date,
		Description:     t.Description,
		Note:            t.Note,
		CreditAccountID: t.CreditAccountID,
		DebitAccountID:  t.DebitAccountID,
		Amount:          t.Amount,
	}
}

func toTransactionResponses(txns []ledger.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

type balanceResponse struct {
	AccountID    uuid.UUID             `json:"account_id"`
	AsOf         *date.Date            `json:"as_of,omitempty"`
	Balance      decimal.Decimal       `json:"balance"`
	NumTxns      int                   `json:"num_txns"`
	Transactions []transactionResponse `json:"transactions"`
}

func toBalanceResponse(res balance.Result, asOf *date.Date) balanceResponse {
	return balanceResponse{
		AccountID:    res.AccountID,
		AsOf:         asOf,
		Balance:      res.Balance,
		NumTxns:      len(res.Transactions),
		Transactions: toTransactionResponses(res.Transactions),
	}
}

type flowResponse struct {
	AccountID    uuid.UUID             `json:"account_id"`
	Start        date.Date             `json:"start"`
	End          date.Date             `json:"end"`
	Total        decimal.Decimal       `json:"balance"`
	NumTxns      int                   `json:"num_txns"`
	Transactions []transactionResponse `json:"transactions"`
}

func toFlowResponse(res balance.FlowResult, start, end date.Date) flowResponse {
	return flowResponse{
		AccountID:    res.AccountID,
		Start:        start,
		End:          end,
		Total:        res.Total,
		NumTxns:      res.NumTxns,
		Transactions: toTransactionResponses(res.Transactions),
	}
}

type statementLine struct {
	Account accountResponse `json:"account"`
	Total   decimal.Decimal `json:"total"`
}

type statementResponse struct {
	Start     date.Date       `json:"start"`
	End       date.Date       `json:"end"`
	Revenue   []statementLine `json:"revenue"`
	Expense   []statementLine `json:"expense"`
	GainLoss  []statementLine `json:"gain_or_loss"`
	NetIncome decimal.Decimal `json:"net_income"`
}

func toStatementResponse(st income.Statement) statementResponse {
	lines := func(in []income.Line) []statementLine {
		out := make([]statementLine, 0, len(in))
		for _, l := range in {
			out = append(out, statementLine{Account: toAccountResponse(l.Account), Total: l.Total})
		}
		return out
	}
	return statementResponse{
		Start:     st.Start,
		End:       st.End,
		Revenue:   lines(st.Revenue),
		Expense:   lines(st.Expense),
		GainLoss:  lines(st.GainLoss),
		NetIncome: st.NetIncome,
	}
}

type priceResponse struct {
	Symbol   string          `json:"symbol"`
	Currency string          `json:"currency"`
	Price    decimal.Decimal `json:"price"`
}

type deleteTransactionsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type deleteTransactionsResponse struct {
	Deleted  int        `json:"deleted"`
	FailedID *uuid.UUID `json:"failed_id,omitempty"`
	Error    string     `json:"error,omitempty"`
}
