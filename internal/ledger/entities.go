package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/date"
)

// AccountType classifies an account for balance sign purposes. Only Asset and
// Equity carry meaning to the engine; other values pass through uninterpreted.
type AccountType string

const (
	// AccountTypeAsset increases on the debit side.
	AccountTypeAsset AccountType = "Asset"
	// AccountTypeEquity increases on the credit side; balance queries apply
	// a -1 multiplier to it.
	AccountTypeEquity AccountType = "Equity"
)

// Category is a free-form classification. The income statement recognizes
// three values on Equity accounts; everything else is ignored there.
type Category string

const (
	CategoryRevenue  Category = "Revenue"
	CategoryExpense  Category = "Expense"
	CategoryGainLoss Category = "Gain or Loss"
)

// RootAccountName identifies the distinguished root account. Exactly one
// account with this name must exist before any other account can be created;
// every initializing transaction posts against it.
const RootAccountName = "INIT"

// InitDescription marks initializing transactions. Inflow/outflow totals
// exclude transactions carrying it.
const InitDescription = "INIT"

// InitDate is the fixed epoch sentinel used for initializing transactions.
var InitDate = date.New(1980, time.January, 1)

// ValuationKind tags how an account's balance is valued.
type ValuationKind string

const (
	// ValuationNone leaves the computed balance as-is.
	ValuationNone ValuationKind = "none"
	// ValuationExternallyPriced treats the balance as a quantity of
	// Valuation.Symbol, converted with the current spot price.
	ValuationExternallyPriced ValuationKind = "externally_priced"
)

// Valuation is resolved once at account create/edit time from the account
// name, so balance math never string-matches names at query time.
type Valuation struct {
	Kind   ValuationKind
	Symbol string
}

// externallyPricedNames maps the account names the book keeps in a foreign
// asset to the oracle symbol quoting them.
var externallyPricedNames = map[string]string{
	"ETH":            "ETH",
	"Write Up (ETH)": "ETH",
}

// ResolveValuation derives the valuation for an account name.
func ResolveValuation(name string) Valuation {
	if sym, ok := externallyPricedNames[name]; ok {
		return Valuation{Kind: ValuationExternallyPriced, Symbol: sym}
	}
	return Valuation{Kind: ValuationNone}
}

// Account represents a ledger account.
type Account struct {
	ID             uuid.UUID
	Type           AccountType
	Category       Category
	Name           string
	InitialBalance decimal.Decimal
	// InitTxnID references the transaction encoding the opening balance as
	// a posting against the root account.
	InitTxnID uuid.UUID
	Valuation Valuation
}

// IsRoot reports whether the account is the distinguished root account.
func (a Account) IsRoot() bool { return a.Name == RootAccountName }

// SignMultiplier returns the sign applied by type-aware balance queries:
// -1 for Equity, +1 otherwise.
func (a Account) SignMultiplier() int64 {
	if a.Type == AccountTypeEquity {
		return -1
	}
	return 1
}

// Side selects one posting side of a transaction.
type Side string

const (
	SideCredit Side = "credit"
	SideDebit  Side = "debit"
)

// Transaction links two distinct accounts with a non-negative magnitude.
// Amount flows out of the credit account and into the debit account; direction
// is never encoded as a signed amount.
type Transaction struct {
	ID              uuid.UUID
	Date            date.Date
	Description     string
	Note            string
	CreditAccountID uuid.UUID
	DebitAccountID  uuid.UUID
	Amount          decimal.Decimal
}

// IsInit reports whether the transaction is an initializing posting.
func (t Transaction) IsInit() bool { return t.Description == InitDescription }

// Touches reports whether the transaction references the account on either side.
func (t Transaction) Touches(accountID uuid.UUID) bool {
	return t.CreditAccountID == accountID || t.DebitAccountID == accountID
}
