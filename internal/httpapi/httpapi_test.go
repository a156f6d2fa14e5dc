package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/date"
	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type stubOracle struct {
	price decimal.Decimal
	err   error
}

func (o *stubOracle) SpotPrice(context.Context, string, string) (decimal.Decimal, error) {
	if o.err != nil {
		return decimal.Zero, o.err
	}
	return o.price, nil
}

type acctResp struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Category       string `json:"category"`
	Name           string `json:"name"`
	InitialBalance string `json:"initial_balance"`
	InitTxnID      string `json:"init_txn_id"`
	ValuationKind  string `json:"valuation_kind"`
	ValuationSym   string `json:"valuation_symbol"`
}

type txnResp struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	Description     string `json:"description"`
	CreditAccountID string `json:"credit_account_id"`
	DebitAccountID  string `json:"debit_account_id"`
	Amount          string `json:"amount"`
}

type balResp struct {
	AccountID    string    `json:"account_id"`
	AsOf         string    `json:"as_of"`
	Balance      string    `json:"balance"`
	NumTxns      int       `json:"num_txns"`
	Transactions []txnResp `json:"transactions"`
}

type errResp struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func setup(t *testing.T) (*memory.Store, *stubOracle, http.Handler, ledger.Account, ledger.Account) {
	t.Helper()
	store := memory.New()
	oracle := &stubOracle{price: decimal.NewFromInt(3000)}
	root := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeEquity, Name: ledger.RootAccountName}
	checking := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeAsset, Name: "Checking"}
	store.SeedAccount(root)
	store.SeedAccount(checking)
	store.SeedTransaction(ledger.Transaction{
		ID:              uuid.New(),
		Date:            ledger.InitDate,
		Description:     ledger.InitDescription,
		CreditAccountID: root.ID,
		DebitAccountID:  checking.ID,
		Amount:          decimal.NewFromInt(100),
	})
	h := New(store, store, oracle, testLogger()).Handler()
	return store, oracle, h, root, checking
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestPostAccount_CreatesInitTransaction(t *testing.T) {
	store, _, h, root, _ := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/accounts", map[string]any{
		"type":            "Asset",
		"name":            "Savings",
		"initial_balance": "250",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var ar acctResp
	decode(t, rec, &ar)
	if ar.Name != "Savings" || ar.Type != "Asset" {
		t.Fatalf("unexpected response: %+v", ar)
	}

	initID, err := uuid.Parse(ar.InitTxnID)
	if err != nil {
		t.Fatalf("init_txn_id: %v", err)
	}
	init, err := store.GetTransaction(context.Background(), initID)
	if err != nil {
		t.Fatalf("init transaction not stored: %v", err)
	}
	if init.CreditAccountID != root.ID {
		t.Errorf("init credit = %s, want root %s", init.CreditAccountID, root.ID)
	}
	if !init.Date.Equal(ledger.InitDate) {
		t.Errorf("init date = %s, want %s", init.Date, ledger.InitDate)
	}
}

func TestPostAccount_BadJSON(t *testing.T) {
	_, _, h, _, _ := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/accounts", bytes.NewReader([]byte(`{"type":`)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPostAccount_ValidationError(t *testing.T) {
	_, _, h, _, _ := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/accounts", map[string]any{"type": "Asset"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	var er errResp
	decode(t, rec, &er)
	if er.Code != "validation" {
		t.Errorf("code = %q, want validation", er.Code)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	_, _, h, _, _ := setup(t)

	rec := do(t, h, http.MethodGet, "/v1/accounts/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var er errResp
	decode(t, rec, &er)
	if er.Code != "not_found" {
		t.Errorf("code = %q, want not_found", er.Code)
	}
}

func TestListAccounts(t *testing.T) {
	_, _, h, _, _ := setup(t)

	rec := do(t, h, http.MethodGet, "/v1/accounts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out []acctResp
	decode(t, rec, &out)
	if len(out) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(out))
	}
}

func TestGetBalance_AsOf(t *testing.T) {
	_, _, h, _, checking := setup(t)

	rec := do(t, h, http.MethodGet, "/v1/accounts/"+checking.ID.String()+"/balance?as_of=2000-01-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var br balResp
	decode(t, rec, &br)
	if br.Balance != "100" {
		t.Errorf("balance = %q, want 100", br.Balance)
	}
	if br.AsOf != "2000-01-01" {
		t.Errorf("as_of = %q", br.AsOf)
	}
	if br.NumTxns != 1 || len(br.Transactions) != 1 {
		t.Errorf("num_txns = %d, transactions = %d", br.NumTxns, len(br.Transactions))
	}
}

func TestGetBalance_BadAsOf(t *testing.T) {
	_, _, h, _, checking := setup(t)

	rec := do(t, h, http.MethodGet, "/v1/accounts/"+checking.ID.String()+"/balance?as_of=circa-1999", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetBalance_ExternallyPricedOracleDown(t *testing.T) {
	store, oracle, h, root, _ := setup(t)
	oracle.err = errs.ErrExternalService

	eth := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeAsset, Name: "ETH", Valuation: ledger.ResolveValuation("ETH")}
	store.SeedAccount(eth)
	store.SeedTransaction(ledger.Transaction{
		ID:              uuid.New(),
		Date:            date.MustParse("2021-06-01"),
		Description:     "buy",
		CreditAccountID: root.ID,
		DebitAccountID:  eth.ID,
		Amount:          decimal.NewFromInt(2),
	})

	rec := do(t, h, http.MethodGet, "/v1/accounts/"+eth.ID.String()+"/balance", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
	var er errResp
	decode(t, rec, &er)
	if er.Code != "external_service" {
		t.Errorf("code = %q, want external_service", er.Code)
	}
}

func TestGetOutflows(t *testing.T) {
	store, _, h, _, checking := setup(t)

	groceries := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeEquity, Category: ledger.CategoryExpense, Name: "Groceries"}
	store.SeedAccount(groceries)
	store.SeedTransaction(ledger.Transaction{
		ID:              uuid.New(),
		Date:            date.MustParse("2024-01-15"),
		Description:     "food",
		CreditAccountID: checking.ID,
		DebitAccountID:  groceries.ID,
		Amount:          decimal.NewFromInt(50),
	})

	rec := do(t, h, http.MethodGet, "/v1/accounts/"+checking.ID.String()+"/outflows?start=2024-01-01&end=2024-02-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var fr balResp
	decode(t, rec, &fr)
	if fr.Balance != "-50" {
		t.Errorf("balance = %q, want -50", fr.Balance)
	}
	if fr.NumTxns != 1 {
		t.Errorf("num_txns = %d, want 1 (init postings excluded)", fr.NumTxns)
	}
}

func TestGetOutflows_MissingWindow(t *testing.T) {
	_, _, h, _, checking := setup(t)

	rec := do(t, h, http.MethodGet, "/v1/accounts/"+checking.ID.String()+"/outflows?start=2024-01-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIncomeStatement(t *testing.T) {
	store, _, h, _, checking := setup(t)

	salary := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeEquity, Category: ledger.CategoryRevenue, Name: "Salary"}
	store.SeedAccount(salary)
	store.SeedTransaction(ledger.Transaction{
		ID:              uuid.New(),
		Date:            date.MustParse("2024-01-15"),
		Description:     "payday",
		CreditAccountID: salary.ID,
		DebitAccountID:  checking.ID,
		Amount:          decimal.NewFromInt(500),
	})

	rec := do(t, h, http.MethodGet, "/v1/income-statement?start=2024-01-01&end=2024-01-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var sr struct {
		Revenue []struct {
			Total string `json:"total"`
		} `json:"revenue"`
		NetIncome string `json:"net_income"`
	}
	decode(t, rec, &sr)
	if len(sr.Revenue) != 1 || sr.Revenue[0].Total != "500" {
		t.Fatalf("unexpected revenue: %+v", sr.Revenue)
	}
	if sr.NetIncome != "500" {
		t.Errorf("net_income = %q, want 500", sr.NetIncome)
	}
}

func TestGetPrice(t *testing.T) {
	_, _, h, _, _ := setup(t)

	rec := do(t, h, http.MethodGet, "/v1/price?symbol=ETH", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var pr struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
		Price    string `json:"price"`
	}
	decode(t, rec, &pr)
	if pr.Symbol != "ETH" || pr.Currency != "USD" || pr.Price != "3000" {
		t.Fatalf("unexpected response: %+v", pr)
	}

	rec = do(t, h, http.MethodGet, "/v1/price", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without symbol, got %d", rec.Code)
	}
}

func TestTransactions_CreateEditList(t *testing.T) {
	store, _, h, _, checking := setup(t)

	salary := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeEquity, Category: ledger.CategoryRevenue, Name: "Salary"}
	store.SeedAccount(salary)

	rec := do(t, h, http.MethodPost, "/v1/transactions", map[string]any{
		"date":              "2024-01-15",
		"description":       "payday",
		"credit_account_id": salary.ID.String(),
		"debit_account_id":  checking.ID.String(),
		"amount":            "500",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var tr txnResp
	decode(t, rec, &tr)
	if tr.Date != "2024-01-15" || tr.Amount != "500" {
		t.Fatalf("unexpected response: %+v", tr)
	}

	rec = do(t, h, http.MethodPut, "/v1/transactions/"+tr.ID, map[string]any{
		"date":              "2024-01-16",
		"description":       "payday (corrected)",
		"credit_account_id": salary.ID.String(),
		"debit_account_id":  checking.ID.String(),
		"amount":            "450",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var edited txnResp
	decode(t, rec, &edited)
	if edited.ID != tr.ID || edited.Amount != "450" {
		t.Fatalf("unexpected response: %+v", edited)
	}

	rec = do(t, h, http.MethodGet, "/v1/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var all []txnResp
	decode(t, rec, &all)
	// the seeded init transaction plus the one created above
	if len(all) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(all))
	}
}

func TestTransactions_SameAccountRejected(t *testing.T) {
	_, _, h, _, checking := setup(t)

	rec := do(t, h, http.MethodPost, "/v1/transactions", map[string]any{
		"date":              "2024-01-15",
		"description":       "loop",
		"credit_account_id": checking.ID.String(),
		"debit_account_id":  checking.ID.String(),
		"amount":            "10",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteTransactions_PartialFailure(t *testing.T) {
	store, _, h, _, checking := setup(t)

	salary := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeEquity, Category: ledger.CategoryRevenue, Name: "Salary"}
	store.SeedAccount(salary)
	a := ledger.Transaction{
		ID: uuid.New(), Date: date.MustParse("2024-01-15"), Description: "a",
		CreditAccountID: salary.ID, DebitAccountID: checking.ID, Amount: decimal.NewFromInt(1),
	}
	store.SeedTransaction(a)
	missing := uuid.New()

	rec := do(t, h, http.MethodPost, "/v1/transactions/delete", map[string]any{
		"ids": []string{a.ID.String(), missing.String()},
	})
	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("expected 207, got %d: %s", rec.Code, rec.Body.String())
	}
	var dr struct {
		Deleted  int    `json:"deleted"`
		FailedID string `json:"failed_id"`
	}
	decode(t, rec, &dr)
	if dr.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", dr.Deleted)
	}
	if dr.FailedID != missing.String() {
		t.Errorf("failed_id = %q, want %s", dr.FailedID, missing)
	}

	if _, err := store.GetTransaction(context.Background(), a.ID); err == nil {
		t.Error("first id should have been deleted")
	}
}

func TestDeleteAccount_Conflict(t *testing.T) {
	store, _, h, _, checking := setup(t)

	salary := ledger.Account{ID: uuid.New(), Type: ledger.AccountTypeEquity, Category: ledger.CategoryRevenue, Name: "Salary"}
	store.SeedAccount(salary)
	store.SeedTransaction(ledger.Transaction{
		ID: uuid.New(), Date: date.MustParse("2024-01-15"), Description: "payday",
		CreditAccountID: salary.ID, DebitAccountID: checking.ID, Amount: decimal.NewFromInt(500),
	})

	rec := do(t, h, http.MethodDelete, "/v1/accounts/"+checking.ID.String(), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var er errResp
	decode(t, rec, &er)
	if er.Code != "conflict" {
		t.Errorf("code = %q, want conflict", er.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	_, _, h, _, _ := setup(t)

	if rec := do(t, h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", rec.Code)
	}
}
