// Package memory provides an in-memory store used for development and tests.
// It keeps code paths easy to follow while allowing a real DB to be plugged
// in behind the same interfaces.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/ledger"
)

// Store is an in-memory implementation of the repository and writer
// interfaces used by the services. It is guarded by an RWMutex for
// concurrent reads/writes.
type Store struct {
	mu           sync.RWMutex
	accounts     map[uuid.UUID]ledger.Account
	transactions map[uuid.UUID]ledger.Transaction
}

// New constructs an empty store.
func New() *Store {
	return &Store{
		accounts:     make(map[uuid.UUID]ledger.Account),
		transactions: make(map[uuid.UUID]ledger.Transaction),
	}
}

// Seed helpers for local dev and tests.
func (s *Store) SeedAccount(a ledger.Account) {
	s.mu.Lock()
	s.accounts[a.ID] = a
	s.mu.Unlock()
}

func (s *Store) SeedTransaction(t ledger.Transaction) {
	s.mu.Lock()
	s.transactions[t.ID] = t
	s.mu.Unlock()
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.accounts = map[uuid.UUID]ledger.Account{}
	s.transactions = map[uuid.UUID]ledger.Transaction{}
	s.mu.Unlock()
}

// --- Account reads ---

// GetAccount returns an account by id.
func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// ListAccounts returns all accounts sorted by name.
func (s *Store) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AccountsByType returns accounts of the given type.
func (s *Store) AccountsByType(_ context.Context, t ledger.AccountType) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0)
	for _, a := range s.accounts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AccountsByName returns accounts with an exact name match.
func (s *Store) AccountsByName(_ context.Context, name string) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0, 1)
	for _, a := range s.accounts {
		if a.Name == name {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- Transaction reads ---

// GetTransaction returns a transaction by id.
func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return ledger.Transaction{}, errs.ErrNotFound
	}
	return t, nil
}

// ListTransactions returns all transactions sorted ascending by date.
func (s *Store) ListTransactions(_ context.Context) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		out = append(out, t)
	}
	sortTxns(out)
	return out, nil
}

// TransactionsByAccount returns transactions referencing the account on
// either side.
func (s *Store) TransactionsByAccount(_ context.Context, accountID uuid.UUID) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Transaction, 0)
	for _, t := range s.transactions {
		if t.Touches(accountID) {
			out = append(out, t)
		}
	}
	sortTxns(out)
	return out, nil
}

// TransactionsBySide returns transactions referencing the account on the
// given side only.
func (s *Store) TransactionsBySide(_ context.Context, accountID uuid.UUID, side ledger.Side) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Transaction, 0)
	for _, t := range s.transactions {
		if side == ledger.SideCredit && t.CreditAccountID == accountID {
			out = append(out, t)
		}
		if side == ledger.SideDebit && t.DebitAccountID == accountID {
			out = append(out, t)
		}
	}
	sortTxns(out)
	return out, nil
}

// --- Writes ---

// SaveAccount inserts or overwrites an account.
func (s *Store) SaveAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return a, nil
}

// SaveTransaction inserts or overwrites a transaction.
func (s *Store) SaveTransaction(_ context.Context, t ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = t
	return t, nil
}

// CreateAccountWithInit persists an account and its initializing transaction
// under one lock acquisition, so no reader observes the pair half-written.
func (s *Store) CreateAccountWithInit(_ context.Context, a ledger.Account, init ledger.Transaction) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	s.transactions[init.ID] = init
	return a, nil
}

// DeleteAccount removes an account. Missing ids report ErrNotFound.
func (s *Store) DeleteAccount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

// DeleteTransaction removes a transaction. Missing ids report ErrNotFound.
func (s *Store) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

// Ready always succeeds for the in-memory store.
func (s *Store) Ready(_ context.Context) error { return nil }

func sortTxns(txns []ledger.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if txns[i].Date.Equal(txns[j].Date) {
			return txns[i].ID.String() < txns[j].ID.String()
		}
		return txns[i].Date.Before(txns[j].Date)
	})
}
