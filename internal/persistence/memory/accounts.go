package memory

import (
	"context"
	"sync"

	"github.com/example/student-rentals/internal/persistence"
)

// Accounts implements persistence.AccountStore.
type Accounts struct {
	mu      sync.RWMutex
	byID    map[string]persistence.Account
	byEmail map[string]string
}

// NewAccounts returns an empty account store.
func NewAccounts() *Accounts {
	return &Accounts{
		byID:    make(map[string]persistence.Account),
		byEmail: make(map[string]string),
	}
}

// CreateAccount stores a new account. Emails are unique ignoring case.
func (a *Accounts) CreateAccount(ctx context.Context, account persistence.Account) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := persistence.EmailKey(account.Email)
	if _, taken := a.byEmail[key]; taken {
		return persistence.ErrDuplicate
	}
	if _, taken := a.byID[account.ID]; taken {
		return persistence.ErrDuplicate
	}
	a.byID[account.ID] = account
	a.byEmail[key] = account.ID
	return nil
}

// FindAccountByID retrieves an account by id.
func (a *Accounts) FindAccountByID(ctx context.Context, id string) (persistence.Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	account, ok := a.byID[id]
	if !ok {
		return persistence.Account{}, persistence.ErrNotFound
	}
	return account, nil
}

// FindAccountByEmail retrieves an account by email, ignoring case.
func (a *Accounts) FindAccountByEmail(ctx context.Context, email string) (persistence.Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	id, ok := a.byEmail[persistence.EmailKey(email)]
	if !ok {
		return persistence.Account{}, persistence.ErrNotFound
	}
	account, ok := a.byID[id]
	if !ok {
		return persistence.Account{}, persistence.ErrNotFound
	}
	return account, nil
}
