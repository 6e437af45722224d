package account

import (
	"context"
	"sync"
)

// MemoryDirectory is an in-memory Directory for tests and development.
type MemoryDirectory struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{accounts: make(map[string]*Account)}
}

func (d *MemoryDirectory) Lookup() map[string]*Account {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]*Account, len(d.accounts))
	for id, a := range d.accounts {
		out[id] = a.Clone()
	}
	return out
}

func (d *MemoryDirectory) Read(_ context.Context, id string) (*Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

func (d *MemoryDirectory) Create(_ context.Context, a *Account) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := checkCredentialsFree(d.accounts, a); err != nil {
		return nil, err
	}
	d.accounts[a.ID] = a.Clone()
	return a, nil
}

func (d *MemoryDirectory) Update(_ context.Context, a *Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.accounts[a.ID]; !ok {
		return ErrNotFound
	}
	d.accounts[a.ID] = a.Clone()
	return nil
}

func (d *MemoryDirectory) Delete(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(d.accounts, id)
	return nil
}

func (d *MemoryDirectory) Search(_ context.Context, q *Query) (*SearchResult, error) {
	return runSearch(d.Lookup(), q), nil
}

// checkCredentialsFree enforces that at most one account owns any
// (type, value) credential pair.
func checkCredentialsFree(accounts map[string]*Account, candidate *Account) error {
	if _, ok := accounts[candidate.ID]; ok {
		return ErrAccountExists
	}
	for _, existing := range accounts {
		for _, c := range candidate.Credentials {
			if existing.HasCredential(c.Type, c.Value) {
				return ErrAccountExists
			}
		}
	}
	return nil
}
