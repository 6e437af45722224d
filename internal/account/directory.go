package account

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a requested account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrAccountExists is returned when creating an account whose
	// credential pair is already owned by another account.
	ErrAccountExists = errors.New("account already exists")
)

// Directory stores account records. Implementations must keep every record
// reachable through Lookup so credential scans and search can run against a
// full in-memory view.
type Directory interface {
	// Lookup returns a snapshot of all accounts keyed by id.
	Lookup() map[string]*Account

	// Read returns the account with the given id.
	Read(ctx context.Context, id string) (*Account, error)

	// Create stores a new account. It fails with ErrAccountExists if any
	// of the account's credential pairs is already taken.
	Create(ctx context.Context, a *Account) (*Account, error)

	// Update replaces the stored account with the same id.
	Update(ctx context.Context, a *Account) error

	// Delete removes the account with the given id.
	Delete(ctx context.Context, id string) error

	// Search runs a parsed query against the directory.
	Search(ctx context.Context, q *Query) (*SearchResult, error)
}
