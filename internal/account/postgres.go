package account

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
)

const accountsMigration = `
CREATE TABLE IF NOT EXISTS accounts (
    id text PRIMARY KEY,
    data jsonb NOT NULL,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);
`

// PostgresDirectory is a write-through cached Directory backed by Postgres.
// All records are held in memory; reads and searches never touch the
// database, writes update the row first and the cache second.
type PostgresDirectory struct {
	db *sql.DB

	mu       sync.RWMutex
	accounts map[string]*Account
}

// NewPostgresDirectory runs the accounts migration and loads every record
// into the cache.
func NewPostgresDirectory(ctx context.Context, db *sql.DB) (*PostgresDirectory, error) {
	if _, err := db.ExecContext(ctx, accountsMigration); err != nil {
		return nil, fmt.Errorf("accounts migration failed: %w", err)
	}

	d := &PostgresDirectory{db: db, accounts: make(map[string]*Account)}

	rows, err := db.QueryContext(ctx, `SELECT data FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("accounts load failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var a Account
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("accounts row decode failed: %w", err)
		}
		d.accounts[a.ID] = &a
	}
	return d, rows.Err()
}

func (d *PostgresDirectory) Lookup() map[string]*Account {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]*Account, len(d.accounts))
	for id, a := range d.accounts {
		out[id] = a.Clone()
	}
	return out
}

func (d *PostgresDirectory) Read(_ context.Context, id string) (*Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

func (d *PostgresDirectory) Create(ctx context.Context, a *Account) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := checkCredentialsFree(d.accounts, a); err != nil {
		return nil, err
	}

	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	if _, err := d.db.ExecContext(ctx, `
		INSERT INTO accounts (id, data)
		VALUES ($1, $2)
	`, a.ID, data); err != nil {
		return nil, err
	}

	d.accounts[a.ID] = a.Clone()
	return a, nil
}

func (d *PostgresDirectory) Update(ctx context.Context, a *Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.accounts[a.ID]; !ok {
		return ErrNotFound
	}

	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if _, err := d.db.ExecContext(ctx, `
		UPDATE accounts
		SET data = $2, updated_at = NOW()
		WHERE id = $1
	`, a.ID, data); err != nil {
		return err
	}

	d.accounts[a.ID] = a.Clone()
	return nil
}

func (d *PostgresDirectory) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.accounts[id]; !ok {
		return ErrNotFound
	}

	if _, err := d.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id); err != nil {
		return err
	}

	delete(d.accounts, id)
	return nil
}

func (d *PostgresDirectory) Search(_ context.Context, q *Query) (*SearchResult, error) {
	return runSearch(d.Lookup(), q), nil
}
