package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenRedeem(t *testing.T) {
	store := newTokenStore(10 * time.Minute)
	store.Issue("alice@example.com", "secret1", map[string]any{"displayName": "Alice"})

	extra, ok := store.Redeem("alice@example.com", "secret1")
	assert.True(t, ok)
	assert.Equal(t, "Alice", extra["displayName"])

	// a token is single use
	_, ok = store.Redeem("alice@example.com", "secret1")
	assert.False(t, ok)
}

func TestTokenWrongSecretLeavesTokenPending(t *testing.T) {
	store := newTokenStore(10 * time.Minute)
	store.Issue("alice@example.com", "secret1", nil)

	_, ok := store.Redeem("alice@example.com", "wrong")
	assert.False(t, ok)

	_, ok = store.Redeem("alice@example.com", "secret1")
	assert.True(t, ok)
}

func TestTokenReissueReplacesSecret(t *testing.T) {
	store := newTokenStore(10 * time.Minute)
	store.Issue("alice@example.com", "first", nil)
	store.Issue("alice@example.com", "second", nil)

	_, ok := store.Redeem("alice@example.com", "first")
	assert.False(t, ok)

	_, ok = store.Redeem("alice@example.com", "second")
	assert.True(t, ok)
}

func TestTokenExpiry(t *testing.T) {
	store := newTokenStore(10 * time.Minute)
	current := time.Now()
	store.now = func() time.Time { return current }

	store.Issue("alice@example.com", "secret1", nil)

	current = current.Add(9 * time.Minute)
	_, ok := store.Redeem("alice@example.com", "secret1")
	assert.True(t, ok)

	store.Issue("alice@example.com", "secret2", nil)
	current = current.Add(10 * time.Minute)
	_, ok = store.Redeem("alice@example.com", "secret2")
	assert.False(t, ok)
}

func TestTokenUnknownKey(t *testing.T) {
	store := newTokenStore(10 * time.Minute)
	_, ok := store.Redeem("nobody@example.com", "anything")
	assert.False(t, ok)
}
