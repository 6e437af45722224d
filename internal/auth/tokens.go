package auth

import (
	"crypto/subtle"
	"sync"
	"time"
)

// loginToken is an outstanding passwordless login secret. The extra
// payload captured at issuance is replayed into profile creation when the
// token is redeemed.
type loginToken struct {
	secret  string
	expires time.Time
	extra   map[string]any
}

// tokenStore is the per-strategy table of outstanding login tokens.
// Expired entries are swept opportunistically on every access; redemption
// is an atomic compare-and-delete so a token can never be consumed twice.
type tokenStore struct {
	mu     sync.Mutex
	tokens map[string]loginToken
	ttl    time.Duration
	now    func() time.Time
}

func newTokenStore(ttl time.Duration) *tokenStore {
	return &tokenStore{
		tokens: make(map[string]loginToken),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue records a token for the credential key, overwriting any previous
// token for the same key.
func (t *tokenStore) Issue(key, secret string, extra map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked()

	t.tokens[key] = loginToken{
		secret:  secret,
		expires: t.now().Add(t.ttl),
		extra:   extra,
	}
}

// Redeem consumes the token for key if the secret matches. A wrong secret
// leaves the token pending; a matching one removes it in the same critical
// section, so a second redemption fails.
func (t *tokenStore) Redeem(key, secret string) (map[string]any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked()

	tok, ok := t.tokens[key]
	if !ok {
		return nil, false
	}
	if subtle.ConstantTimeCompare([]byte(tok.secret), []byte(secret)) != 1 {
		return nil, false
	}

	delete(t.tokens, key)
	return tok.extra, true
}

// sweepLocked drops expired tokens. O(n) over outstanding tokens, which is
// bounded by concurrent logins, not total users.
func (t *tokenStore) sweepLocked() {
	now := t.now()
	for key, tok := range t.tokens {
		if !now.Before(tok.expires) {
			delete(t.tokens, key)
		}
	}
}
