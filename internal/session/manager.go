package session

import (
	"context"
	"net/http"
	"time"
)

// Manager issues, resolves and destroys sessions against a Store, keeping
// the browser cookie and the stored record in sync.
type Manager struct {
	Store  Store
	TTL    time.Duration
	Cookie CookieOptions
}

// NewManager creates a session manager with the given store and ttl.
func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		Store: store,
		TTL:   ttl,
		Cookie: CookieOptions{
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Issue creates a session for the account and sets the session cookie.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, accountID string) error {
	sessionID, err := GenerateID()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(m.TTL)
	if err := m.Store.Create(ctx, Session{
		SessionID: sessionID,
		AccountID: accountID,
		ExpiresAt: expiresAt,
	}); err != nil {
		return err
	}

	SetCookie(w, sessionID, expiresAt, m.Cookie)
	return nil
}

// Current resolves the request's session, or nil when absent or expired.
func (m *Manager) Current(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	sess, err := m.Store.Get(ctx, cookie.Value)
	if err != nil || sess == nil {
		return nil, err
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = m.Store.Delete(ctx, sess.SessionID)
		return nil, nil
	}
	return sess, nil
}

// Destroy deletes the request's session (best-effort) and clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		_ = m.Store.Delete(ctx, cookie.Value)
	}
	ClearCookie(w, m.Cookie)
}
