package middleware

import (
	"encoding/json"

	"accounts-service/internal/account"
	"accounts-service/internal/audit"
	"accounts-service/internal/session"
	"accounts-service/internal/web"

	"github.com/gin-gonic/gin"
)

const accountContextKey = "middleware.currentAccount"

// CurrentAccount returns the authenticated account for the request, or
// nil for anonymous callers. Attach must have run first.
func CurrentAccount(c *gin.Context) *account.Account {
	v, ok := c.Get(accountContextKey)
	if !ok {
		return nil
	}
	a, _ := v.(*account.Account)
	return a
}

// Attach resolves the request's session to an account record and stores
// it in the request context. It never blocks anonymous requests.
func Attach(sessions *session.Manager, directory account.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := sessions.Current(c.Request.Context(), c.Request)
		if err == nil && sess != nil {
			if a, err := directory.Read(c.Request.Context(), sess.AccountID); err == nil {
				c.Set(accountContextKey, a)
			}
		}
		c.Next()
	}
}

// RequireAccount blocks anonymous requests.
func RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentAccount(c) == nil {
			web.Error(c, "Must be logged in")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole blocks requests whose account holds none of the given
// roles. Guards the account-management API.
func RequireRole(roles map[string]bool, sink audit.Sink) gin.HandlerFunc {
	if sink == nil {
		sink = audit.Discard{}
	}
	return func(c *gin.Context) {
		a := CurrentAccount(c)
		if a == nil {
			web.Error(c, "Must be logged in")
			c.Abort()
			return
		}
		if !a.HasAnyRole(roles) {
			need, _ := json.Marshal(roles)
			have, _ := json.Marshal(a.Roles)
			sink.Audit(audit.FormatSource(a.ID, c.ClientIP()), audit.PermissionError, "MUST HAVE", string(need), "HAVE", string(have))
			web.Error(c, "Must have access")
			c.Abort()
			return
		}
		c.Next()
	}
}
