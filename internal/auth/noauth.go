package auth

import (
	"fmt"

	"accounts-service/internal/web"

	"github.com/gin-gonic/gin"
)

// NoAuthStrategy accepts any request and logs in a pre-configured account.
// Development and test use only: there is no internal guard, production
// wiring must simply never register it.
type NoAuthStrategy struct {
	Core
	accountID string
}

// NewNoAuthStrategy creates a strategy that always logs in accountID.
// method defaults to "nothing".
func NewNoAuthStrategy(opts Options, method, accountID string) *NoAuthStrategy {
	if method == "" {
		method = "nothing"
	}
	return &NoAuthStrategy{
		Core:      newCore(method, opts),
		accountID: accountID,
	}
}

func (s *NoAuthStrategy) Description() Description {
	return Description{Method: s.method}
}

func (s *NoAuthStrategy) Install(r gin.IRouter, prefix string) {
	r.Group(prefix).Any("/login.json", s.login)
}

func (s *NoAuthStrategy) login(c *gin.Context) {
	a, err := s.directory.Read(c.Request.Context(), s.accountID)
	if err != nil {
		web.Error(c, fmt.Sprintf("Login failed: %v", err))
		return
	}
	s.loggedIn(c, a, "")
}
