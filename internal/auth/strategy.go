// Package auth registers login strategies. Each strategy resolves an
// incoming credential to an account, or provisions a new account from an
// external profile, and installs its own routes under the API prefix.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"accounts-service/internal/account"
	"accounts-service/internal/audit"
	"accounts-service/internal/fields"
	"accounts-service/internal/session"
	"accounts-service/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Description is the public descriptor of an authentication method,
// served by methods.json so clients can discover how to use it.
type Description struct {
	Method             string `json:"method"`
	UsesPassword       bool   `json:"usesPassword,omitempty"`
	Redirect           bool   `json:"redirect,omitempty"`
	TokenExpiryMinutes int    `json:"tokenExpiryMinutes,omitempty"`
	Recaptcha          string `json:"recaptcha,omitempty"`
}

// Strategy is the capability surface every authentication method
// implements. Variants are composed from Core via configuration, not
// subclassing.
type Strategy interface {
	// Method returns the unique method name, e.g. "email" or "google".
	Method() string

	// Description returns the public method descriptor.
	Description() Description

	// Install mounts the strategy's routes under prefix.
	Install(r gin.IRouter, prefix string)

	// FindByCredential finds the account owning (method, value).
	FindByCredential(value string) (*account.Account, bool)

	// ProfileFromCredential synthesizes a profile for a locally
	// registered credential such as an email address.
	ProfileFromCredential(id string, extra map[string]any) (*account.Profile, error)

	// ProvisionFromProfile materializes a new, unsaved account from a
	// profile.
	ProvisionFromProfile(profile *account.Profile) *account.Account
}

// Options carries the collaborators shared by all strategies.
type Options struct {
	Directory    account.Directory
	DefaultRoles map[string]bool
	Custom       fields.Set // custom fields whose Derive hooks run on provisioning
	Sessions     *session.Manager
	Audit        audit.Sink
}

// Core implements the strategy helpers shared by every variant.
type Core struct {
	method       string
	directory    account.Directory
	defaultRoles map[string]bool
	custom       fields.Set
	sessions     *session.Manager
	sink         audit.Sink
}

func newCore(method string, opts Options) Core {
	sink := opts.Audit
	if sink == nil {
		sink = audit.Discard{}
	}
	return Core{
		method:       method,
		directory:    opts.Directory,
		defaultRoles: opts.DefaultRoles,
		custom:       opts.Custom,
		sessions:     opts.Sessions,
		sink:         sink,
	}
}

func (s *Core) Method() string {
	return s.method
}

// FindByCredential scans the directory's credential lists for the
// (method, value) pair. Linear over all accounts; callers needing scale
// must provide an indexed directory.
func (s *Core) FindByCredential(value string) (*account.Account, bool) {
	for _, a := range s.directory.Lookup() {
		if a.HasCredential(s.method, value) {
			return a, true
		}
	}
	return nil, false
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// ProfileFromCredential synthesizes a profile from a credential value,
// replaying any extra request payload captured at issuance.
func (s *Core) ProfileFromCredential(id string, extra map[string]any) (*account.Profile, error) {
	id = whitespaceRe.ReplaceAllString(id, "")
	if id == "" {
		return nil, fmt.Errorf("id not specified")
	}

	displayName, _ := extra["displayName"].(string)
	if displayName == "" {
		displayName = account.DisplayNameFromCredential(id)
	}

	return &account.Profile{
		ID:          id,
		DisplayName: displayName,
		Extra:       extra,
	}, nil
}

// ProvisionFromProfile materializes a new account. The id is always
// freshly generated, never the external provider's id, so ids cannot
// collide across login providers.
func (s *Core) ProvisionFromProfile(profile *account.Profile) *account.Account {
	roles := make(map[string]bool, len(s.defaultRoles))
	for role, enabled := range s.defaultRoles {
		roles[role] = enabled
	}

	a := &account.Account{
		ID: uuid.NewString(),
		Credentials: []account.Credential{
			{Type: s.method, Value: profile.ID},
		},
		Roles:       roles,
		DisplayName: profile.DisplayName,
	}

	for field, meta := range s.custom {
		if meta.Derive == nil {
			continue
		}
		if value := meta.Derive(profile); !isFalsy(value) {
			_ = a.Set(field, value)
		}
	}
	return a
}

// isFalsy mirrors the provisioning rule that derived values of nil, "",
// false or 0 are omitted rather than stored.
func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case int:
		return t == 0
	case float64:
		return t == 0
	}
	return false
}

// resolveOrProvision finds the account owning (method, externalID) or
// creates a new one via the variant's provision func. Creation errors
// propagate to the caller.
func (s *Core) resolveOrProvision(ctx context.Context, externalID string, profile *account.Profile, provision func(*account.Profile) *account.Account, clientIP string) (*account.Account, error) {
	if externalID == "" {
		externalID = profile.ID
	}

	if a, ok := s.FindByCredential(externalID); ok {
		return a, nil
	}

	a, err := s.directory.Create(ctx, provision(profile))
	if err != nil {
		return nil, err
	}

	detail, _ := json.Marshal(map[string]any{"id": a.ID, "method": s.method, "credential": externalID})
	s.sink.Audit(audit.FormatSource(a.ID, clientIP), audit.AccountCreate, string(detail))
	return a, nil
}

// loggedIn issues a session and reports login success, redirecting for
// redirect-based methods and returning a success envelope otherwise.
func (s *Core) loggedIn(c *gin.Context, a *account.Account, redirect string) {
	if err := s.sessions.Issue(c.Request.Context(), c.Writer, a.ID); err != nil {
		web.Error(c, "failed to create session")
		return
	}

	detail, _ := json.Marshal(map[string]any{"id": a.ID, "displayName": a.DisplayName, "roles": a.Roles})
	s.sink.Audit(audit.FormatSource(a.ID, c.ClientIP()), audit.Login, fmt.Sprintf("Logged in via %s", s.method), string(detail))

	if redirect != "" {
		c.Redirect(http.StatusFound, redirect)
		return
	}
	web.Success(c, fmt.Sprintf("Logged in via %s", s.method))
}

// loginFailure reports a generic structured failure. The message never
// distinguishes wrong password from unknown user.
func (s *Core) loginFailure(c *gin.Context, msg string, details ...string) {
	s.sink.Audit(audit.FormatSource("", c.ClientIP()), audit.LoginFailure, append([]string{msg}, details...)...)
	web.Error(c, msg)
}
