package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"accounts-service/internal/account"
	"accounts-service/internal/audit"
	"accounts-service/internal/web"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// OAuthConfig configures an external-profile strategy against an OIDC
// provider.
type OAuthConfig struct {
	// Method is the strategy name, e.g. "google".
	Method string

	// Issuer is the OIDC discovery issuer URL, e.g.
	// https://accounts.google.com.
	Issuer string

	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Scopes beyond openid. Defaults to profile and email.
	Scopes []string

	// SuccessRedirect is where the browser lands after login. Default "/".
	SuccessRedirect string

	// FailureRedirect is where provider-side errors send the browser.
	// Default "/login".
	FailureRedirect string
}

// OAuthStrategy trusts an external identity assertion: it exchanges the
// authorization code, verifies the id_token, and resolves or provisions
// an account from the asserted profile. Completion is redirect-based.
type OAuthStrategy struct {
	Core
	cfg         OAuthConfig
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

// NewOAuthStrategy initializes the provider via OIDC discovery.
func NewOAuthStrategy(ctx context.Context, opts Options, cfg OAuthConfig) (*OAuthStrategy, error) {
	if cfg.Method == "" || cfg.Issuer == "" || cfg.ClientID == "" || cfg.RedirectURL == "" {
		return nil, errors.New("oauth config missing required fields")
	}
	if cfg.SuccessRedirect == "" {
		cfg.SuccessRedirect = "/"
	}
	if cfg.FailureRedirect == "" {
		cfg.FailureRedirect = "/login"
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"profile", "email"}
	}

	oidcProvider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init %s oidc provider: %w", cfg.Method, err)
	}

	return &OAuthStrategy{
		Core: newCore(cfg.Method, opts),
		cfg:  cfg,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     oidcProvider.Endpoint(),
			Scopes:       append([]string{oidc.ScopeOpenID}, cfg.Scopes...),
		},
		verifier: oidcProvider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (s *OAuthStrategy) Description() Description {
	return Description{Method: s.method, Redirect: true}
}

func (s *OAuthStrategy) Install(r gin.IRouter, prefix string) {
	group := r.Group(prefix)
	group.Any("/login.json", s.login)
	group.Any("/callback.json", s.callback)
}

func (s *OAuthStrategy) login(c *gin.Context) {
	state := generateState(c)
	_, codeChallenge := generatePKCE(c)

	authURL := s.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
	c.Redirect(http.StatusFound, authURL)
}

func (s *OAuthStrategy) callback(c *gin.Context) {
	if !validateState(c) {
		s.loginFailure(c, "invalid state")
		return
	}

	// provider-side errors (common during registration) restart the flow
	if errParam := c.Query("error"); errParam != "" {
		s.sink.Audit(audit.FormatSource("", c.ClientIP()), audit.LoginFailure, errParam, c.Query("error_description"))
		c.Redirect(http.StatusFound, s.cfg.FailureRedirect)
		return
	}

	code := c.Query("code")
	if code == "" {
		s.loginFailure(c, "callback missing code")
		return
	}
	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		s.loginFailure(c, "missing pkce verifier")
		return
	}

	profile, err := s.exchangeCode(c.Request.Context(), code, codeVerifier)
	if err != nil {
		s.loginFailure(c, "authentication failed", err.Error())
		return
	}

	a, err := s.resolveOrProvision(c.Request.Context(), "", profile, s.ProvisionFromProfile, c.ClientIP())
	if err != nil {
		web.Error(c, err.Error())
		return
	}
	s.loggedIn(c, a, s.cfg.SuccessRedirect)
}

// exchangeCode trades the authorization code for a verified id_token and
// returns the asserted profile. Identity facts only; no account decisions
// are made here.
func (s *OAuthStrategy) exchangeCode(ctx context.Context, code, codeVerifier string) (*account.Profile, error) {
	token, err := s.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("%s token exchange failed: %w", s.method, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%s did not return id_token", s.method)
	}

	idToken, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%s id_token verification failed: %w", s.method, err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s id_token claims parse failed: %w", s.method, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s id_token missing subject", s.method)
	}

	displayName := claims.Name
	if displayName == "" && claims.Email != "" {
		displayName = account.DisplayNameFromCredential(claims.Email)
	}

	return &account.Profile{
		ID:          claims.Subject,
		DisplayName: displayName,
		Extra: map[string]any{
			"email":         claims.Email,
			"emailVerified": claims.EmailVerified,
			"picture":       claims.Picture,
		},
	}, nil
}

const (
	stateCookieName = "__oauth_state"
	pkceCookieName  = "__oauth_pkce"
	oauthCookieTTL  = 5 * time.Minute
)

func generateState(c *gin.Context) string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)

	state := base64.RawURLEncoding.EncodeToString(b)
	setOAuthCookie(c, stateCookieName, state)
	return state
}

func validateState(c *gin.Context) bool {
	stateQuery := c.Query("state")
	if stateQuery == "" {
		return false
	}
	cookie, err := c.Request.Cookie(stateCookieName)
	if err != nil {
		return false
	}
	return cookie.Value == stateQuery
}

func generatePKCE(c *gin.Context) (verifier, challenge string) {
	b := make([]byte, 32)
	_, _ = rand.Read(b)

	verifier = base64.RawURLEncoding.EncodeToString(b)
	hash := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(hash[:])

	setOAuthCookie(c, pkceCookieName, verifier)
	return verifier, challenge
}

func getPKCEVerifier(c *gin.Context) string {
	cookie, err := c.Request.Cookie(pkceCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setOAuthCookie(c *gin.Context, name, value string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauthCookieTTL.Seconds()),
	})
}
