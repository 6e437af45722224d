package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"accounts-service/internal/account"
	"accounts-service/internal/audit"
	"accounts-service/internal/crypt"
	"accounts-service/internal/email"
	"accounts-service/internal/fields"
	"accounts-service/internal/web"

	"github.com/gin-gonic/gin"
)

const defaultTokenExpiryMinutes = 10

// genericLoginFailure is the one message every email login failure
// collapses to, so responses cannot be used for account enumeration.
const genericLoginFailure = "Email and password combination not found."

// EmailConfig configures the email strategy.
type EmailConfig struct {
	// Sender dispatches passwordless login emails. When nil, the
	// passwordless endpoints are not installed.
	Sender email.Sender

	// Hasher verifies and (on registration) derives password hashes.
	Hasher crypt.Hasher

	// ApplicationName and FromAddress brand outbound email.
	ApplicationName string
	FromAddress     string

	// TokenExpiryMinutes bounds passwordless token life. Default 10.
	TokenExpiryMinutes int

	// AllowPasswordSettingDuringRegistration keeps a password supplied
	// with a passwordless registration request.
	AllowPasswordSettingDuringRegistration bool

	// Restrictions optionally rate limit the login and dispatch routes.
	Restrictions []gin.HandlerFunc

	// RecaptchaSiteKey, when set, is advertised in the descriptor.
	RecaptchaSiteKey string
}

// EmailStrategy logs accounts in by email+password or by a short-lived
// emailed token (passwordless). One login endpoint serves both flows:
// an outstanding token for the username is tried before the password.
type EmailStrategy struct {
	Core
	cfg    EmailConfig
	tokens *tokenStore
}

// NewEmailStrategy creates the "email" strategy.
func NewEmailStrategy(opts Options, cfg EmailConfig) *EmailStrategy {
	if cfg.TokenExpiryMinutes <= 0 {
		cfg.TokenExpiryMinutes = defaultTokenExpiryMinutes
	}
	if cfg.ApplicationName == "" {
		cfg.ApplicationName = "Account"
	}
	if cfg.FromAddress == "" {
		cfg.FromAddress = "no-reply@localhost"
	}
	return &EmailStrategy{
		Core:   newCore("email", opts),
		cfg:    cfg,
		tokens: newTokenStore(time.Duration(cfg.TokenExpiryMinutes) * time.Minute),
	}
}

func (s *EmailStrategy) Description() Description {
	return Description{
		Method:             s.method,
		UsesPassword:       true,
		TokenExpiryMinutes: s.cfg.TokenExpiryMinutes,
		Recaptcha:          s.cfg.RecaptchaSiteKey,
	}
}

func (s *EmailStrategy) Install(r gin.IRouter, prefix string) {
	group := r.Group(prefix)
	group.Use(s.cfg.Restrictions...)

	group.Any("/login.json", s.login)
	group.Any("/verify.json", s.login)

	if s.cfg.Sender != nil {
		// themed passwordless dispatch, e.g. register.json, recover.json
		group.Any("/:theme", s.passwordless)
	}
}

// ProfileFromCredential hashes a password supplied in the captured
// payload so it can survive into the provisioned account.
func (s *EmailStrategy) ProfileFromCredential(id string, extra map[string]any) (*account.Profile, error) {
	profile, err := s.Core.ProfileFromCredential(id, extra)
	if err != nil {
		return nil, err
	}

	if password, _ := extra["password"].(string); password != "" && s.cfg.Hasher != nil {
		hash, err := s.cfg.Hasher.Hash(password)
		if err != nil {
			return nil, err
		}
		profile.Password = hash
	}
	return profile, nil
}

// ProvisionFromProfile keeps a registration password only when the
// configuration allows it.
func (s *EmailStrategy) ProvisionFromProfile(profile *account.Profile) *account.Account {
	a := s.Core.ProvisionFromProfile(profile)
	if profile.Password != "" && s.cfg.AllowPasswordSettingDuringRegistration {
		a.Password = profile.Password
	}
	return a
}

type emailLoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (s *EmailStrategy) login(c *gin.Context) {
	var req emailLoginRequest
	if err := c.ShouldBind(&req); err != nil || req.Username == "" {
		s.loginFailure(c, genericLoginFailure)
		return
	}

	// passwordless short-circuit: an outstanding token acts as a
	// one-time password
	if extra, ok := s.tokens.Redeem(req.Username, req.Password); ok {
		profile, err := s.ProfileFromCredential(req.Username, extra)
		if err != nil {
			web.Error(c, err.Error())
			return
		}
		a, err := s.resolveOrProvision(c.Request.Context(), req.Username, profile, s.ProvisionFromProfile, c.ClientIP())
		if err != nil {
			web.Error(c, err.Error())
			return
		}
		s.loggedIn(c, a, "")
		return
	}

	a, ok := s.FindByCredential(req.Username)
	if ok && a.Password != "" && s.cfg.Hasher != nil {
		verified, err := s.cfg.Hasher.Verify(req.Password, a.Password)
		if err == nil && verified {
			s.loggedIn(c, a, "")
			return
		}
	}
	s.loginFailure(c, genericLoginFailure, req.Username)
}

// passwordless issues a temporary login secret and emails it. The token
// is recorded only after the email dispatch succeeds.
func (s *EmailStrategy) passwordless(c *gin.Context) {
	theme, ok := strings.CutSuffix(c.Param("theme"), ".json")
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		web.Error(c, "Username not specified")
		return
	}
	username, _ := body["username"].(string)
	if username == "" {
		s.loginFailure(c, "Username not specified")
		return
	}

	secret := fields.Generate(10)
	linkPrefix, _ := body["loginLinkPrefix"].(string)

	if err := s.sendTemporaryPassword(c, theme, username, secret, linkPrefix); err != nil {
		s.sink.Audit(audit.FormatSource("", c.ClientIP()), audit.LoginFailure, err.Error())
		web.Error(c, "Error sending email. Please verify that your address is correct and is valid.")
		return
	}

	s.tokens.Issue(username, secret, body)
	s.sink.Audit(audit.FormatSource("", c.ClientIP()), audit.Login, "login email sent", username)
	web.Success(c, "A login email has been sent to email address.")
}

// sendTemporaryPassword renders the themed message copy and dispatches it.
// Themes register and recover get dedicated copy; anything else renders
// the default login/verify message.
func (s *EmailStrategy) sendTemporaryPassword(c *gin.Context, theme, to, secret, linkPrefix string) error {
	app := s.cfg.ApplicationName
	subject := app
	switch theme {
	case "register":
		subject += " Registration"
	case "recover":
		subject += " Account Recovery"
	default:
		subject += " Login"
	}

	expires := s.cfg.TokenExpiryMinutes
	var b strings.Builder
	fmt.Fprintf(&b, "<p>You have received this email because someone requested access to the %s using this email address.</p>\n", app)
	switch {
	case theme == "register" && linkPrefix != "":
		fmt.Fprintf(&b, "<p>Use the following link to verify this email address and complete your registration: <a href=%q>verify</a>.</p>\n", linkPrefix+secret)
	case theme == "recover" && linkPrefix != "":
		fmt.Fprintf(&b, "<p>Use the following link to log into the system to change your password: <a href=%q>login</a>.</p>\n", linkPrefix+secret)
	case linkPrefix != "":
		fmt.Fprintf(&b, "<p>Use the following link to log into the system: <a href=%q>login</a>.</p>\n", linkPrefix+secret)
		fmt.Fprintf(&b, "<p>Alternatively, you can use the following password: %s</p>\n", secret)
		fmt.Fprintf(&b, "<p>Note: this link and password will expire within %d minutes of request time.</p>\n", expires)
	default:
		fmt.Fprintf(&b, "<p>Use the following password to log into the system: %s</p>\n", secret)
		fmt.Fprintf(&b, "<p>Note: this password will expire within %d minutes of request time.</p>\n", expires)
	}
	b.WriteString("<p>If this is not you, please contact system administrators.</p>\n")
	fmt.Fprintf(&b, "<p>Kind Regards,</p>\n<p>%s Team</p>\n", app)
	b.WriteString("<p>WARNING: This is an automatically generated email. Do not reply to it.</p>\n")

	return s.cfg.Sender.Send(c.Request.Context(), to, s.cfg.FromAddress, subject, b.String())
}
