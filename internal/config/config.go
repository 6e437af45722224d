// Package config loads service configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppPort   string `env:"APP_PORT" envDefault:"8080"`
	APIPrefix string `env:"API_PREFIX" envDefault:"/api/accounts"`

	// DatabaseDSN enables the Postgres-backed directory. Empty keeps
	// accounts in memory.
	DatabaseDSN string `env:"DATABASE_DSN"`

	// RedisAddr enables the Redis session store. Empty keeps sessions in
	// memory.
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	ApplicationName string `env:"APPLICATION_NAME" envDefault:"Account"`

	// Email delivery. SMTPAddr takes priority; SESRegion enables SES;
	// neither set logs outgoing mail instead of sending it.
	EmailFrom string `env:"EMAIL_FROM" envDefault:"no-reply@localhost"`
	SMTPAddr  string `env:"SMTP_ADDR"`
	SESRegion string `env:"SES_REGION"`

	TokenExpiryMinutes                     int  `env:"TOKEN_EXPIRY_MINUTES" envDefault:"10"`
	AllowPasswordSettingDuringRegistration bool `env:"ALLOW_PASSWORD_AT_REGISTRATION"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	// NoAuthAccountID enables the development login backdoor. Never set
	// in production.
	NoAuthAccountID string `env:"NOAUTH_ACCOUNT_ID"`

	AdminRoles   []string `env:"ADMIN_ROLES" envDefault:"admin" envSeparator:","`
	DefaultRoles []string `env:"DEFAULT_ROLES" envSeparator:","`

	RecaptchaSiteKey   string `env:"RECAPTCHA_SITE_KEY"`
	RecaptchaSecretKey string `env:"RECAPTCHA_SECRET_KEY"`

	// Failed-login blocking for the email strategy.
	BlockAttemptWindow time.Duration `env:"BLOCK_ATTEMPT_WINDOW" envDefault:"1m"`
	BlockAttemptCount  int           `env:"BLOCK_ATTEMPT_COUNT" envDefault:"5"`
	BlockDuration      time.Duration `env:"BLOCK_DURATION" envDefault:"5m"`
}

func Load() (Config, error) {
	return env.ParseAs[Config]()
}

// RoleSet converts a role list into the enabled-role map used by the
// account model.
func RoleSet(roles []string) map[string]bool {
	out := make(map[string]bool, len(roles))
	for _, r := range roles {
		if r != "" {
			out[r] = true
		}
	}
	return out
}
