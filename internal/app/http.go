package app

import (
	"context"
	"net/http"

	"accounts-service/internal/audit"
	"accounts-service/internal/auth"
	"accounts-service/internal/config"
	"accounts-service/internal/crypt"
	"accounts-service/internal/fields"
	"accounts-service/internal/handler"
	"accounts-service/internal/restriction"
	"accounts-service/internal/session"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessions := session.NewManager(infra.Sessions, cfg.SessionTTL)
	sink := audit.NewSlogSink(nil)
	hasher := crypt.NewPBKDF2Hasher(crypt.PBKDF2Options{})
	fieldSet := fields.Defaults()

	opts := auth.Options{
		Directory:    infra.Directory,
		DefaultRoles: config.RoleSet(cfg.DefaultRoles),
		Custom:       fieldSet,
		Sessions:     sessions,
		Audit:        sink,
	}

	var recaptcha *restriction.RecaptchaSettings
	if cfg.RecaptchaSiteKey != "" && cfg.RecaptchaSecretKey != "" {
		recaptcha = &restriction.RecaptchaSettings{
			PublicKey:  cfg.RecaptchaSiteKey,
			PrivateKey: cfg.RecaptchaSecretKey,
		}
	}

	emailStrategy := auth.NewEmailStrategy(opts, auth.EmailConfig{
		Sender:             infra.Sender,
		Hasher:             hasher,
		ApplicationName:    cfg.ApplicationName,
		FromAddress:        cfg.EmailFrom,
		TokenExpiryMinutes: cfg.TokenExpiryMinutes,
		AllowPasswordSettingDuringRegistration: cfg.AllowPasswordSettingDuringRegistration,
		Restrictions: []gin.HandlerFunc{
			restriction.Failure(&restriction.FailureSettings{
				AttemptWindow: cfg.BlockAttemptWindow,
				AttemptCount:  cfg.BlockAttemptCount,
				BlockDuration: cfg.BlockDuration,
			}),
			restriction.Recaptcha(recaptcha),
		},
		RecaptchaSiteKey: cfg.RecaptchaSiteKey,
	})

	strategies := []auth.Strategy{emailStrategy}

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		googleStrategy, err := auth.NewOAuthStrategy(ctx, opts, auth.OAuthConfig{
			Method:       "google",
			Issuer:       "https://accounts.google.com",
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
		if err != nil {
			return nil, nil, err
		}
		strategies = append(strategies, googleStrategy)
	}

	if cfg.NoAuthAccountID != "" {
		strategies = append(strategies, auth.NewNoAuthStrategy(opts, "", cfg.NoAuthAccountID))
	}

	registry := auth.NewRegistry(strategies...)

	accountsHandler := handler.New(handler.Options{
		Prefix:     cfg.APIPrefix,
		Registry:   registry,
		Directory:  infra.Directory,
		Fields:     fieldSet,
		Env:        &fields.Env{Hasher: hasher},
		Sessions:   sessions,
		Audit:      sink,
		AdminRoles: config.RoleSet(cfg.AdminRoles),
	})

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	accountsHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router, infra.Close, nil
}
