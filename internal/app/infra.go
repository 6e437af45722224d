package app

import (
	"context"
	"database/sql"
	"log/slog"

	"accounts-service/internal/account"
	"accounts-service/internal/config"
	"accounts-service/internal/email"
	"accounts-service/internal/redis"
	"accounts-service/internal/session"

	_ "github.com/lib/pq"
)

type Infra struct {
	Directory account.Directory
	Sessions  session.Store
	Sender    email.Sender

	db *sql.DB
}

// setupInfra chooses backends from configuration: Postgres and Redis when
// configured, in-memory fallbacks otherwise.
func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	if cfg.DatabaseDSN != "" {
		sqlDB, err := sql.Open("postgres", cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return nil, err
		}

		directory, err := account.NewPostgresDirectory(ctx, sqlDB)
		if err != nil {
			return nil, err
		}
		infra.db = sqlDB
		infra.Directory = directory
		slog.Info("database ready")
	} else {
		infra.Directory = account.NewMemoryDirectory()
		slog.Info("using in-memory account directory")
	}

	if cfg.RedisAddr != "" {
		redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		infra.Sessions = session.NewRedisStore(redisClient.Client)
		slog.Info("redis ready")
	} else {
		infra.Sessions = session.NewMemoryStore()
		slog.Info("using in-memory session store")
	}

	sender, err := setupSender(ctx, cfg)
	if err != nil {
		return nil, err
	}
	infra.Sender = sender

	return infra, nil
}

func setupSender(ctx context.Context, cfg config.Config) (email.Sender, error) {
	var transport email.Sender
	switch {
	case cfg.SMTPAddr != "":
		transport = &email.SMTPSender{Addr: cfg.SMTPAddr}
	case cfg.SESRegion != "":
		ses, err := email.NewSESSender(ctx, cfg.SESRegion)
		if err != nil {
			return nil, err
		}
		transport = ses
	default:
		slog.Info("no email transport configured, logging outgoing email")
		transport = &email.LogSender{}
	}

	return &email.Filtered{
		Transport: transport,
		Filters:   []email.Filter{email.SyntaxFilter{}},
	}, nil
}

func (i *Infra) Close() error {
	if i.db != nil {
		return i.db.Close()
	}
	return nil
}
