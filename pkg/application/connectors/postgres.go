package connectors

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // golang postgres driver
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"fareglitch/pkg/logx"
)

// Postgres lazily opens one pooled connection for the whole process. A
// failed first connect panics: the service cannot run without its store.
type Postgres struct {
	value           *sqlx.DB
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	init            sync.Once
}

func (p *Postgres) Client(ctx context.Context) *sqlx.DB {
	p.init.Do(func() {
		p.value = lo.Must(sqlx.ConnectContext(ctx, "pgx", p.DSN))

		p.value.SetMaxOpenConns(p.MaxOpenConns)
		p.value.SetMaxIdleConns(p.MaxIdleConns)
		p.value.SetConnMaxLifetime(p.ConnMaxLifetime)

		logger(ctx).Info("postgres connected", p.target()...)
	})

	return p.value
}

// Ping backs the readiness probe.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.Client(ctx).PingContext(ctx) //nolint:wrapcheck
}

func (p *Postgres) Close(ctx context.Context) {
	if p.value == nil {
		return
	}

	if err := p.value.Close(); err != nil {
		logger(ctx).Error("postgresClient.Close", logx.Error(err))
	}

	logger(ctx).Info("postgres disconnected", p.target()...)
}

// target describes the server without credentials. Both URL and key=value
// DSNs are understood.
func (p *Postgres) target() []any {
	cfg, err := pgx.ParseConfig(p.DSN)
	if err != nil {
		return nil
	}

	return []any{
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
	}
}
