package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusmosca/bookstore-backoffice/internal/config"
	"github.com/matheusmosca/bookstore-backoffice/internal/logger"
)

const connectAttempts = 30

// InitDB opens the connection pool and waits for the database to accept
// connections.
func InitDB(ctx context.Context, cfg config.Database) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	log := logger.GetLogger(ctx)
	for i := 0; i < connectAttempts; i++ {
		if err := pool.Ping(ctx); err == nil {
			log.WithField("database", cfg.Name).Info("connected to database")
			return pool, nil
		}
		log.Infof("waiting for database... (%d/%d)", i+1, connectAttempts)

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to database after %d attempts", connectAttempts)
}

// Open connects, waiting for the database to come up, and then applies the
// schema over the ready database.
func Open(ctx context.Context, cfg config.Database) (*Store, error) {
	return opener{connect: InitDB, migrate: Migrate}.open(ctx, cfg)
}

type opener struct {
	connect func(ctx context.Context, cfg config.Database) (*pgxpool.Pool, error)
	migrate func(ctx context.Context, dsn string) error
}

func (o opener) open(ctx context.Context, cfg config.Database) (*Store, error) {
	pool, err := o.connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := o.migrate(ctx, cfg.DSN()); err != nil {
		pool.Close()
		return nil, err
	}
	return NewStore(pool), nil
}
