package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/sqlite"
)

// Connect opens the database named by cfg.Storage.Driver. The caller owns
// the returned pool.
func Connect(ctx context.Context, cfg *config.Config) (*sql.DB, Dialect, error) {
	dialect, err := ParseDialect(cfg.Storage.Driver)
	if err != nil {
		return nil, "", err
	}
	switch dialect {
	case DialectPostgres:
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, "", fmt.Errorf("connecting to postgres: %w", err)
		}
		return client.DB, dialect, nil
	default:
		client, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, "", fmt.Errorf("opening sqlite: %w", err)
		}
		return client.DB, dialect, nil
	}
}
