package container

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/fuselink/internal/link"
	"github.com/serroba/fuselink/internal/store"
)

// LinkStore is a durable link repository that can report its health.
type LinkStore interface {
	link.Repository
	Ping(ctx context.Context) error
}

// OpenStore opens the store named by dbURL. Postgres databases are migrated first.
func OpenStore(ctx context.Context, dbURL string) (LinkStore, error) {
	switch {
	case dbURL == "" || dbURL == "memory://":
		return store.NewMemoryStore(), nil
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		return openPostgres(ctx, dbURL)
	case strings.HasPrefix(dbURL, "file:"),
		strings.HasPrefix(dbURL, "libsql://"),
		strings.HasPrefix(dbURL, "wss://"),
		dbURL == ":memory:":
		return store.NewSQLiteStore(ctx, dbURL)
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %q", schemeOf(dbURL))
	}
}

// InProcessStore reports whether dbURL names a store only visible to this process.
func InProcessStore(dbURL string) bool {
	return dbURL == "" || dbURL == "memory://" || dbURL == ":memory:"
}

func openPostgres(ctx context.Context, dbURL string) (LinkStore, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := store.MigratePostgres(pool); err != nil {
		pool.Close()

		return nil, err
	}

	return store.NewPostgresStore(pool), nil
}

func schemeOf(dbURL string) string {
	if scheme, _, ok := strings.Cut(dbURL, "://"); ok {
		return scheme
	}

	scheme, _, _ := strings.Cut(dbURL, ":")

	return scheme
}
