package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/fuselink/internal/link"
)

const pgUniqueViolation = "23505"

// PostgresStore is a PostgreSQL implementation of link.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Insert(ctx context.Context, l *link.Link) error {
	query := `
		INSERT INTO links (id, destination, created_at, click_count, policy, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	data, expiresAt, err := encodePolicy(l.Policy)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, query,
		string(l.ID),
		l.Destination,
		l.CreatedAt,
		l.ClickCount,
		data,
		expiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", link.ErrConflict, l.ID)
		}

		return err
	}

	return nil
}

func (p *PostgresStore) Exists(ctx context.Context, id link.ID) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM links WHERE id = $1)`, string(id)).Scan(&exists)

	return exists, err
}

func (p *PostgresStore) Get(ctx context.Context, id link.ID) (*link.Link, error) {
	query := `
		SELECT id, destination, created_at, click_count, policy
		FROM links
		WHERE id = $1
	`

	return scanLink(p.pool.QueryRow(ctx, query, string(id)))
}

// Update holds a row lock for the duration of mutate so concurrent reads of
// the same id are serialized.
func (p *PostgresStore) Update(ctx context.Context, id link.ID, mutate link.Mutation) (*link.Link, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		SELECT id, destination, created_at, click_count, policy
		FROM links
		WHERE id = $1
		FOR UPDATE
	`

	l, err := scanLink(tx.QueryRow(ctx, query, string(id)))
	if err != nil {
		return nil, err
	}

	if !mutate(l) {
		return l, tx.Commit(ctx)
	}

	data, expiresAt, err := encodePolicy(l.Policy)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE links SET policy = $2, click_count = $3, expires_at = $4 WHERE id = $1`,
		string(id), data, l.ClickCount, expiresAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return l, nil
}

func (p *PostgresStore) Overwrite(ctx context.Context, id link.ID, destination string) error {
	_, err := p.pool.Exec(ctx, `UPDATE links SET destination = $2 WHERE id = $1`, string(id), destination)

	return err
}

func (p *PostgresStore) Delete(ctx context.Context, id link.ID) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM links WHERE id = $1`, string(id))

	return err
}

func (p *PostgresStore) ExpiredBefore(ctx context.Context, t time.Time, limit int) ([]link.ID, error) {
	query := `
		SELECT id
		FROM links
		WHERE expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
	`

	rows, err := p.pool.Query(ctx, query, t, limit)
	if err != nil {
		return nil, err
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	out := make([]link.ID, len(ids))
	for i, id := range ids {
		out[i] = link.ID(id)
	}

	return out, nil
}

// Ping reports whether the database is reachable.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

func scanLink(row pgx.Row) (*link.Link, error) {
	var (
		l    link.Link
		id   string
		data []byte
	)

	err := row.Scan(&id, &l.Destination, &l.CreatedAt, &l.ClickCount, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, link.ErrNotFound
		}

		return nil, err
	}

	l.ID = link.ID(id)

	l.Policy, err = decodePolicy(data)
	if err != nil {
		return nil, err
	}

	return &l, nil
}

// Compile-time check.
var _ link.Repository = (*PostgresStore)(nil)
