package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/serroba/fuselink/internal/link"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                                // Local SQLite driver
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS links (
		id          TEXT PRIMARY KEY,
		destination TEXT NOT NULL,
		created_at  INTEGER NOT NULL,
		click_count INTEGER NOT NULL DEFAULT 0,
		policy      TEXT NOT NULL DEFAULT '"Permanent"',
		expires_at  INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_links_expires_at ON links(expires_at);
`

// SQLiteStore is a SQLite (or libSQL) implementation of link.Repository.
// Timestamps are stored as unix microseconds, matching Postgres precision.
type SQLiteStore struct {
	db *sql.DB
	// mu serializes Update: SQLite has no row locks, and libSQL remote
	// connections do not share one writer.
	mu sync.Mutex
}

// NewSQLiteStore opens dbURL with the local SQLite driver, or the libSQL
// driver for libsql:// and wss:// URLs, and creates the schema.
func NewSQLiteStore(ctx context.Context, dbURL string) (*SQLiteStore, error) {
	driverName := "sqlite"
	if strings.HasPrefix(dbURL, "libsql://") || strings.HasPrefix(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, l *link.Link) error {
	data, expiresAt, err := encodePolicy(l.Policy)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO links (id, destination, created_at, click_count, policy, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		string(l.ID), l.Destination, l.CreatedAt.UnixMicro(), l.ClickCount, string(data), unixMicros(expiresAt),
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("%w: %s", link.ErrConflict, l.ID)
	}

	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, id link.ID) (bool, error) {
	var exists bool

	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM links WHERE id = ?)`, string(id)).Scan(&exists)

	return exists, err
}

func (s *SQLiteStore) Get(ctx context.Context, id link.ID) (*link.Link, error) {
	return s.get(ctx, s.db, id)
}

type sqliteQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) get(ctx context.Context, q sqliteQuerier, id link.ID) (*link.Link, error) {
	var (
		l         link.Link
		rawID     string
		createdAt int64
		data      string
	)

	err := q.QueryRowContext(ctx,
		`SELECT id, destination, created_at, click_count, policy FROM links WHERE id = ?`,
		string(id),
	).Scan(&rawID, &l.Destination, &createdAt, &l.ClickCount, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, link.ErrNotFound
		}

		return nil, err
	}

	l.ID = link.ID(rawID)
	l.CreatedAt = time.UnixMicro(createdAt).UTC()

	l.Policy, err = decodePolicy([]byte(data))
	if err != nil {
		return nil, err
	}

	return &l, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id link.ID, mutate link.Mutation) (*link.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() { _ = tx.Rollback() }()

	l, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if !mutate(l) {
		return l, tx.Commit()
	}

	data, expiresAt, err := encodePolicy(l.Policy)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE links SET policy = ?, click_count = ?, expires_at = ? WHERE id = ?`,
		string(data), l.ClickCount, unixMicros(expiresAt), string(id),
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return l, nil
}

func (s *SQLiteStore) Overwrite(ctx context.Context, id link.ID, destination string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE links SET destination = ? WHERE id = ?`, destination, string(id))

	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, id link.ID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, string(id))

	return err
}

func (s *SQLiteStore) ExpiredBefore(ctx context.Context, t time.Time, limit int) ([]link.ID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM links
		WHERE expires_at IS NOT NULL AND expires_at <= ?
		ORDER BY expires_at
		LIMIT ?`,
		t.UnixMicro(), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []link.ID

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, link.ID(id))
	}

	return ids, rows.Err()
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Shutdown closes the database.
func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}

func unixMicros(t *time.Time) any {
	if t == nil {
		return nil
	}

	return t.UnixMicro()
}

// Compile-time check.
var _ link.Repository = (*SQLiteStore)(nil)
