package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/cerebro/internal/model"
)

// SQLiteStore persists verification states in a SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s, err := NewSQLiteStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database and creates the table if needed.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate verification store: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS verification_states (
		user_id     TEXT PRIMARY KEY,
		level       INTEGER NOT NULL,
		method      TEXT NOT NULL DEFAULT '',
		verified_at INTEGER NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, userID string) (State, error) {
	var (
		level    int
		method   string
		unixNano int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT level, method, verified_at FROM verification_states WHERE user_id = ?`, userID,
	).Scan(&level, &method, &unixNano)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("load verification %s: %w", userID, err)
	}
	return State{
		Level:      model.Level(level),
		Method:     Method(method),
		VerifiedAt: time.Unix(0, unixNano).UTC(),
	}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, userID string, st State) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO verification_states (user_id, level, method, verified_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		level = excluded.level,
		method = excluded.method,
		verified_at = excluded.verified_at`,
		userID, int(st.Level), string(st.Method), st.VerifiedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save verification %s: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
