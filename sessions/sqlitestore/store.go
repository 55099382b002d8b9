// Package sqlitestore persists the session credentials in a small SQLite key/value table.
package sqlitestore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/pkg/errors"

	// modernc.org/sqlite registers the "sqlite" driver
	_ "modernc.org/sqlite"
)

const (
	FileName = "session.sqlite"

	keyToken    = "token"
	keyUsername = "username"
)

var _ sessions.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the credential database in dir.
func Open(ctx context.Context, dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("[sqlitestore.Open] data directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.Open] MkdirAll")
	}
	return OpenPath(ctx, filepath.Join(dir, FileName))
}

// OpenPath opens the database at path. ":memory:" is accepted for tests.
func OpenPath(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.OpenPath] sql.Open")
	}
	// a single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	stmts := []string{
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS kv (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "[sqlitestore.OpenPath] migrate")
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Read(ctx context.Context) (*sessions.Credentials, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT k, v FROM kv WHERE k IN (?, ?)`, keyToken, keyUsername)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Read] query")
	}
	defer rows.Close()

	values := make(map[string]string, 2)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errors.Wrap(err, "[Store.Read] scan")
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[Store.Read] rows")
	}

	token, hasToken := values[keyToken]
	username, hasUsername := values[keyUsername]
	if !hasToken || !hasUsername {
		return nil, nil
	}
	return &sessions.Credentials{Token: token, Username: username}, nil
}

func (s *Store) Write(ctx context.Context, creds sessions.Credentials) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for k, v := range map[string]string{keyToken: creds.Token, keyUsername: creds.Username} {
			if _, err := tx.ExecContext(ctx, `INSERT INTO kv(k, v) VALUES(?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, k, v); err != nil {
				return errors.Wrapf(err, "[Store.Write] %s", k)
			}
		}
		return nil
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE k IN (?, ?)`, keyToken, keyUsername); err != nil {
			return errors.Wrap(err, "[Store.Clear] delete")
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}
