package statestore

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SQLiteKV stores snapshot entries in a single kv table on disk.
type SQLiteKV struct {
	db *sql.DB
}

var _ KV = &SQLiteKV{}

// OpenSQLiteKV opens (and if needed creates) the snapshot database at path,
// creating parent directories along the way.
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	if path == "" {
		return nil, errors.New("sqlite kv: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "sqlite kv: create state directory")
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrap(err, "sqlite kv: open database")
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlite kv: create schema")
	}
	log.Debug().Str("component", "statestore").Str("path", path).Msg("opened snapshot database")
	return &SQLiteKV{db: db}, nil
}

func (s *SQLiteKV) Get(key string) ([]byte, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, errors.New("sqlite kv: nil store")
	}
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "sqlite kv: get %q", key)
	}
	return value, true, nil
}

func (s *SQLiteKV) Set(key string, value []byte) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite kv: nil store")
	}
	if key == "" {
		return errors.New("sqlite kv: key is empty")
	}
	_, err := s.db.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return errors.Wrapf(err, "sqlite kv: set %q", key)
	}
	return nil
}

func (s *SQLiteKV) Delete(key string) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite kv: nil store")
	}
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return errors.Wrapf(err, "sqlite kv: delete %q", key)
	}
	return nil
}

func (s *SQLiteKV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
