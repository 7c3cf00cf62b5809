// Package settings persists small pieces of client state, most importantly
// the configured Apps Script endpoint URL.
package settings

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultEndpointURL is the placeholder used until a real deployment URL is
// configured. It matches the expected URL shape but points nowhere useful.
const DefaultEndpointURL = "https://script.google.com/macros/s/REPLACE_WITH_DEPLOYMENT_ID/exec"

const endpointURLKey = "api_endpoint_url"

// Store is a SQLite-backed key/value store. Every change is written through
// immediately; there is no in-memory state to lose.
type Store struct {
	db              *sql.DB
	defaultEndpoint string
}

// NewStore opens (or creates) the settings database at path. defaultEndpoint
// is returned by EndpointURL until a real URL is persisted; empty means
// DefaultEndpointURL.
func NewStore(path, defaultEndpoint string) (*Store, error) {
	if defaultEndpoint == "" {
		defaultEndpoint = DefaultEndpointURL
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS client_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`); err != nil {
		return nil, fmt.Errorf("create settings table: %w", err)
	}
	return &Store{db: db, defaultEndpoint: defaultEndpoint}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PingContext checks the database connection.
func (s *Store) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EndpointURL returns the persisted endpoint URL, or the placeholder when
// none has been stored yet.
func (s *Store) EndpointURL(ctx context.Context) (string, error) {
	val, err := s.get(ctx, endpointURLKey)
	if err != nil {
		return "", err
	}
	if val == "" {
		return s.defaultEndpoint, nil
	}
	return val, nil
}

// SetEndpointURL persists the endpoint URL.
func (s *Store) SetEndpointURL(ctx context.Context, url string) error {
	return s.set(ctx, endpointURLKey, url)
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT value FROM client_settings WHERE key = ?`, key)

	var val string
	if err := row.Scan(&val); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (s *Store) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, value, time.Now())
	return err
}
