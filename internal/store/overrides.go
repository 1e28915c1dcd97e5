package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"langstrings/internal/i18n"
)

const overridesSchema = `
CREATE TABLE IF NOT EXISTS overrides (
	language   TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (language, key)
)`

const upsertOverride = `
INSERT INTO overrides (language, key, value, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (language, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

// ErrEmptyKey is returned when an override has no dotted path.
var ErrEmptyKey = errors.New("override key must not be empty")

// Entry is a stored override.
type Entry struct {
	Language  string
	Key       string
	Value     string
	UpdatedAt time.Time
}

// OverrideStore persists override bundles per language in SQLite.
type OverrideStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenOverrideStore opens (and creates if needed) the SQLite database at path.
func OpenOverrideStore(ctx context.Context, path string, logger *zap.Logger) (*OverrideStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open override database: %w", err)
	}

	if _, err := db.ExecContext(ctx, overridesSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create override schema: %w", err)
	}

	logger.Debug("Override store opened", zap.String("path", path))
	return &OverrideStore{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *OverrideStore) Close() error {
	return s.db.Close()
}

// Set stores or replaces one override.
func (s *OverrideStore) Set(ctx context.Context, language, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, err := s.db.ExecContext(ctx, upsertOverride, language, key, norm.NFC.String(value)); err != nil {
		return fmt.Errorf("failed to store override %q: %w", key, err)
	}
	return nil
}

// Delete removes one override and reports whether it existed.
func (s *OverrideStore) Delete(ctx context.Context, language, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM overrides WHERE language = ? AND key = ?`, language, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete override %q: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete override %q: %w", key, err)
	}
	return affected > 0, nil
}

// Import stores every entry of overrides in a single transaction.
func (s *OverrideStore) Import(ctx context.Context, language string, overrides i18n.Overrides) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, upsertOverride)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	for key, value := range overrides {
		if key == "" {
			return 0, ErrEmptyKey
		}
		if _, err := stmt.ExecContext(ctx, language, key, norm.NFC.String(value)); err != nil {
			return 0, fmt.Errorf("failed to import override %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	s.logger.Info("Imported overrides",
		zap.String("language", language),
		zap.Int("count", len(overrides)))
	return len(overrides), nil
}

// List returns the overrides of a language ordered by key.
func (s *OverrideStore) List(ctx context.Context, language string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT language, key, value, updated_at FROM overrides WHERE language = ? ORDER BY key`, language)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Language, &e.Key, &e.Value, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	return entries, nil
}

// Load returns the overrides of a language as a bundle, or nil when the
// language has none.
func (s *OverrideStore) Load(ctx context.Context, language string) (i18n.Overrides, error) {
	entries, err := s.List(ctx, language)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	overrides := make(i18n.Overrides, len(entries))
	for _, e := range entries {
		overrides[e.Key] = e.Value
	}
	return overrides, nil
}
