// Package store is the SQLite persistence layer behind the engine's
// external collaborator interfaces: the canonical profile, fill settings,
// and per-domain site rules. The engine itself never touches storage; it
// receives immutable values composed from here per invocation.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/formfill/fill"
	"github.com/hazyhaar/formfill/profile"
)

// Store is the formfill database handle.
type Store struct {
	DB *sql.DB
}

// pragmas applied on open. WAL and a generous busy timeout keep the
// control API responsive while a fill pass reads settings.
var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Open opens (or creates) the database at path, applies pragmas and the
// schema. Parent directories are created as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{DB: db}, nil
}

// OpenMemory opens an in-memory store for tests.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS profile (
	field TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	skip_if_not_empty INTEGER NOT NULL DEFAULT 1,
	dry_run INTEGER NOT NULL DEFAULT 0,
	name_lock_enabled INTEGER NOT NULL DEFAULT 0,
	name_lock_mode TEXT NOT NULL DEFAULT 'IF_EMPTY'
);

CREATE TABLE IF NOT EXISTS site_rules (
	domain TEXT PRIMARY KEY,
	enabled_types TEXT NOT NULL DEFAULT '[]',
	disabled_types TEXT NOT NULL DEFAULT '[]',
	custom_map TEXT NOT NULL DEFAULT '{}',
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// Profile loads the stored raw attributes and normalizes them.
func (s *Store) Profile() (profile.Profile, error) {
	rows, err := s.DB.Query(`SELECT field, value FROM profile`)
	if err != nil {
		return nil, fmt.Errorf("store: load profile: %w", err)
	}
	defer rows.Close()

	raw := make(map[profile.Field]string)
	for rows.Next() {
		var f, v string
		if err := rows.Scan(&f, &v); err != nil {
			return nil, fmt.Errorf("store: scan profile: %w", err)
		}
		raw[profile.Field(f)] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: load profile: %w", err)
	}
	return profile.Normalize(raw), nil
}

// PutProfile replaces the stored raw attributes. Unknown field keys are
// rejected before any write.
func (s *Store) PutProfile(raw map[profile.Field]string) error {
	for f := range raw {
		if !profile.Known(f) {
			return fmt.Errorf("store: unknown profile field %q", f)
		}
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return fmt.Errorf("store: put profile: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM profile`); err != nil {
		return fmt.Errorf("store: put profile: %w", err)
	}
	for f, v := range raw {
		if _, err := tx.Exec(`INSERT INTO profile (field, value) VALUES (?, ?)`, string(f), v); err != nil {
			return fmt.Errorf("store: put profile %s: %w", f, err)
		}
	}
	return tx.Commit()
}

// Settings are the site-wide policy defaults.
type Settings struct {
	SkipIfNotEmpty bool          `json:"skipIfNotEmpty"`
	DryRun         bool          `json:"dryRun"`
	NameLock       fill.NameLock `json:"nameLock"`
}

// DefaultSettings returns the out-of-box policy.
func DefaultSettings() Settings {
	return Settings{
		SkipIfNotEmpty: true,
		NameLock:       fill.NameLock{Enabled: false, Mode: fill.NameLockIfEmpty},
	}
}

func validNameLockMode(m fill.NameLockMode) bool {
	switch m {
	case fill.NameLockIfEmpty, fill.NameLockNever, fill.NameLockProtect:
		return true
	}
	return false
}

// Settings loads the stored settings, defaults when none were saved.
func (s *Store) Settings() (Settings, error) {
	row := s.DB.QueryRow(`SELECT skip_if_not_empty, dry_run, name_lock_enabled, name_lock_mode FROM settings WHERE id = 1`)
	var out Settings
	var mode string
	err := row.Scan(&out.SkipIfNotEmpty, &out.DryRun, &out.NameLock.Enabled, &mode)
	if err == sql.ErrNoRows {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("store: load settings: %w", err)
	}
	out.NameLock.Mode = fill.NameLockMode(mode)
	return out, nil
}

// PutSettings saves the settings, validating the name-lock mode first.
func (s *Store) PutSettings(set Settings) error {
	if !validNameLockMode(set.NameLock.Mode) {
		return fmt.Errorf("store: invalid name lock mode %q", set.NameLock.Mode)
	}
	_, err := s.DB.Exec(`
		INSERT INTO settings (id, skip_if_not_empty, dry_run, name_lock_enabled, name_lock_mode)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			skip_if_not_empty = excluded.skip_if_not_empty,
			dry_run = excluded.dry_run,
			name_lock_enabled = excluded.name_lock_enabled,
			name_lock_mode = excluded.name_lock_mode`,
		set.SkipIfNotEmpty, set.DryRun, set.NameLock.Enabled, string(set.NameLock.Mode))
	if err != nil {
		return fmt.Errorf("store: put settings: %w", err)
	}
	return nil
}
