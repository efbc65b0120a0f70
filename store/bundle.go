package store

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hazyhaar/formfill/profile"
)

// Bundle is the JSON import/export format for the whole configuration.
type Bundle struct {
	Profile  map[profile.Field]string `json:"profile,omitempty"`
	Settings *Settings                `json:"settings,omitempty"`
	Rules    []Rule                   `json:"rules,omitempty"`
}

// Import replaces stored configuration from a JSON bundle. The bundle is
// validated in full before the first write: a malformed import is
// rejected with zero partial effects.
func (s *Store) Import(r io.Reader) error {
	var b Bundle
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return fmt.Errorf("store: import: %w", err)
	}

	for f := range b.Profile {
		if !profile.Known(f) {
			return fmt.Errorf("store: import: unknown profile field %q", f)
		}
	}
	if b.Settings != nil && !validNameLockMode(b.Settings.NameLock.Mode) {
		return fmt.Errorf("store: import: invalid name lock mode %q", b.Settings.NameLock.Mode)
	}
	for _, rule := range b.Rules {
		if err := rule.validate(); err != nil {
			return fmt.Errorf("store: import: %w", err)
		}
	}

	if b.Profile != nil {
		if err := s.PutProfile(b.Profile); err != nil {
			return err
		}
	}
	if b.Settings != nil {
		if err := s.PutSettings(*b.Settings); err != nil {
			return err
		}
	}
	for _, rule := range b.Rules {
		if err := s.PutRule(rule); err != nil {
			return err
		}
	}
	return nil
}

// Export writes the current configuration as a JSON bundle.
func (s *Store) Export(w io.Writer) error {
	rows, err := s.DB.Query(`SELECT field, value FROM profile`)
	if err != nil {
		return fmt.Errorf("store: export: %w", err)
	}
	raw := make(map[profile.Field]string)
	for rows.Next() {
		var f, v string
		if err := rows.Scan(&f, &v); err != nil {
			rows.Close()
			return fmt.Errorf("store: export: %w", err)
		}
		raw[profile.Field(f)] = v
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("store: export: %w", err)
	}

	set, err := s.Settings()
	if err != nil {
		return err
	}
	rules, err := s.Rules()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Bundle{Profile: raw, Settings: &set, Rules: rules})
}
