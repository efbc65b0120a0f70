package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hazyhaar/formfill/fill"
	"github.com/hazyhaar/formfill/profile"
)

// Rule is the per-domain policy override bundle.
type Rule struct {
	Domain        string                   `json:"domain"`
	EnabledTypes  []profile.Field          `json:"enabledTypes,omitempty"`
	DisabledTypes []profile.Field          `json:"disabledTypes,omitempty"`
	CustomMap     map[profile.Field]string `json:"customMap,omitempty"`
}

func (r Rule) validate() error {
	if strings.TrimSpace(r.Domain) == "" {
		return fmt.Errorf("store: rule without domain")
	}
	for _, f := range r.EnabledTypes {
		if !profile.Known(f) {
			return fmt.Errorf("store: rule %s: unknown enabled type %q", r.Domain, f)
		}
	}
	for _, f := range r.DisabledTypes {
		if !profile.Known(f) {
			return fmt.Errorf("store: rule %s: unknown disabled type %q", r.Domain, f)
		}
	}
	for f := range r.CustomMap {
		if !profile.Known(f) {
			return fmt.Errorf("store: rule %s: unknown custom map type %q", r.Domain, f)
		}
	}
	return nil
}

// RuleFor returns the rule for domain, nil when none exists.
func (s *Store) RuleFor(domain string) (*Rule, error) {
	row := s.DB.QueryRow(`SELECT domain, enabled_types, disabled_types, custom_map FROM site_rules WHERE domain = ?`, domain)
	r, err := scanRule(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: rule for %s: %w", domain, err)
	}
	return r, nil
}

// Rules lists every stored rule, ordered by domain.
func (s *Store) Rules() ([]Rule, error) {
	rows, err := s.DB.Query(`SELECT domain, enabled_types, disabled_types, custom_map FROM site_rules ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("store: list rules: %w", err)
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		r, err := scanRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("store: list rules: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanRule(scan func(...any) error) (*Rule, error) {
	var r Rule
	var enabled, disabled, custom string
	if err := scan(&r.Domain, &enabled, &disabled, &custom); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(enabled), &r.EnabledTypes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(disabled), &r.DisabledTypes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(custom), &r.CustomMap); err != nil {
		return nil, err
	}
	return &r, nil
}

// PutRule validates and upserts one rule.
func (s *Store) PutRule(r Rule) error {
	if err := r.validate(); err != nil {
		return err
	}
	enabled, _ := json.Marshal(orEmpty(r.EnabledTypes))
	disabled, _ := json.Marshal(orEmpty(r.DisabledTypes))
	custom, _ := json.Marshal(orEmptyMap(r.CustomMap))

	_, err := s.DB.Exec(`
		INSERT INTO site_rules (domain, enabled_types, disabled_types, custom_map, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'))
		ON CONFLICT(domain) DO UPDATE SET
			enabled_types = excluded.enabled_types,
			disabled_types = excluded.disabled_types,
			custom_map = excluded.custom_map,
			updated_at = excluded.updated_at`,
		r.Domain, string(enabled), string(disabled), string(custom))
	if err != nil {
		return fmt.Errorf("store: put rule %s: %w", r.Domain, err)
	}
	return nil
}

// DeleteRule removes the rule for domain. Deleting a missing rule is not
// an error.
func (s *Store) DeleteRule(domain string) error {
	_, err := s.DB.Exec(`DELETE FROM site_rules WHERE domain = ?`, domain)
	if err != nil {
		return fmt.Errorf("store: delete rule %s: %w", domain, err)
	}
	return nil
}

// PolicyFor composes the stored settings with the domain's rule into the
// immutable policy one invocation receives.
func (s *Store) PolicyFor(domain string) (fill.Policy, error) {
	set, err := s.Settings()
	if err != nil {
		return fill.Policy{}, err
	}
	pol := fill.Policy{
		SkipIfNotEmpty: set.SkipIfNotEmpty,
		DryRun:         set.DryRun,
		NameLock:       set.NameLock,
	}
	if domain == "" {
		return pol, nil
	}
	rule, err := s.RuleFor(domain)
	if err != nil {
		return fill.Policy{}, err
	}
	if rule != nil {
		pol.EnabledTypes = rule.EnabledTypes
		pol.DisabledTypes = rule.DisabledTypes
		pol.CustomMap = rule.CustomMap
	}
	return pol, nil
}

func orEmpty(s []profile.Field) []profile.Field {
	if s == nil {
		return []profile.Field{}
	}
	return s
}

func orEmptyMap(m map[profile.Field]string) map[profile.Field]string {
	if m == nil {
		return map[profile.Field]string{}
	}
	return m
}
