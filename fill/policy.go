package fill

import "github.com/hazyhaar/formfill/profile"

// NameLockMode controls overwrite protection for the name fields.
type NameLockMode string

const (
	// NameLockIfEmpty applies the same already-filled check as every
	// other field.
	NameLockIfEmpty NameLockMode = "IF_EMPTY"
	// NameLockNever never fills name fields.
	NameLockNever NameLockMode = "NEVER"
	// NameLockProtect skips a name field only when its existing value
	// already looks like a typed name (non-empty, no digits); junk and
	// empty values are still filled.
	NameLockProtect NameLockMode = "PROTECT"
)

// NameLock is the protective policy for firstName and lastName.
type NameLock struct {
	Enabled bool
	Mode    NameLockMode
}

// Policy gates one fill invocation. It is constructed fresh per run from
// stored settings plus per-domain rules and is immutable while the run
// executes.
type Policy struct {
	// SkipIfNotEmpty leaves already-populated fields alone, which also
	// makes repeated runs idempotent.
	SkipIfNotEmpty bool
	// DryRun computes the full assignment and policy trail without
	// touching the document.
	DryRun bool
	// NameLock overrides the empty-check for the name fields.
	NameLock NameLock
	// EnabledTypes, when non-empty, is an allow-list: types outside it
	// are skipped.
	EnabledTypes []profile.Field
	// DisabledTypes are always skipped. The disabled set wins every
	// conflict, including against EnabledTypes and CustomMap.
	DisabledTypes []profile.Field
	// CustomMap pins a field type to a selector hint, bypassing
	// classification for that field.
	CustomMap map[profile.Field]string
}

func (p Policy) enabled(f profile.Field) bool {
	if len(p.EnabledTypes) == 0 {
		return true
	}
	for _, e := range p.EnabledTypes {
		if e == f {
			return true
		}
	}
	return false
}

func (p Policy) disabled(f profile.Field) bool {
	for _, d := range p.DisabledTypes {
		if d == f {
			return true
		}
	}
	return false
}

func isNameField(f profile.Field) bool {
	return f == profile.FirstName || f == profile.LastName
}

// looksLikeName is the best-effort plausibility check PROTECT uses:
// non-empty and free of digits.
func looksLikeName(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		if r >= '0' && r <= '9' {
			return false
		}
	}
	return true
}
