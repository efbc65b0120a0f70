package profile

import (
	"regexp"
	"strings"
)

// bareDomain matches values like "linkedin.com/in/x" or "example.com.tr"
// that are clearly URLs missing their scheme.
var bareDomain = regexp.MustCompile(`^[\w-]+(\.[\w-]+)+(/.*)?$`)

// Normalize canonicalizes raw attribute values into the form the engine
// fills with. Rules, per field:
//
//   - every known field: nil-safe, trimmed
//   - email: lower-cased
//   - phone: all non-digits stripped, a single leading "+" preserved
//   - linkedin/github/website: "https://" prepended to bare domains
//   - fullName derived from firstName+lastName when empty, and
//     firstName/lastName derived by splitting fullName when empty
//
// Derivation never overwrites an explicit value and never invents one:
// with all three name fields empty, all three stay empty. Normalize never
// fails; unknown keys in raw are ignored.
func Normalize(raw map[Field]string) Profile {
	p := make(Profile, len(All))
	for _, f := range All {
		p[f] = strings.TrimSpace(raw[f])
	}

	p[Email] = strings.ToLower(p[Email])
	p[Phone] = normalizePhone(p[Phone])
	for _, f := range []Field{LinkedIn, GitHub, Website} {
		p[f] = normalizeURL(p[f])
	}

	deriveNames(p)
	return p
}

func normalizePhone(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	if s[0] == '+' {
		b.WriteByte('+')
	}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeURL(s string) string {
	if s == "" || strings.Contains(s, "://") {
		return s
	}
	if bareDomain.MatchString(s) {
		return "https://" + s
	}
	return s
}

func deriveNames(p Profile) {
	if p[FullName] == "" {
		parts := make([]string, 0, 2)
		if p[FirstName] != "" {
			parts = append(parts, p[FirstName])
		}
		if p[LastName] != "" {
			parts = append(parts, p[LastName])
		}
		p[FullName] = strings.Join(parts, " ")
	}
	if p[FullName] == "" || (p[FirstName] != "" && p[LastName] != "") {
		return
	}
	tokens := strings.Fields(p[FullName])
	if len(tokens) == 0 {
		return
	}
	if p[FirstName] == "" {
		p[FirstName] = tokens[0]
	}
	if p[LastName] == "" && len(tokens) > 1 {
		p[LastName] = strings.Join(tokens[1:], " ")
	}
}
