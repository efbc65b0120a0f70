// Package score rates (element, field type) pairs. The scorer is a pure
// function of a snapshot of element state: the same element always yields
// the same score and the same reason trail. Scores are unbounded ints and
// may go negative; the selector treats anything not strictly positive as
// "no confident match".
package score

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hazyhaar/formfill/dom"
	"github.com/hazyhaar/formfill/fill/internal/signal"
	"github.com/hazyhaar/formfill/fill/internal/token"
	"github.com/hazyhaar/formfill/profile"
)

// Result is the score and audit trail for one (element, field) pair.
// Reasons are informational only; nothing reads them back.
type Result struct {
	Score   int
	Reasons []string
}

// Weights holds every scoring constant. They are heuristics, not
// protocol: callers may tune them, tests rely on the defaults.
type Weights struct {
	AutocompleteMatch    int `yaml:"autocomplete_match"`    // autocomplete maps to the field under test
	AutocompleteMismatch int `yaml:"autocomplete_mismatch"` // autocomplete maps to a different known field

	SubKindEmail  int `yaml:"subkind_email"`
	SubKindTel    int `yaml:"subkind_tel"`
	SubKindURL    int `yaml:"subkind_url"`
	SubKindDate   int `yaml:"subkind_date"`
	SubKindNumber int `yaml:"subkind_number"`

	TokenHit       int `yaml:"token_hit"`        // per synonym token, per signal, times signal weight
	NameTokenFull  int `yaml:"name_token_full"`  // bare "name" token on fullName
	NameTokenStray int `yaml:"name_token_stray"` // bare "name" token on unrelated fields (negative)

	PatternName     int `yaml:"pattern_name"` // first/last name attribute patterns
	PatternEmail    int `yaml:"pattern_email"`
	PatternPhone    int `yaml:"pattern_phone"`
	PatternPostal   int `yaml:"pattern_postal"`
	PatternLinkedIn int `yaml:"pattern_linkedin"`
	PatternGitHub   int `yaml:"pattern_github"`

	SearchPenalty int `yaml:"search_penalty"` // placeholder looks like a search box (negative)

	// SelectionThreshold is the exclusive lower bound a score must beat
	// to win an assignment.
	SelectionThreshold int `yaml:"selection_threshold"`
}

// Defaults returns the tuned weight set.
func Defaults() Weights {
	return Weights{
		AutocompleteMatch:    30,
		AutocompleteMismatch: -8,
		SubKindEmail:         18,
		SubKindTel:           16,
		SubKindURL:           10,
		SubKindDate:          18,
		SubKindNumber:        10,
		TokenHit:             3,
		NameTokenFull:        3,
		NameTokenStray:       -2,
		PatternName:          20,
		PatternEmail:         16,
		PatternPhone:         14,
		PatternPostal:        12,
		PatternLinkedIn:      14,
		PatternGitHub:        14,
		SearchPenalty:        -10,
		SelectionThreshold:   0,
	}
}

// autocompleteField maps HTML autocomplete tokens to field types.
var autocompleteField = map[string]profile.Field{
	"given-name":         profile.FirstName,
	"family-name":        profile.LastName,
	"name":               profile.FullName,
	"email":              profile.Email,
	"tel":                profile.Phone,
	"tel-national":       profile.Phone,
	"bday":               profile.DateOfBirth,
	"street-address":     profile.Address,
	"address-line1":      profile.Address,
	"address-level2":     profile.City,
	"address-level1":     profile.State,
	"postal-code":        profile.PostalCode,
	"country":            profile.Country,
	"country-name":       profile.Country,
	"organization":       profile.Company,
	"organization-title": profile.JobTitle,
	"url":                profile.Website,
}

// nameTokens are the bare "name" words in both languages. They are
// ambiguous: alone they indicate a full-name field and actively argue
// against unrelated fields ("city name" boxes must not win on "name").
var nameTokens = map[string]bool{"name": true, "isim": true, "ad": true}

// searchTokens mark search boxes; those are never profile fields.
var searchTokens = map[string]bool{"search": true, "ara": true, "arama": true}

// attrPatterns match against the concatenated name+id attribute values.
type attrPattern struct {
	re    *regexp.Regexp
	bonus func(w Weights) int
}

var attrPatterns = map[profile.Field]attrPattern{
	profile.FirstName: {
		re:    regexp.MustCompile(`(first|given)[_\s-]*name|\bfname\b|adiniz|adınız|\bisim\b|\bad\b`),
		bonus: func(w Weights) int { return w.PatternName },
	},
	profile.LastName: {
		re:    regexp.MustCompile(`(last|family|sur)[_\s-]*name|\blname\b|soyad|soyisim`),
		bonus: func(w Weights) int { return w.PatternName },
	},
	profile.Email: {
		re:    regexp.MustCompile(`e[-_]?mail|e[-_]?posta`),
		bonus: func(w Weights) int { return w.PatternEmail },
	},
	profile.Phone: {
		re:    regexp.MustCompile(`phone|mobile|telefon|\btel\b|\bcep\b|\bgsm\b`),
		bonus: func(w Weights) int { return w.PatternPhone },
	},
	profile.PostalCode: {
		re:    regexp.MustCompile(`\bzip\b|postal[_\s-]*code|postcode|posta[_\s-]*kodu`),
		bonus: func(w Weights) int { return w.PatternPostal },
	},
	profile.LinkedIn: {
		re:    regexp.MustCompile(`linked[-_]?in`),
		bonus: func(w Weights) int { return w.PatternLinkedIn },
	},
	profile.GitHub: {
		re:    regexp.MustCompile(`git[-_]?hub`),
		bonus: func(w Weights) int { return w.PatternGitHub },
	},
}

// Scorer holds precomputed dictionaries for one weight configuration.
type Scorer struct {
	w   Weights
	syn map[profile.Field]map[string]bool
}

// New builds a Scorer. Synonym phrases are tokenized once here.
func New(w Weights) *Scorer {
	syn := make(map[profile.Field]map[string]bool, len(synonyms))
	for f, phrases := range synonyms {
		set := make(map[string]bool)
		for _, phrase := range phrases {
			for _, t := range token.Tokenize(phrase) {
				set[t] = true
			}
		}
		syn[f] = set
	}
	return &Scorer{w: w, syn: syn}
}

// Threshold returns the configured selection threshold.
func (s *Scorer) Threshold() int { return s.w.SelectionThreshold }

// Score rates one element against one field type. Pure: no side effects,
// deterministic for a given element snapshot.
func (s *Scorer) Score(el dom.Element, f profile.Field) Result {
	var res Result
	sigs := signal.Extract(el)

	s.scoreAutocomplete(el, f, &res)
	s.scoreSubKind(el, f, &res)
	s.scoreTokens(sigs, f, &res)
	s.scorePatterns(el, f, &res)
	s.scoreSearchPenalty(el, &res)

	return res
}

func (s *Scorer) scoreAutocomplete(el dom.Element, f profile.Field, res *Result) {
	raw := strings.ToLower(strings.TrimSpace(el.Attr("autocomplete")))
	if raw == "" || raw == "on" || raw == "off" {
		return
	}
	mapped, ok := autocompleteField[raw]
	if !ok {
		// Multi-token values like "shipping tel": the last token is
		// the field token.
		parts := strings.Fields(raw)
		mapped, ok = autocompleteField[parts[len(parts)-1]]
	}
	if !ok {
		return
	}
	if mapped == f {
		res.add(s.w.AutocompleteMatch, fmt.Sprintf("autocomplete %q matches %s", raw, f))
	} else {
		res.add(s.w.AutocompleteMismatch, fmt.Sprintf("autocomplete %q maps to %s, not %s", raw, mapped, f))
	}
}

func (s *Scorer) scoreSubKind(el dom.Element, f profile.Field, res *Result) {
	kind := el.InputType()
	if kind == "" {
		return
	}
	bonus := 0
	switch {
	case f == profile.Email && kind == "email":
		bonus = s.w.SubKindEmail
	case f == profile.Phone && kind == "tel":
		bonus = s.w.SubKindTel
	case (f == profile.Website || f == profile.LinkedIn || f == profile.GitHub) && kind == "url":
		bonus = s.w.SubKindURL
	case f == profile.DateOfBirth && kind == "date":
		bonus = s.w.SubKindDate
	case f == profile.Salary && kind == "number":
		bonus = s.w.SubKindNumber
	}
	if bonus != 0 {
		res.add(bonus, fmt.Sprintf("input type %q fits %s", kind, f))
	}
}

func (s *Scorer) scoreTokens(sigs []signal.Signal, f profile.Field, res *Result) {
	set := s.syn[f]
	for _, sg := range sigs {
		local := 0
		for _, t := range token.Tokenize(sg.Text) {
			switch {
			case nameTokens[t]:
				// Bare "name" words: evidence for fullName,
				// evidence against anything but a name field.
				switch f {
				case profile.FullName:
					local += s.w.NameTokenFull
				case profile.FirstName, profile.LastName:
					// Neutral: neither boosts nor penalizes.
				default:
					local += s.w.NameTokenStray
				}
			case set[t]:
				local += s.w.TokenHit
			}
		}
		if local != 0 {
			res.add(local*sg.Weight, fmt.Sprintf("%s %q tokens for %s", sg.Source, sg.Text, f))
		}
	}
}

func (s *Scorer) scorePatterns(el dom.Element, f profile.Field, res *Result) {
	pat, ok := attrPatterns[f]
	if !ok {
		return
	}
	joined := strings.ToLower(el.Attr("name") + " " + el.Attr("id"))
	if strings.TrimSpace(joined) == "" {
		return
	}
	if pat.re.MatchString(joined) {
		res.add(pat.bonus(s.w), fmt.Sprintf("name/id attribute pattern for %s", f))
	}
}

func (s *Scorer) scoreSearchPenalty(el dom.Element, res *Result) {
	for _, t := range token.Tokenize(el.Attr("placeholder")) {
		if searchTokens[t] {
			res.add(s.w.SearchPenalty, "placeholder indicates a search box")
			return
		}
	}
}

func (r *Result) add(delta int, reason string) {
	r.Score += delta
	r.Reasons = append(r.Reasons, fmt.Sprintf("%s (%+d)", reason, delta))
}
