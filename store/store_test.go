package store

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/formfill/fill"
	"github.com/hazyhaar/formfill/profile"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "formfill.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProfileRoundTrip(t *testing.T) {
	s := testStore(t)
	err := s.PutProfile(map[profile.Field]string{
		profile.FirstName: "Ada",
		profile.LastName:  "Lovelace",
		profile.Email:     " Ada@X.COM ",
	})
	if err != nil {
		t.Fatalf("put profile: %v", err)
	}

	p, err := s.Profile()
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if got := p.Get(profile.Email); got != "ada@x.com" {
		t.Errorf("email: got %q, want normalized", got)
	}
	if got := p.Get(profile.FullName); got != "Ada Lovelace" {
		t.Errorf("fullName: got %q, want derived", got)
	}
}

func TestPutProfile_RejectsUnknownField(t *testing.T) {
	s := testStore(t)
	err := s.PutProfile(map[profile.Field]string{"favoriteColor": "green"})
	if err == nil {
		t.Fatal("unknown field accepted")
	}
	p, _ := s.Profile()
	for _, f := range profile.All {
		if p.Get(f) != "" {
			t.Fatalf("partial write after rejection: %s=%q", f, p.Get(f))
		}
	}
}

func TestPutProfile_Replaces(t *testing.T) {
	s := testStore(t)
	if err := s.PutProfile(map[profile.Field]string{profile.City: "London"}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutProfile(map[profile.Field]string{profile.Email: "a@b.c"}); err != nil {
		t.Fatal(err)
	}
	p, _ := s.Profile()
	if p.Get(profile.City) != "" {
		t.Errorf("city survived a replace: %q", p.Get(profile.City))
	}
	if p.Get(profile.Email) != "a@b.c" {
		t.Errorf("email: got %q", p.Get(profile.Email))
	}
}

func TestSettings_Defaults(t *testing.T) {
	s := testStore(t)
	set, err := s.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if !set.SkipIfNotEmpty {
		t.Error("default SkipIfNotEmpty: got false, want true")
	}
	if set.NameLock.Enabled {
		t.Error("default name lock: got enabled")
	}
	if set.NameLock.Mode != fill.NameLockIfEmpty {
		t.Errorf("default mode: got %q", set.NameLock.Mode)
	}
}

func TestSettings_RoundTrip(t *testing.T) {
	s := testStore(t)
	in := Settings{
		SkipIfNotEmpty: false,
		DryRun:         true,
		NameLock:       fill.NameLock{Enabled: true, Mode: fill.NameLockProtect},
	}
	if err := s.PutSettings(in); err != nil {
		t.Fatal(err)
	}
	out, err := s.Settings()
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestPutSettings_RejectsBadMode(t *testing.T) {
	s := testStore(t)
	err := s.PutSettings(Settings{NameLock: fill.NameLock{Mode: "SOMETIMES"}})
	if err == nil {
		t.Fatal("invalid mode accepted")
	}
}

func TestRules_CRUD(t *testing.T) {
	s := testStore(t)
	rule := Rule{
		Domain:        "jobs.example",
		DisabledTypes: []profile.Field{profile.Salary},
		CustomMap:     map[profile.Field]string{profile.Email: "#email-input"},
	}
	if err := s.PutRule(rule); err != nil {
		t.Fatal(err)
	}

	got, err := s.RuleFor("jobs.example")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.CustomMap[profile.Email] != "#email-input" {
		t.Fatalf("rule: got %+v", got)
	}

	// Upsert replaces.
	rule.DisabledTypes = nil
	if err := s.PutRule(rule); err != nil {
		t.Fatal(err)
	}
	got, _ = s.RuleFor("jobs.example")
	if len(got.DisabledTypes) != 0 {
		t.Errorf("upsert kept old disabled types: %v", got.DisabledTypes)
	}

	if none, _ := s.RuleFor("other.example"); none != nil {
		t.Errorf("missing rule: got %+v, want nil", none)
	}

	all, err := s.Rules()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d rules, want 1", len(all))
	}

	if err := s.DeleteRule("jobs.example"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.RuleFor("jobs.example"); got != nil {
		t.Error("rule survived delete")
	}
	if err := s.DeleteRule("jobs.example"); err != nil {
		t.Errorf("deleting a missing rule: %v", err)
	}
}

func TestPutRule_Validation(t *testing.T) {
	s := testStore(t)
	if err := s.PutRule(Rule{Domain: ""}); err == nil {
		t.Error("empty domain accepted")
	}
	err := s.PutRule(Rule{
		Domain:       "x.example",
		EnabledTypes: []profile.Field{"favoriteColor"},
	})
	if err == nil {
		t.Error("unknown field type accepted")
	}
}

func TestPolicyFor(t *testing.T) {
	s := testStore(t)
	if err := s.PutSettings(Settings{SkipIfNotEmpty: true, NameLock: fill.NameLock{Enabled: true, Mode: fill.NameLockNever}}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutRule(Rule{
		Domain:        "jobs.example",
		DisabledTypes: []profile.Field{profile.CoverLetter},
	}); err != nil {
		t.Fatal(err)
	}

	pol, err := s.PolicyFor("jobs.example")
	if err != nil {
		t.Fatal(err)
	}
	if !pol.SkipIfNotEmpty || pol.NameLock.Mode != fill.NameLockNever {
		t.Errorf("policy settings: %+v", pol)
	}
	if len(pol.DisabledTypes) != 1 || pol.DisabledTypes[0] != profile.CoverLetter {
		t.Errorf("policy rule: %+v", pol.DisabledTypes)
	}

	// A domain without a rule gets the bare settings.
	other, err := s.PolicyFor("other.example")
	if err != nil {
		t.Fatal(err)
	}
	if len(other.DisabledTypes) != 0 || other.CustomMap != nil {
		t.Errorf("ruleless policy: %+v", other)
	}
}

func TestImportExport_RoundTrip(t *testing.T) {
	s := testStore(t)
	bundle := `{
		"profile": {"firstName": "Ada", "email": "ada@x.com"},
		"settings": {"skipIfNotEmpty": true, "dryRun": false, "nameLock": {"Enabled": true, "Mode": "PROTECT"}},
		"rules": [{"domain": "jobs.example", "disabledTypes": ["salary"]}]
	}`
	if err := s.Import(strings.NewReader(bundle)); err != nil {
		t.Fatalf("import: %v", err)
	}

	var buf bytes.Buffer
	if err := s.Export(&buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Ada", "jobs.example", "PROTECT", "salary"} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}

	// The exported bundle imports cleanly into a fresh store.
	s2 := testStore(t)
	if err := s2.Import(&buf); err != nil {
		t.Fatalf("reimport: %v", err)
	}
	p, _ := s2.Profile()
	if p.Get(profile.FirstName) != "Ada" {
		t.Errorf("reimported firstName: %q", p.Get(profile.FirstName))
	}
}

func TestImport_RejectsWithoutPartialEffects(t *testing.T) {
	s := testStore(t)
	if err := s.PutProfile(map[profile.Field]string{profile.City: "London"}); err != nil {
		t.Fatal(err)
	}

	bad := []string{
		`{"profile": {"favoriteColor": "green"}}`,
		`{"settings": {"nameLock": {"Mode": "SOMETIMES"}}}`,
		`{"profile": {"email": "x@y.z"}, "rules": [{"domain": ""}]}`,
		`{"unknownSection": true}`,
		`not json`,
	}
	for _, b := range bad {
		if err := s.Import(strings.NewReader(b)); err == nil {
			t.Errorf("import accepted: %s", b)
		}
	}

	p, _ := s.Profile()
	if p.Get(profile.City) != "London" {
		t.Error("rejected import mutated the profile")
	}
}
