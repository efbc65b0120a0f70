package fill

import (
	"context"
	"testing"

	"github.com/hazyhaar/formfill/dom"
	"github.com/hazyhaar/formfill/dom/memdom"
	"github.com/hazyhaar/formfill/profile"
)

func testProfile() profile.Profile {
	return profile.Normalize(map[profile.Field]string{
		profile.FirstName: "Ada",
		profile.LastName:  "Lovelace",
		profile.Email:     "ada@x.com",
		profile.Phone:     "+905551234567",
	})
}

func entryFor(r Report, f profile.Field) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Field == f {
			return e, true
		}
	}
	return Entry{}, false
}

func TestRun_AriaLabelEndToEnd(t *testing.T) {
	d := memdom.New("https://jobs.example/apply")
	el := d.AddControl(memdom.ControlSpec{
		Kind:  dom.KindInput,
		Attrs: map[string]string{"aria-label": "E-mail"},
	})

	rep := NewEngine().Run(context.Background(), d, testProfile(), Policy{SkipIfNotEmpty: true})
	if rep.Stats.Filled != 1 || rep.Stats.Errors != 0 {
		t.Fatalf("stats: got %+v, want filled=1 errors=0 (%+v)", rep.Stats, rep.Entries)
	}
	if el.Value() != "ada@x.com" {
		t.Errorf("value: got %q, want %q", el.Value(), "ada@x.com")
	}
	e, ok := entryFor(rep, profile.Email)
	if !ok || e.Action != ActionFilled {
		t.Errorf("email entry: got %+v", e)
	}
}

func TestRun_EmptyDocument(t *testing.T) {
	rep := NewEngine().Run(context.Background(), memdom.New(""), testProfile(), Policy{})
	if rep.Stats != (Stats{}) || len(rep.Entries) != 0 {
		t.Errorf("got %+v, want a zeroed report", rep)
	}
}

func TestRun_Idempotent(t *testing.T) {
	d := memdom.New("")
	el := d.AddControl(memdom.ControlSpec{
		Kind:  dom.KindInput,
		Attrs: map[string]string{"autocomplete": "email"},
	})
	eng := NewEngine()
	pol := Policy{SkipIfNotEmpty: true}

	first := eng.Run(context.Background(), d, testProfile(), pol)
	if first.Stats.Filled != 1 {
		t.Fatalf("first pass: %+v", first.Stats)
	}
	second := eng.Run(context.Background(), d, testProfile(), pol)
	if second.Stats.Filled != 0 {
		t.Errorf("second pass filled %d, want 0", second.Stats.Filled)
	}
	e, _ := entryFor(second, profile.Email)
	if e.Action != ActionSkipped || e.Reason != "already-filled" {
		t.Errorf("second pass entry: %+v", e)
	}
	if el.Value() != "ada@x.com" {
		t.Errorf("value changed on second pass: %q", el.Value())
	}
}

func TestRun_DryRunTouchesNothing(t *testing.T) {
	d := memdom.New("")
	email := d.AddControl(memdom.ControlSpec{
		Kind:  dom.KindInput,
		Attrs: map[string]string{"autocomplete": "email"},
	})
	phone := d.AddControl(memdom.ControlSpec{
		Kind: dom.KindInput, Type: "tel",
		Attrs: map[string]string{"autocomplete": "tel"},
	})

	rep := NewEngine().Run(context.Background(), d, testProfile(), Policy{DryRun: true})
	if rep.Stats.Filled != 0 {
		t.Errorf("dry run filled %d, want 0", rep.Stats.Filled)
	}
	would := 0
	for _, e := range rep.Entries {
		if e.Action == ActionWouldFill {
			would++
		}
	}
	if would != 2 {
		t.Errorf("got %d would-fill entries, want 2: %+v", would, rep.Entries)
	}
	if email.Value() != "" || phone.Value() != "" {
		t.Error("dry run mutated the document")
	}
	if len(email.Events()) != 0 || len(phone.Events()) != 0 {
		t.Error("dry run dispatched events")
	}
}

func TestRun_SkipsFieldsWithoutValues(t *testing.T) {
	d := memdom.New("")
	d.AddControl(memdom.ControlSpec{
		Kind:  dom.KindInput,
		Attrs: map[string]string{"autocomplete": "organization"},
	})
	rep := NewEngine().Run(context.Background(), d, testProfile(), Policy{})
	e, ok := entryFor(rep, profile.Company)
	if !ok || e.Action != ActionSkipped || e.Reason != "no-value" {
		t.Errorf("company entry: got %+v", e)
	}
}

func nameInput(d *memdom.Document, value string) *memdom.Node {
	return d.AddControl(memdom.ControlSpec{
		Kind: dom.KindInput, Value: value,
		Attrs: map[string]string{"autocomplete": "given-name", "id": "first"},
	})
}

func TestRun_NameLockNever(t *testing.T) {
	d := memdom.New("")
	el := nameInput(d, "")
	pol := Policy{NameLock: NameLock{Enabled: true, Mode: NameLockNever}}

	rep := NewEngine().Run(context.Background(), d, testProfile(), pol)
	e, _ := entryFor(rep, profile.FirstName)
	if e.Action != ActionSkipped || e.Reason != "name-locked" {
		t.Errorf("entry: %+v", e)
	}
	if el.Value() != "" {
		t.Errorf("value written despite lock: %q", el.Value())
	}
}

func TestRun_NameLockProtect(t *testing.T) {
	// A typed name stays; junk with digits is replaced.
	for _, tt := range []struct {
		existing   string
		wantAction Action
		wantValue  string
	}{
		{"Grace", ActionSkipped, "Grace"},
		{"asdf123", ActionFilled, "Ada"},
		{"", ActionFilled, "Ada"},
	} {
		d := memdom.New("")
		el := nameInput(d, tt.existing)
		pol := Policy{
			SkipIfNotEmpty: true,
			NameLock:       NameLock{Enabled: true, Mode: NameLockProtect},
		}
		rep := NewEngine().Run(context.Background(), d, testProfile(), pol)
		e, _ := entryFor(rep, profile.FirstName)
		if e.Action != tt.wantAction {
			t.Errorf("existing %q: action %s, want %s", tt.existing, e.Action, tt.wantAction)
		}
		if el.Value() != tt.wantValue {
			t.Errorf("existing %q: value %q, want %q", tt.existing, el.Value(), tt.wantValue)
		}
	}
}

func TestRun_NameLockDisabledIgnoresMode(t *testing.T) {
	d := memdom.New("")
	el := nameInput(d, "")
	pol := Policy{NameLock: NameLock{Enabled: false, Mode: NameLockNever}}

	rep := NewEngine().Run(context.Background(), d, testProfile(), pol)
	if rep.Stats.Filled == 0 || el.Value() != "Ada" {
		t.Errorf("disabled lock still blocked the fill: %+v", rep.Entries)
	}
}

func TestRun_EnabledTypesAllowList(t *testing.T) {
	d := memdom.New("")
	d.AddControl(memdom.ControlSpec{
		Kind:  dom.KindInput,
		Attrs: map[string]string{"autocomplete": "email"},
	})
	phone := d.AddControl(memdom.ControlSpec{
		Kind: dom.KindInput, Type: "tel",
		Attrs: map[string]string{"autocomplete": "tel"},
	})
	pol := Policy{EnabledTypes: []profile.Field{profile.Email}}

	rep := NewEngine().Run(context.Background(), d, testProfile(), pol)
	e, _ := entryFor(rep, profile.Phone)
	if e.Action != ActionSkipped || e.Reason != "not-enabled" {
		t.Errorf("phone entry: %+v", e)
	}
	if phone.Value() != "" {
		t.Errorf("phone written despite allow-list: %q", phone.Value())
	}
	if rep.Stats.Filled != 1 {
		t.Errorf("filled %d, want only email", rep.Stats.Filled)
	}
}

func TestRun_DisabledBeatsCustomMap(t *testing.T) {
	d := memdom.New("")
	el := d.AddControl(memdom.ControlSpec{
		Kind:  dom.KindInput,
		Attrs: map[string]string{"id": "mystery", "autocomplete": "email"},
	})
	pol := Policy{
		DisabledTypes: []profile.Field{profile.Email},
		CustomMap:     map[profile.Field]string{profile.Email: "#mystery"},
	}

	rep := NewEngine().Run(context.Background(), d, testProfile(), pol)
	e, _ := entryFor(rep, profile.Email)
	if e.Action != ActionSkipped || e.Reason != "disabled" {
		t.Errorf("email entry: %+v", e)
	}
	if el.Value() != "" {
		t.Errorf("disabled field written: %q", el.Value())
	}
}

func TestRun_CustomMapBypassesClassification(t *testing.T) {
	d := memdom.New("")
	// Nothing about this input suggests email; the hint pins it.
	el := d.AddControl(memdom.ControlSpec{
		Kind:  dom.KindInput,
		Attrs: map[string]string{"id": "field-7"},
	})
	pol := Policy{CustomMap: map[profile.Field]string{profile.Email: "#field-7"}}

	rep := NewEngine().Run(context.Background(), d, testProfile(), pol)
	e, _ := entryFor(rep, profile.Email)
	if e.Action != ActionFilled {
		t.Fatalf("email entry: %+v", e)
	}
	if el.Value() != "ada@x.com" {
		t.Errorf("value: got %q", el.Value())
	}
}

func TestRun_CustomMapClaimsElementExclusively(t *testing.T) {
	d := memdom.New("")
	// The hinted element also scores high for email via classification;
	// pinning it to phone must keep email off it.
	el := d.AddControl(memdom.ControlSpec{
		Kind:  dom.KindInput,
		Attrs: map[string]string{"id": "only", "autocomplete": "email"},
	})
	pol := Policy{CustomMap: map[profile.Field]string{profile.Phone: "#only"}}

	rep := NewEngine().Run(context.Background(), d, testProfile(), pol)
	if el.Value() != "+905551234567" {
		t.Errorf("value: got %q, want the phone number", el.Value())
	}
	if e, ok := entryFor(rep, profile.Email); ok {
		t.Errorf("email also acted on the pinned element: %+v", e)
	}
}

func TestRun_UnresolvableHintDegrades(t *testing.T) {
	d := memdom.New("")
	el := d.AddControl(memdom.ControlSpec{
		Kind:  dom.KindInput,
		Attrs: map[string]string{"autocomplete": "email"},
	})
	pol := Policy{CustomMap: map[profile.Field]string{profile.Email: "#no-such-node"}}

	rep := NewEngine().Run(context.Background(), d, testProfile(), pol)
	e, _ := entryFor(rep, profile.Email)
	if e.Action != ActionFilled {
		t.Errorf("email entry: %+v, want classification fallback", e)
	}
	if el.Value() != "ada@x.com" {
		t.Errorf("value: got %q", el.Value())
	}
}

func TestRun_InjectionFailureRecorded(t *testing.T) {
	d := memdom.New("")
	d.AddControl(memdom.ControlSpec{
		Kind: dom.KindInput, RejectWrites: true,
		Attrs: map[string]string{"autocomplete": "email"},
	})
	rep := NewEngine().Run(context.Background(), d, testProfile(), Policy{})
	if rep.Stats.Errors != 1 {
		t.Fatalf("stats: %+v", rep.Stats)
	}
	e, _ := entryFor(rep, profile.Email)
	if e.Action != ActionError || e.Reason == "" {
		t.Errorf("entry: %+v", e)
	}
}

func TestRunAll_FramesAreIndependentContexts(t *testing.T) {
	outer := memdom.New("https://host.example")
	outer.AddControl(memdom.ControlSpec{
		Kind:  dom.KindInput,
		Attrs: map[string]string{"autocomplete": "email"},
	})
	inner := memdom.New("https://forms.example/frame")
	inner.AddControl(memdom.ControlSpec{
		Kind:  dom.KindInput,
		Attrs: map[string]string{"autocomplete": "email"},
	})
	outer.AddFrame(inner)

	sum := NewEngine().RunAll(context.Background(), outer, testProfile(), Policy{})
	if sum.Stats.Filled != 2 {
		t.Fatalf("stats: %+v", sum.Stats)
	}
	if len(sum.Reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(sum.Reports))
	}
	if sum.Reports[0].URL != "https://host.example" || sum.Reports[1].URL != "https://forms.example/frame" {
		t.Errorf("report order: %q then %q", sum.Reports[0].URL, sum.Reports[1].URL)
	}
}

func TestRunAll_DepthBounded(t *testing.T) {
	root := memdom.New("d0")
	cur := root
	for i := 1; i <= 8; i++ {
		next := memdom.New("")
		next.AddControl(memdom.ControlSpec{
			Kind:  dom.KindInput,
			Attrs: map[string]string{"autocomplete": "email"},
		})
		cur.AddFrame(next)
		cur = next
	}

	sum := NewEngine().RunAll(context.Background(), root, testProfile(), Policy{})
	// Root plus frames down to the recursion bound.
	if got := len(sum.Reports); got != 6 {
		t.Errorf("got %d contexts, want 6", got)
	}
}

func TestWithWeights(t *testing.T) {
	w := DefaultWeights()
	w.SelectionThreshold = 1000
	d := memdom.New("")
	d.AddControl(memdom.ControlSpec{
		Kind:  dom.KindInput,
		Attrs: map[string]string{"autocomplete": "email"},
	})
	rep := NewEngine(WithWeights(w)).Run(context.Background(), d, testProfile(), Policy{})
	if len(rep.Entries) != 0 {
		t.Errorf("threshold 1000 still assigned: %+v", rep.Entries)
	}
}
