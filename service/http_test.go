package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/formfill/fill"
	"github.com/hazyhaar/formfill/profile"
	"github.com/hazyhaar/formfill/store"
)

func testService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "formfill.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, nil)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHTTP_Ping(t *testing.T) {
	h := testService(t).Router()
	w := doRequest(t, h, "GET", "/v1/ping", "")
	if w.Code != http.StatusOK {
		t.Fatalf("ping: %d %s", w.Code, w.Body)
	}
}

func TestHTTP_ProfileRoundTrip(t *testing.T) {
	h := testService(t).Router()

	w := doRequest(t, h, "PUT", "/v1/profile", `{"firstName":"Ada","lastName":"Lovelace"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put profile: %d %s", w.Code, w.Body)
	}

	w = doRequest(t, h, "GET", "/v1/profile", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get profile: %d", w.Code)
	}
	var prof profile.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &prof); err != nil {
		t.Fatal(err)
	}
	if prof.Get(profile.FullName) != "Ada Lovelace" {
		t.Errorf("fullName: got %q, want derived", prof.Get(profile.FullName))
	}
}

func TestHTTP_PutProfileRejectsUnknownField(t *testing.T) {
	h := testService(t).Router()
	w := doRequest(t, h, "PUT", "/v1/profile", `{"favoriteColor":"green"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}
}

func TestHTTP_Rules(t *testing.T) {
	h := testService(t).Router()

	w := doRequest(t, h, "PUT", "/v1/rules/jobs.example", `{"disabledTypes":["salary"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put rule: %d %s", w.Code, w.Body)
	}

	w = doRequest(t, h, "GET", "/v1/rules", "")
	var rules []store.Rule
	if err := json.Unmarshal(w.Body.Bytes(), &rules); err != nil {
		t.Fatal(err)
	}
	if len(rules) != 1 || rules[0].Domain != "jobs.example" {
		t.Fatalf("rules: %+v", rules)
	}

	w = doRequest(t, h, "DELETE", "/v1/rules/jobs.example", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete rule: %d", w.Code)
	}
	w = doRequest(t, h, "GET", "/v1/rules", "")
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("rules after delete: %s", body)
	}
}

func TestHTTP_FillRequiresBrowser(t *testing.T) {
	h := testService(t).Router()
	w := doRequest(t, h, "POST", "/v1/fill", `{"url":"https://jobs.example"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("got %d, want 502 without a browser", w.Code)
	}
}

func TestHTTP_FillValidation(t *testing.T) {
	h := testService(t).Router()
	if w := doRequest(t, h, "POST", "/v1/fill", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing url: got %d, want 400", w.Code)
	}
	if w := doRequest(t, h, "POST", "/v1/fill", `not json`); w.Code != http.StatusBadRequest {
		t.Errorf("bad body: got %d, want 400", w.Code)
	}
}

func TestHTTP_SnapshotFill(t *testing.T) {
	svc := testService(t)
	if err := svc.store.PutProfile(map[profile.Field]string{
		profile.Email: "ada@x.com",
	}); err != nil {
		t.Fatal(err)
	}
	h := svc.Router()

	html := `<body><form><input type="email" name="email" autocomplete="email"></form></body>`
	w := doRequest(t, h, "POST", "/v1/fill/snapshot?url=https://jobs.example/apply", html)
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot: %d %s", w.Code, w.Body)
	}

	var sum fill.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatal(err)
	}
	// Snapshot passes are forced dry-run: nothing fills, the report says
	// what would.
	if sum.Stats.Filled != 0 {
		t.Errorf("snapshot filled %d, want 0", sum.Stats.Filled)
	}
	would := 0
	for _, rep := range sum.Reports {
		for _, e := range rep.Entries {
			if e.Action == fill.ActionWouldFill && e.Field == profile.Email {
				would++
			}
		}
	}
	if would != 1 {
		t.Errorf("got %d would-fill entries for email, want 1: %+v", would, sum.Reports)
	}
}

func TestHTTP_ImportExport(t *testing.T) {
	h := testService(t).Router()
	w := doRequest(t, h, "POST", "/v1/import", `{"profile":{"email":"ada@x.com"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("import: %d %s", w.Code, w.Body)
	}
	w = doRequest(t, h, "GET", "/v1/export", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ada@x.com") {
		t.Fatalf("export: %d %s", w.Code, w.Body)
	}
	if w := doRequest(t, h, "POST", "/v1/import", `{"bogus":1}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad import: got %d, want 400", w.Code)
	}
}
