package fill

import "github.com/hazyhaar/formfill/profile"

// Action is the recorded outcome for one assigned field.
type Action string

const (
	ActionFilled    Action = "filled"
	ActionWouldFill Action = "would-fill"
	ActionSkipped   Action = "skipped"
	ActionError     Action = "error"
)

// Entry is one line of the per-field audit trail.
type Entry struct {
	Field  profile.Field `json:"field"`
	Ref    string        `json:"ref"`
	Action Action        `json:"action"`
	Reason string        `json:"reason,omitempty"`
}

// Stats aggregates outcomes for one context.
type Stats struct {
	Filled  int `json:"filled"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Add sums other into s.
func (s *Stats) Add(other Stats) {
	s.Filled += other.Filled
	s.Skipped += other.Skipped
	s.Errors += other.Errors
}

// Report is the result of one invocation over one context. Created once,
// returned, then discarded: the engine keeps no state across runs.
type Report struct {
	URL     string  `json:"url,omitempty"`
	Stats   Stats   `json:"stats"`
	Entries []Entry `json:"entries"`
}

func (r *Report) record(f profile.Field, ref string, action Action, reason string) {
	r.Entries = append(r.Entries, Entry{Field: f, Ref: ref, Action: action, Reason: reason})
	switch action {
	case ActionFilled:
		r.Stats.Filled++
	case ActionSkipped:
		r.Stats.Skipped++
	case ActionError:
		r.Stats.Errors++
	}
}

// Summary aggregates the independent per-context reports of one fill
// request across a page and its frames. ID is assigned by the caller to
// correlate the summary with its log lines.
type Summary struct {
	ID      string   `json:"id,omitempty"`
	Stats   Stats    `json:"stats"`
	Reports []Report `json:"reports"`
}
