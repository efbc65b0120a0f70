// Package dom defines the document abstraction the autofill engine runs
// over. The engine borrows element references from a host document — it
// never creates, destroys, or retains them past one invocation.
//
// Two backends implement these interfaces: memdom (in-memory, parsed or
// built snapshots) and roddom (live Chrome pages via go-rod). Value
// injection is a capability of the element so each backend owns its write
// path; the engine only decides what to write.
package dom

// Kind is the closed variant of fillable element kinds. Anything else in
// the host document is invisible to the engine.
type Kind int

const (
	KindInput    Kind = iota // single-line text-like input
	KindTextArea             // multi-line text
	KindSelect               // discrete choice selector
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindTextArea:
		return "textarea"
	case KindSelect:
		return "select"
	}
	return "unknown"
}

// Rect is a rendered bounding box in device-independent units.
type Rect struct {
	X, Y, W, H float64
}

// Bottom returns the lower edge of the box.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Right returns the right edge of the box.
func (r Rect) Right() float64 { return r.X + r.W }

// Option is one choice of a discrete selector.
type Option struct {
	Value string
	Text  string
}

// Label is a label-like text with its rendered geometry, used for the
// nearest-label heuristic.
type Label struct {
	Text string
	Rect Rect
}

// Element is one fillable control in the host document. Implementations
// must degrade gracefully: a detached or unreadable element returns zero
// values from the read methods rather than panicking.
type Element interface {
	// Kind reports the closed element kind.
	Kind() Kind
	// InputType is the declared sub-kind for KindInput elements
	// (email, tel, url, date, number, text, ...), lower-case,
	// empty for other kinds.
	InputType() string
	// Attr returns a raw attribute value, empty when absent.
	Attr(name string) string
	// Value is the element's current live value.
	Value() string
	// Visible reports the computed render state: not display:none or
	// visibility:hidden, no hidden attribute, box at least 2 units in
	// both dimensions.
	Visible() bool
	// Rect is the rendered bounding box; zero when unavailable.
	Rect() Rect
	// LabelFor is the text of a label bound to this element via its
	// for attribute, empty when none.
	LabelFor() string
	// LabelWrap is the text of an ancestor label wrapping this
	// element, empty when none.
	LabelWrap() string
	// NearbyLabels returns label-like texts within the smallest
	// enclosing block container, with geometry. Best effort: an empty
	// slice on any failure.
	NearbyLabels() []Label
	// Options enumerates the choices of a KindSelect element.
	Options() []Option

	// SetValue writes v as the element's live value and synthesizes
	// the input and change notifications framework listeners expect.
	// Returns the previous value.
	SetValue(v string) (prev string, err error)
	// SelectValue selects the option with the given underlying value
	// on a KindSelect element. The value must match an existing option
	// exactly; tier matching is the injector's job.
	SelectValue(optionValue string) error

	// Ref is a short human-readable reference for reports, stable for
	// the lifetime of one document snapshot.
	Ref() string
}

// Document is one execution context's queryable element tree.
type Document interface {
	// Fillables returns every candidate element in document order,
	// restricted to the closed Kind set. Fillability filtering
	// (password, hidden, buttons, ...) is the engine's job.
	Fillables() ([]Element, error)
	// Query resolves a selector hint to a single element, nil when it
	// matches nothing. Used by per-domain custom mappings.
	Query(selector string) (Element, error)
	// Frames opens the isolated embedded sub-documents reachable from
	// this one. Best effort: unreachable frames are skipped.
	Frames() ([]Document, error)
	// URL identifies the context for reports, empty when unknown.
	URL() string
}
