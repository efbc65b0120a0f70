// Package memdom is an in-memory dom.Document backend. Documents are
// built programmatically (tests, fixtures) or parsed from untrusted HTML
// snapshots. Geometry is explicit where given and synthesized by a simple
// top-down flow otherwise, so the nearest-label heuristic behaves
// predictably on snapshots that carry no layout information.
//
// Every write is recorded: elements remember their dispatched event names
// so callers can assert the input/change notification contract without a
// live page.
package memdom

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/formfill/dom"
)

// Document is an in-memory element tree.
type Document struct {
	url    string
	nodes  []*Node
	frames []*Document

	flowY float64 // synthetic layout cursor
}

// New creates an empty document identified by url.
func New(url string) *Document {
	return &Document{url: url}
}

// URL implements dom.Document.
func (d *Document) URL() string { return d.url }

// ControlSpec describes one fillable control to add.
type ControlSpec struct {
	Kind      dom.Kind
	Type      string // declared input sub-kind, inputs only
	Attrs     map[string]string
	Value     string
	Hidden    bool
	Rect      dom.Rect // zero → synthetic flow position
	Container string   // structural container key, "" = document body
	WrapLabel string   // text of a wrapping ancestor label, if any
	Options   []dom.Option

	// RejectWrites makes SetValue/SelectValue fail, for exercising
	// injection error paths.
	RejectWrites bool
}

// LabelSpec describes one label-like text block.
type LabelSpec struct {
	Text      string
	For       string // target element id for a bound label
	Rect      dom.Rect
	Container string
}

// Node is one element in the document. It implements dom.Element for
// control nodes; label nodes only feed the signal extraction.
type Node struct {
	doc  *Document
	spec ControlSpec

	label   LabelSpec
	isLabel bool

	value  string
	events []string
	index  int
}

func (d *Document) nextRect(h float64) dom.Rect {
	r := dom.Rect{X: 0, Y: d.flowY, W: 240, H: h}
	d.flowY += h + 4
	return r
}

// AddControl appends a fillable control and returns it.
func (d *Document) AddControl(s ControlSpec) *Node {
	if s.Rect == (dom.Rect{}) && !s.Hidden {
		s.Rect = d.nextRect(20)
	}
	n := &Node{doc: d, spec: s, value: s.Value, index: len(d.nodes)}
	d.nodes = append(d.nodes, n)
	return n
}

// AddLabel appends a label-like text block.
func (d *Document) AddLabel(s LabelSpec) *Node {
	if s.Rect == (dom.Rect{}) {
		s.Rect = d.nextRect(16)
	}
	n := &Node{doc: d, label: s, isLabel: true, index: len(d.nodes)}
	d.nodes = append(d.nodes, n)
	return n
}

// AddFrame attaches an embedded sub-document.
func (d *Document) AddFrame(f *Document) {
	d.frames = append(d.frames, f)
}

// Fillables implements dom.Document.
func (d *Document) Fillables() ([]dom.Element, error) {
	var out []dom.Element
	for _, n := range d.nodes {
		if !n.isLabel {
			out = append(out, n)
		}
	}
	return out, nil
}

// Frames implements dom.Document.
func (d *Document) Frames() ([]dom.Document, error) {
	var out []dom.Document
	for _, f := range d.frames {
		out = append(out, f)
	}
	return out, nil
}

// Query resolves "#id" or "[attr=value]" selector hints.
func (d *Document) Query(selector string) (dom.Element, error) {
	sel := strings.TrimSpace(selector)
	var match func(n *Node) bool
	switch {
	case strings.HasPrefix(sel, "#"):
		id := sel[1:]
		match = func(n *Node) bool { return n.spec.Attrs["id"] == id }
	case strings.HasPrefix(sel, "[") && strings.HasSuffix(sel, "]") && strings.Contains(sel, "="):
		body := sel[1 : len(sel)-1]
		k, v, _ := strings.Cut(body, "=")
		v = strings.Trim(v, `"'`)
		match = func(n *Node) bool { return n.spec.Attrs[k] == v }
	default:
		return nil, fmt.Errorf("memdom: unsupported selector %q", selector)
	}
	for _, n := range d.nodes {
		if !n.isLabel && match(n) {
			return n, nil
		}
	}
	return nil, nil
}

// --- dom.Element on control nodes ---

func (n *Node) Kind() dom.Kind { return n.spec.Kind }

func (n *Node) InputType() string {
	if n.spec.Kind != dom.KindInput {
		return ""
	}
	if n.spec.Type == "" {
		return "text"
	}
	return strings.ToLower(n.spec.Type)
}

func (n *Node) Attr(name string) string { return n.spec.Attrs[name] }

func (n *Node) Value() string { return n.value }

func (n *Node) Visible() bool {
	if n.spec.Hidden {
		return false
	}
	return n.spec.Rect.W >= 2 && n.spec.Rect.H >= 2
}

func (n *Node) Rect() dom.Rect { return n.spec.Rect }

func (n *Node) LabelFor() string {
	id := n.spec.Attrs["id"]
	if id == "" {
		return ""
	}
	for _, m := range n.doc.nodes {
		if m.isLabel && m.label.For == id {
			return m.label.Text
		}
	}
	return ""
}

func (n *Node) LabelWrap() string { return n.spec.WrapLabel }

func (n *Node) NearbyLabels() []dom.Label {
	var out []dom.Label
	for _, m := range n.doc.nodes {
		if m.isLabel && m.label.For == "" && m.label.Container == n.spec.Container {
			out = append(out, dom.Label{Text: m.label.Text, Rect: m.label.Rect})
		}
	}
	return out
}

func (n *Node) Options() []dom.Option { return n.spec.Options }

func (n *Node) SetValue(v string) (string, error) {
	if n.spec.RejectWrites {
		return "", fmt.Errorf("memdom: %s rejects writes", n.Ref())
	}
	prev := n.value
	n.value = v
	n.events = append(n.events, "input", "change")
	return prev, nil
}

func (n *Node) SelectValue(optionValue string) error {
	if n.spec.RejectWrites {
		return fmt.Errorf("memdom: %s rejects writes", n.Ref())
	}
	for _, o := range n.spec.Options {
		if o.Value == optionValue {
			n.value = o.Value
			n.events = append(n.events, "input", "change")
			return nil
		}
	}
	return fmt.Errorf("memdom: %s has no option value %q", n.Ref(), optionValue)
}

func (n *Node) Ref() string {
	if id := n.spec.Attrs["id"]; id != "" {
		return n.spec.Kind.String() + "#" + id
	}
	if name := n.spec.Attrs["name"]; name != "" {
		return fmt.Sprintf("%s[name=%s]", n.spec.Kind.String(), name)
	}
	return fmt.Sprintf("%s:nth(%d)", n.spec.Kind.String(), n.index)
}

// Events returns the notification names dispatched on this node, in
// order. Test helper.
func (n *Node) Events() []string { return n.events }
