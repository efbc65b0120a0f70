// Package roddom is the live-page dom.Document backend over go-rod.
//
// Element state is captured once per invocation: the first Fillables call
// runs an injected collector that snapshots every candidate's attributes,
// labels, geometry and options, and stashes the live element references
// page-side for later writes. Scoring then runs entirely in Go over the
// snapshot; only injection goes back to the page.
package roddom

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/formfill/dom"
)

//go:embed collect.js
var collectJS string

//go:embed setvalue.js
var setValueJS string

// Document wraps one rod page (or frame) as a dom.Document.
type Document struct {
	page   *rod.Page
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	recs []record
	done bool
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) { d.logger = l }
}

// NewDocument wraps page. The url is used only for reports.
func NewDocument(page *rod.Page, url string, opts ...Option) *Document {
	d := &Document{page: page, url: url, logger: slog.Default()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// record mirrors the JSON produced by collect.js.
type record struct {
	Index     int               `json:"index"`
	Kind      string            `json:"kind"`
	Type      string            `json:"type"`
	Value     string            `json:"value"`
	Rect      rect              `json:"rect"`
	Visible   bool              `json:"visible"`
	Attrs     map[string]string `json:"attrs"`
	LabelFor  string            `json:"labelFor"`
	LabelWrap string            `json:"labelWrap"`
	Nearby    []nearbyLabel     `json:"nearby"`
	Options   []dom.Option      `json:"options"`
	Ref       string            `json:"ref"`
}

type rect struct {
	X, Y, W, H float64
}

type nearbyLabel struct {
	Text string `json:"text"`
	Rect rect   `json:"rect"`
}

// URL implements dom.Document.
func (d *Document) URL() string { return d.url }

func (d *Document) collect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return nil
	}
	res, err := d.page.Eval(collectJS)
	if err != nil {
		return fmt.Errorf("roddom: collect candidates: %w", err)
	}
	var recs []record
	if err := json.Unmarshal([]byte(res.Value.Str()), &recs); err != nil {
		return fmt.Errorf("roddom: decode candidates: %w", err)
	}
	d.recs = recs
	d.done = true
	return nil
}

// Fillables implements dom.Document. The snapshot is taken on first call
// and reused for the rest of the invocation.
func (d *Document) Fillables() ([]dom.Element, error) {
	if err := d.collect(); err != nil {
		return nil, err
	}
	out := make([]dom.Element, 0, len(d.recs))
	for i := range d.recs {
		out = append(out, &element{doc: d, rec: &d.recs[i]})
	}
	return out, nil
}

// Query resolves "#id" and "[attr=value]" hints against the snapshot.
func (d *Document) Query(selector string) (dom.Element, error) {
	if err := d.collect(); err != nil {
		return nil, err
	}
	sel := strings.TrimSpace(selector)
	var match func(r *record) bool
	switch {
	case strings.HasPrefix(sel, "#"):
		id := sel[1:]
		match = func(r *record) bool { return r.Attrs["id"] == id }
	case strings.HasPrefix(sel, "[") && strings.HasSuffix(sel, "]") && strings.Contains(sel, "="):
		k, v, _ := strings.Cut(sel[1:len(sel)-1], "=")
		v = strings.Trim(v, `"'`)
		match = func(r *record) bool { return r.Attrs[k] == v }
	default:
		return nil, fmt.Errorf("roddom: unsupported selector %q", selector)
	}
	for i := range d.recs {
		if match(&d.recs[i]) {
			return &element{doc: d, rec: &d.recs[i]}, nil
		}
	}
	return nil, nil
}

// Frames opens same-process subframes as independent documents. Frames
// that cannot be opened are skipped.
func (d *Document) Frames() ([]dom.Document, error) {
	iframes, err := d.page.Elements("iframe")
	if err != nil {
		return nil, nil
	}
	var out []dom.Document
	for _, el := range iframes {
		fp, err := el.Frame()
		if err != nil {
			d.logger.Debug("roddom: skip frame", "error", err)
			continue
		}
		src, _ := el.Attribute("src")
		u := ""
		if src != nil {
			u = *src
		}
		out = append(out, NewDocument(fp, u, WithLogger(d.logger)))
	}
	return out, nil
}

type element struct {
	doc *Document
	rec *record
}

func (e *element) Kind() dom.Kind {
	switch e.rec.Kind {
	case "textarea":
		return dom.KindTextArea
	case "select":
		return dom.KindSelect
	}
	return dom.KindInput
}

func (e *element) InputType() string {
	if e.Kind() != dom.KindInput {
		return ""
	}
	if e.rec.Type == "" {
		return "text"
	}
	return e.rec.Type
}

func (e *element) Attr(name string) string { return e.rec.Attrs[name] }
func (e *element) Value() string           { return e.rec.Value }
func (e *element) Visible() bool           { return e.rec.Visible }

func (e *element) Rect() dom.Rect {
	return dom.Rect{X: e.rec.Rect.X, Y: e.rec.Rect.Y, W: e.rec.Rect.W, H: e.rec.Rect.H}
}

func (e *element) LabelFor() string  { return e.rec.LabelFor }
func (e *element) LabelWrap() string { return e.rec.LabelWrap }

func (e *element) NearbyLabels() []dom.Label {
	out := make([]dom.Label, 0, len(e.rec.Nearby))
	for _, n := range e.rec.Nearby {
		out = append(out, dom.Label{
			Text: n.Text,
			Rect: dom.Rect{X: n.Rect.X, Y: n.Rect.Y, W: n.Rect.W, H: n.Rect.H},
		})
	}
	return out
}

func (e *element) Options() []dom.Option { return e.rec.Options }

func (e *element) SetValue(v string) (string, error) {
	res, err := e.doc.page.Eval(setValueJS, e.rec.Index, v)
	if err != nil {
		return "", fmt.Errorf("roddom: set %s: %w", e.rec.Ref, err)
	}
	prev := res.Value.Str()
	e.rec.Value = v
	return prev, nil
}

func (e *element) SelectValue(optionValue string) error {
	_, err := e.doc.page.Eval(setValueJS, e.rec.Index, optionValue)
	if err != nil {
		return fmt.Errorf("roddom: select %s: %w", e.rec.Ref, err)
	}
	e.rec.Value = optionValue
	return nil
}

func (e *element) Ref() string { return e.rec.Ref }

// Ping checks context reachability with a trivial eval. The no-op
// acknowledgment used by the coordinator's health check.
func (d *Document) Ping(ctx context.Context) error {
	_, err := d.page.Context(ctx).Eval(`() => true`)
	if err != nil {
		return fmt.Errorf("roddom: ping: %w", err)
	}
	return nil
}
