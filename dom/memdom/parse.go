package memdom

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/formfill/dom"
)

// snapshotPolicy keeps document structure and form controls from an
// untrusted snapshot and drops everything executable. Scripts, styles and
// event handlers never reach the parser.
var snapshotPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"html", "head", "body", "div", "span", "p", "form", "fieldset",
		"legend", "label", "ul", "ol", "li", "table", "thead", "tbody",
		"tr", "td", "th", "section", "article", "main", "aside",
		"header", "footer", "h1", "h2", "h3", "h4", "h5", "h6", "br",
		"b", "i", "strong", "em", "small",
		"input", "select", "option", "optgroup", "textarea", "button",
	)
	p.AllowAttrs(
		"id", "name", "class", "type", "placeholder", "autocomplete",
		"value", "for", "style", "hidden", "aria-label",
		"data-testid", "data-test", "data-qa",
		"selected", "rows", "cols", "multiple", "disabled", "readonly",
	).Globally()
	return p
}()

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
}

// Parse builds a Document from an untrusted HTML snapshot. The input is
// sanitized before parsing. Snapshots carry no layout, so geometry is
// synthesized top-down: block elements stack vertically, which keeps a
// label written above its control within nearest-label range. Embedded
// iframes are not materialized; attach sub-documents with AddFrame.
func Parse(r io.Reader, url string) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("memdom: read snapshot: %w", err)
	}
	clean := snapshotPolicy.SanitizeBytes(raw)

	root, err := html.Parse(strings.NewReader(string(clean)))
	if err != nil {
		return nil, fmt.Errorf("memdom: parse snapshot: %w", err)
	}

	d := New(url)
	w := &walker{doc: d}
	w.walk(root, "body", "")
	return d, nil
}

type walker struct {
	doc       *Document
	container int
}

var blockAtoms = map[atom.Atom]bool{
	atom.Div: true, atom.P: true, atom.Form: true, atom.Fieldset: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Table: true,
	atom.Tr: true, atom.Td: true, atom.Th: true, atom.Section: true,
	atom.Article: true, atom.Main: true, atom.Aside: true,
	atom.Header: true, atom.Footer: true, atom.Body: true,
}

func (w *walker) walk(n *html.Node, container, wrapLabel string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Input, atom.Textarea, atom.Select:
			w.addControl(n, container, wrapLabel)
			return
		case atom.Label:
			w.addLabel(n, container, wrapLabel)
			return
		}
		if blockAtoms[n.DataAtom] {
			w.container++
			container = fmt.Sprintf("c%d", w.container)
		}
		if strings.Contains(attrVal(n, "class"), "label") {
			if text := nodeText(n); text != "" {
				w.doc.AddLabel(LabelSpec{Text: text, Container: container})
				return
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, container, wrapLabel)
	}
}

func (w *walker) addLabel(n *html.Node, container, wrapLabel string) {
	text := nodeText(n)
	if forID := attrVal(n, "for"); forID != "" {
		if text != "" {
			w.doc.AddLabel(LabelSpec{Text: text, For: forID, Container: container})
		}
		return
	}
	if hasControlDescendant(n) {
		// Wrapping label: the control inherits the label text.
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c, container, text)
		}
		return
	}
	if text != "" {
		w.doc.AddLabel(LabelSpec{Text: text, Container: container})
	}
}

func (w *walker) addControl(n *html.Node, container, wrapLabel string) {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}

	spec := ControlSpec{
		Attrs:     attrs,
		Container: container,
		WrapLabel: wrapLabel,
		Value:     attrs["value"],
	}

	switch n.DataAtom {
	case atom.Input:
		spec.Kind = dom.KindInput
		spec.Type = strings.ToLower(attrs["type"])
	case atom.Textarea:
		spec.Kind = dom.KindTextArea
		spec.Value = nodeText(n)
	case atom.Select:
		spec.Kind = dom.KindSelect
		spec.Options, spec.Value = parseOptions(n)
	}

	if _, ok := attrs["hidden"]; ok {
		spec.Hidden = true
	}
	for _, pat := range hiddenStylePatterns {
		if pat.MatchString(attrs["style"]) {
			spec.Hidden = true
		}
	}

	w.doc.AddControl(spec)
}

func parseOptions(sel *html.Node) (opts []dom.Option, selected string) {
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			text := nodeText(n)
			value := text
			if v := attrVal(n, "value"); v != "" || hasAttr(n, "value") {
				value = v
			}
			opts = append(opts, dom.Option{Value: value, Text: text})
			if hasAttr(n, "selected") {
				selected = value
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(sel)
	if selected == "" && len(opts) > 0 {
		selected = opts[0].Value
	}
	return opts, selected
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func hasControlDescendant(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			switch c.DataAtom {
			case atom.Input, atom.Textarea, atom.Select:
				return true
			}
		}
		if hasControlDescendant(c) {
			return true
		}
	}
	return false
}

// nodeText collects the visible text of a node, excluding nested form
// controls, whitespace-collapsed.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(m *html.Node) {
		if m.Type == html.TextNode {
			b.WriteString(m.Data)
			b.WriteByte(' ')
			return
		}
		if m.Type == html.ElementNode {
			switch m.DataAtom {
			case atom.Input, atom.Textarea, atom.Select:
				return
			}
		}
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
