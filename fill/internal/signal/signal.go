// Package signal extracts the textual hints tying a candidate element to
// a field type. Each hint carries a fixed per-source weight: how much to
// trust the text, independent of when it was collected.
package signal

import (
	"github.com/hazyhaar/formfill/dom"
)

// Source identifies where a signal's text came from.
type Source string

const (
	SourcePlaceholder  Source = "placeholder"
	SourceAriaLabel    Source = "aria-label"
	SourceName         Source = "name"
	SourceID           Source = "id"
	SourceAutocomplete Source = "autocomplete"
	SourceTestID       Source = "test-id"
	SourceLabelFor     Source = "label-for"
	SourceLabelWrap    Source = "label-wrap"
	SourceNearLabel    Source = "near-label"
)

// Weights per source. Explicit label bindings are the most reliable hint
// a document offers; generated test ids the least.
var sourceWeight = map[Source]int{
	SourceAutocomplete: 7,
	SourceLabelFor:     9,
	SourceLabelWrap:    9,
	SourceNearLabel:    6,
	SourceAriaLabel:    5,
	SourcePlaceholder:  4,
	SourceName:         3,
	SourceID:           3,
	SourceTestID:       2,
}

// Geometry limits for the nearest-label heuristic, in device-independent
// units. Tunable, not protocol.
const (
	// EdgeTolerance lets a label overlap the element edge slightly and
	// still count as "above" or "left of" it.
	EdgeTolerance = 8.0
	// MaxLabelGap is the farthest a label may sit from the element and
	// still be considered a signal at all.
	MaxLabelGap = 80.0
)

// Signal is one textual hint extracted from an element.
type Signal struct {
	Text   string
	Weight int
	Source Source
}

// testIDAttrs are the test-id attribute spellings consulted, capped at
// three.
var testIDAttrs = []string{"data-testid", "data-test", "data-qa"}

// Extract collects one signal per non-empty source, in fixed priority
// order. Extraction is best effort: a backend that cannot resolve labels
// or geometry yields fewer signals, never an error.
func Extract(el dom.Element) []Signal {
	var out []Signal
	add := func(src Source, text string) {
		if text != "" {
			out = append(out, Signal{Text: text, Weight: sourceWeight[src], Source: src})
		}
	}

	add(SourcePlaceholder, el.Attr("placeholder"))
	add(SourceAriaLabel, el.Attr("aria-label"))
	add(SourceName, el.Attr("name"))
	add(SourceID, el.Attr("id"))
	add(SourceAutocomplete, el.Attr("autocomplete"))
	for _, a := range testIDAttrs {
		add(SourceTestID, el.Attr(a))
	}
	add(SourceLabelFor, el.LabelFor())
	add(SourceLabelWrap, el.LabelWrap())
	add(SourceNearLabel, nearestLabel(el))

	return out
}

// nearestLabel applies the geometric rule: among label-like texts in the
// element's structural container, keep those sitting above or to the left
// (within EdgeTolerance), and pick the one minimizing the lesser of its
// vertical or horizontal gap. Labels beyond MaxLabelGap are not signals.
func nearestLabel(el dom.Element) string {
	rect := el.Rect()
	if rect.W <= 0 || rect.H <= 0 {
		return ""
	}

	best := ""
	bestGap := MaxLabelGap + 1
	for _, lb := range el.NearbyLabels() {
		above := lb.Rect.Bottom() <= rect.Y+EdgeTolerance
		left := lb.Rect.Right() <= rect.X+EdgeTolerance
		if !above && !left {
			continue
		}

		// Gap is measured on the axis the label qualifies on; when it
		// qualifies on both, the lesser gap counts.
		gap := MaxLabelGap + 1
		if above {
			if g := max(0, rect.Y-lb.Rect.Bottom()); g < gap {
				gap = g
			}
		}
		if left {
			if g := max(0, rect.X-lb.Rect.Right()); g < gap {
				gap = g
			}
		}

		if gap > MaxLabelGap {
			continue
		}
		if gap < bestGap {
			bestGap = gap
			best = lb.Text
		}
	}
	return best
}
