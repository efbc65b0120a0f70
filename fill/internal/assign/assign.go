// Package assign resolves the global field→element mapping for one
// document snapshot. Assignment is greedy over descending scores: once an
// element is claimed by its best-scoring field type it is out of play for
// every other type, so one input is never filled twice under two guesses.
package assign

import (
	"sort"

	"github.com/hazyhaar/formfill/dom"
	"github.com/hazyhaar/formfill/fill/internal/score"
	"github.com/hazyhaar/formfill/profile"
)

// Assignment is one field's winning element with its score trail.
type Assignment struct {
	Element dom.Element
	Result  score.Result
}

// unfillable input sub-kinds. These are never autofill targets.
var unfillable = map[string]bool{
	"password": true, "hidden": true, "file": true,
	"submit": true, "button": true, "reset": true, "image": true,
	"checkbox": true, "radio": true,
}

// Fillable reports whether el is a legal autofill target at all,
// independent of visibility.
func Fillable(el dom.Element) bool {
	if el.Kind() != dom.KindInput {
		return true
	}
	return !unfillable[el.InputType()]
}

type candidate struct {
	field    profile.Field
	fieldIdx int
	element  dom.Element
	elemIdx  int
	result   score.Result
}

// Select scores every (element, field) pair and returns at most one
// element per field type. Only visible, fillable elements compete; only
// strictly positive scores (above the scorer's threshold) can win. The
// mapping is deterministic for a given snapshot: ties on score go to the
// element rendered closest to the top of the document, then to document
// order.
func Select(els []dom.Element, fields []profile.Field, scorer *score.Scorer) map[profile.Field]Assignment {
	var cands []candidate
	for ei, el := range els {
		if el == nil || !Fillable(el) || !el.Visible() {
			continue
		}
		for fi, f := range fields {
			res := scorer.Score(el, f)
			if res.Score <= scorer.Threshold() {
				continue
			}
			cands = append(cands, candidate{
				field: f, fieldIdx: fi,
				element: el, elemIdx: ei,
				result: res,
			})
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.result.Score != b.result.Score {
			return a.result.Score > b.result.Score
		}
		if ay, by := a.element.Rect().Y, b.element.Rect().Y; ay != by {
			return ay < by
		}
		if a.elemIdx != b.elemIdx {
			return a.elemIdx < b.elemIdx
		}
		return a.fieldIdx < b.fieldIdx
	})

	out := make(map[profile.Field]Assignment, len(fields))
	claimed := make(map[int]bool, len(els))
	for _, c := range cands {
		if claimed[c.elemIdx] {
			continue
		}
		if _, done := out[c.field]; done {
			continue
		}
		out[c.field] = Assignment{Element: c.element, Result: c.result}
		claimed[c.elemIdx] = true
	}
	return out
}
