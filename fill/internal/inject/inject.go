// Package inject writes resolved values into elements. The injector never
// panics out: every outcome, including backend faults, comes back as a
// structured result so a failed field doesn't abort the run.
package inject

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/formfill/dom"
)

// Result reports one injection attempt.
type Result struct {
	OK     bool
	Prev   string // value before the write, on success
	New    string // value written, on success
	Detail string // failure description, on failure
}

func failure(format string, args ...any) Result {
	return Result{Detail: fmt.Sprintf(format, args...)}
}

// Set writes value into el. Text-likes go through the element's write
// capability (backends bypass framework-intercepted setters and dispatch
// input/change there). Discrete selectors are matched in three tiers:
// option value, option text, then containment either way — all on
// normalized strings — and nothing is selected when no tier matches.
func Set(el dom.Element, value string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure("inject %s: panic: %v", el.Ref(), r)
		}
	}()

	if el.Kind() == dom.KindSelect {
		return setOption(el, value)
	}

	prev, err := el.SetValue(value)
	if err != nil {
		return failure("inject %s: %v", el.Ref(), err)
	}
	return Result{OK: true, Prev: prev, New: value}
}

func setOption(el dom.Element, value string) Result {
	want := normalize(value)
	if want == "" {
		return failure("inject %s: empty value for selector", el.Ref())
	}
	opts := el.Options()

	match := pickOption(opts, want)
	if match == nil {
		return failure("inject %s: no option matches %q", el.Ref(), value)
	}

	prev := el.Value()
	if err := el.SelectValue(match.Value); err != nil {
		return failure("inject %s: %v", el.Ref(), err)
	}
	return Result{OK: true, Prev: prev, New: match.Value}
}

// pickOption applies the match tiers in priority order, stopping at the
// first hit. Containment requires one normalized string to contain the
// other whole; "usa" matches neither way against "united states" and is
// correctly rejected.
func pickOption(opts []dom.Option, want string) *dom.Option {
	for i := range opts {
		if normalize(opts[i].Value) == want {
			return &opts[i]
		}
	}
	for i := range opts {
		if normalize(opts[i].Text) == want {
			return &opts[i]
		}
	}
	for i := range opts {
		text := normalize(opts[i].Text)
		if text == "" {
			continue
		}
		if strings.Contains(text, want) || strings.Contains(want, text) {
			return &opts[i]
		}
	}
	return nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
