// Package fill orchestrates one autofill pass: candidate collection,
// scoring, global assignment, policy gating, and value injection,
// producing a structured per-context report.
//
// One invocation processes one document context synchronously to
// completion over a snapshot of element state. The engine holds no state
// between invocations; running it twice with SkipIfNotEmpty is a no-op
// on the second pass.
package fill

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hazyhaar/formfill/dom"
	"github.com/hazyhaar/formfill/fill/internal/assign"
	"github.com/hazyhaar/formfill/fill/internal/inject"
	"github.com/hazyhaar/formfill/fill/internal/score"
	"github.com/hazyhaar/formfill/profile"
)

// Invocation phases, logged at debug level. Terminal phase is "reported";
// there are no retries within a single invocation.
const (
	phaseCollecting = "collecting-candidates"
	phaseScoring    = "scoring"
	phaseSelecting  = "selecting"
	phasePolicy     = "applying-policy"
	phaseInjecting  = "injecting"
	phaseReported   = "reported"
)

// Weights re-exports the scoring weight set for callers configuring an
// Engine.
type Weights = score.Weights

// DefaultWeights returns the tuned scoring constants.
func DefaultWeights() Weights { return score.Defaults() }

// Engine runs fill passes. Safe for concurrent use: every run is pure
// over its own inputs.
type Engine struct {
	scorer *score.Scorer
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithWeights overrides the scoring weight set. Defaults are the tuned
// constants; tests and site operators may adjust them.
func WithWeights(w score.Weights) Option {
	return func(e *Engine) { e.scorer = score.New(w) }
}

// NewEngine creates an Engine with default weights.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		scorer: score.New(score.Defaults()),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run executes one fill pass over one document context. Every failure is
// local: a context with no candidates yields a zeroed report, a failed
// injection is recorded and the run continues.
func (e *Engine) Run(ctx context.Context, doc dom.Document, prof profile.Profile, pol Policy) Report {
	report := Report{URL: doc.URL()}
	log := e.logger.With("url", doc.URL())

	log.Debug("fill: phase", "phase", phaseCollecting)
	els, err := doc.Fillables()
	if err != nil || len(els) == 0 {
		if err != nil {
			log.Warn("fill: no candidates", "error", err)
		}
		return report
	}

	// Custom-mapped fields bypass classification entirely; their
	// elements leave the candidate pool so selection cannot hand them
	// to another field.
	custom := e.resolveCustom(doc, pol, log)
	pool := els[:0:0]
	for _, el := range els {
		if !claimedByCustom(custom, el) {
			pool = append(pool, el)
		}
	}
	fields := make([]profile.Field, 0, len(profile.All))
	for _, f := range profile.All {
		if _, ok := custom[f]; !ok {
			fields = append(fields, f)
		}
	}

	log.Debug("fill: phase", "phase", phaseScoring)
	log.Debug("fill: phase", "phase", phaseSelecting)
	selected := assign.Select(pool, fields, e.scorer)

	log.Debug("fill: phase", "phase", phasePolicy)
	for _, f := range profile.All {
		el, ok := elementFor(f, custom, selected)
		if !ok {
			continue
		}
		e.applyOne(f, el, prof, pol, &report, log)
	}

	log.Debug("fill: phase", "phase", phaseReported,
		"filled", report.Stats.Filled,
		"skipped", report.Stats.Skipped,
		"errors", report.Stats.Errors)
	return report
}

func elementFor(f profile.Field, custom map[profile.Field]dom.Element, selected map[profile.Field]assign.Assignment) (dom.Element, bool) {
	if el, ok := custom[f]; ok {
		return el, true
	}
	if a, ok := selected[f]; ok {
		return a.Element, true
	}
	return nil, false
}

func claimedByCustom(custom map[profile.Field]dom.Element, el dom.Element) bool {
	for _, c := range custom {
		if c == el || c.Ref() == el.Ref() {
			return true
		}
	}
	return false
}

// resolveCustom maps selector hints to elements. Hints for disabled types
// are not even resolved: the disabled set wins. Unresolvable or
// unfillable hints degrade to normal classification for that field.
func (e *Engine) resolveCustom(doc dom.Document, pol Policy, log *slog.Logger) map[profile.Field]dom.Element {
	if len(pol.CustomMap) == 0 {
		return nil
	}
	out := make(map[profile.Field]dom.Element, len(pol.CustomMap))
	for _, f := range profile.All {
		hint, ok := pol.CustomMap[f]
		if !ok || pol.disabled(f) {
			continue
		}
		el, err := doc.Query(hint)
		if err != nil || el == nil {
			log.Debug("fill: custom hint unresolved", "field", f, "hint", hint, "error", err)
			continue
		}
		if !assign.Fillable(el) || !el.Visible() {
			continue
		}
		out[f] = el
	}
	return out
}

// applyOne runs the policy gate chain for one assigned field and, when it
// passes, injects the value.
func (e *Engine) applyOne(f profile.Field, el dom.Element, prof profile.Profile, pol Policy, report *Report, log *slog.Logger) {
	ref := el.Ref()

	if !pol.enabled(f) {
		report.record(f, ref, ActionSkipped, "not-enabled")
		return
	}
	if pol.disabled(f) {
		report.record(f, ref, ActionSkipped, "disabled")
		return
	}

	value := prof.Get(f)
	if value == "" {
		report.record(f, ref, ActionSkipped, "no-value")
		return
	}

	current := el.Value()
	if isNameField(f) && pol.NameLock.Enabled {
		switch pol.NameLock.Mode {
		case NameLockNever:
			report.record(f, ref, ActionSkipped, "name-locked")
			return
		case NameLockProtect:
			if looksLikeName(current) {
				report.record(f, ref, ActionSkipped, "name-protected")
				return
			}
		default: // NameLockIfEmpty
			if pol.SkipIfNotEmpty && current != "" {
				report.record(f, ref, ActionSkipped, "already-filled")
				return
			}
		}
	} else if pol.SkipIfNotEmpty && current != "" {
		report.record(f, ref, ActionSkipped, "already-filled")
		return
	}

	if pol.DryRun {
		report.record(f, ref, ActionWouldFill, "")
		return
	}

	log.Debug("fill: phase", "phase", phaseInjecting, "field", f, "ref", ref)
	res := inject.Set(el, value)
	if !res.OK {
		report.record(f, ref, ActionError, res.Detail)
		return
	}
	report.record(f, ref, ActionFilled, "")
}

// RunAll runs one complete, isolated invocation per context: the document
// itself plus every sub-document reachable through its frame traversal
// capability. Contexts share no state, so they run concurrently; their
// reports are aggregated in traversal order.
func (e *Engine) RunAll(ctx context.Context, doc dom.Document, prof profile.Profile, pol Policy) Summary {
	contexts := collectContexts(doc, 0)

	reports := make([]Report, len(contexts))
	var wg sync.WaitGroup
	for i, c := range contexts {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int, c dom.Document) {
			defer wg.Done()
			reports[i] = e.Run(ctx, c, prof, pol)
		}(i, c)
	}
	wg.Wait()

	var sum Summary
	for _, r := range reports {
		sum.Stats.Add(r.Stats)
		sum.Reports = append(sum.Reports, r)
	}
	return sum
}

// maxFrameDepth bounds frame recursion on hostile documents.
const maxFrameDepth = 5

func collectContexts(doc dom.Document, depth int) []dom.Document {
	out := []dom.Document{doc}
	if depth >= maxFrameDepth {
		return out
	}
	frames, err := doc.Frames()
	if err != nil {
		return out
	}
	for _, f := range frames {
		out = append(out, collectContexts(f, depth+1)...)
	}
	return out
}
