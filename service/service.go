// Package service wires the autofill engine to its collaborators: the
// browser manager for live pages, the store for profile/settings/rules,
// and the HTTP and MCP control surfaces.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/hazyhaar/formfill/browser"
	"github.com/hazyhaar/formfill/dom/memdom"
	"github.com/hazyhaar/formfill/dom/roddom"
	"github.com/hazyhaar/formfill/fill"
	"github.com/hazyhaar/formfill/idgen"
	"github.com/hazyhaar/formfill/store"
)

// Service exposes fill passes over live pages and static snapshots.
type Service struct {
	engine *fill.Engine
	store  *store.Store
	mgr    *browser.Manager
	logger *slog.Logger
	ids    idgen.Generator
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEngine replaces the default engine (custom weights, mostly).
func WithEngine(e *fill.Engine) Option {
	return func(s *Service) { s.engine = e }
}

// New creates a Service. mgr may be nil when only snapshot fills are
// needed.
func New(st *store.Store, mgr *browser.Manager, opts ...Option) *Service {
	s := &Service{
		store:  st,
		mgr:    mgr,
		logger: slog.Default(),
		ids:    idgen.Prefixed("fill_", idgen.UUIDv7()),
	}
	for _, o := range opts {
		o(s)
	}
	if s.engine == nil {
		s.engine = fill.NewEngine(fill.WithLogger(s.logger))
	}
	return s
}

// Overrides adjust the stored policy for one request.
type Overrides struct {
	DryRun *bool `json:"dryRun,omitempty"`
}

func (s *Service) policyFor(target string, ov Overrides) (fill.Policy, error) {
	domain := ""
	if u, err := url.Parse(target); err == nil {
		domain = u.Hostname()
	}
	pol, err := s.store.PolicyFor(domain)
	if err != nil {
		return fill.Policy{}, err
	}
	if ov.DryRun != nil {
		pol.DryRun = *ov.DryRun
	}
	return pol, nil
}

// RunURL opens target in the managed browser and runs one fill request
// over the page and its reachable frames.
func (s *Service) RunURL(ctx context.Context, target string, ov Overrides) (fill.Summary, error) {
	if s.mgr == nil {
		return fill.Summary{}, fmt.Errorf("service: no browser configured")
	}
	prof, err := s.store.Profile()
	if err != nil {
		return fill.Summary{}, err
	}
	pol, err := s.policyFor(target, ov)
	if err != nil {
		return fill.Summary{}, err
	}

	page, err := s.mgr.Open(ctx, target)
	if err != nil {
		return fill.Summary{}, err
	}
	defer page.Close()

	doc := roddom.NewDocument(page, target, roddom.WithLogger(s.logger))
	sum := s.engine.RunAll(ctx, doc, prof, pol)
	sum.ID = s.ids()
	s.logger.Info("service: fill complete", "id", sum.ID, "url", target,
		"contexts", len(sum.Reports),
		"filled", sum.Stats.Filled,
		"skipped", sum.Stats.Skipped,
		"errors", sum.Stats.Errors)
	return sum, nil
}

// RunSnapshot runs a fill pass over a parsed HTML snapshot. There is no
// live page to mutate, so the pass is forced to dry-run: it reports what
// would be filled.
func (s *Service) RunSnapshot(ctx context.Context, r io.Reader, sourceURL string) (fill.Summary, error) {
	prof, err := s.store.Profile()
	if err != nil {
		return fill.Summary{}, err
	}
	pol, err := s.policyFor(sourceURL, Overrides{})
	if err != nil {
		return fill.Summary{}, err
	}
	pol.DryRun = true

	doc, err := memdom.Parse(r, sourceURL)
	if err != nil {
		return fill.Summary{}, err
	}
	sum := s.engine.RunAll(ctx, doc, prof, pol)
	sum.ID = s.ids()
	return sum, nil
}

// Ping is the liveness no-op: it confirms the service (and, when a
// browser is attached, the browser connection) is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
