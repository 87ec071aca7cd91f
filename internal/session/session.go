// Package session applies configurations to one live document. It owns the
// processor and watcher pair for the document and moves between the enabled
// and disabled states as configurations arrive.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/conneroisu/namesake/internal/config"
	"github.com/conneroisu/namesake/internal/dom"
	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/logging"
	"github.com/conneroisu/namesake/internal/observer"
	"github.com/conneroisu/namesake/internal/replacer"
	"github.com/conneroisu/namesake/internal/scope"
	"github.com/conneroisu/namesake/internal/status"
	"github.com/conneroisu/namesake/internal/style"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithScheduler sets the frame scheduler. Without one the session runs a
// TickerScheduler at observer.DefaultFrameInterval and stops it on Close.
func WithScheduler(scheduler observer.FrameScheduler) Option {
	return func(s *Session) { s.scheduler = scheduler }
}

// WithResolver shares a scope resolver between sessions.
func WithResolver(resolver *scope.Resolver) Option {
	return func(s *Session) { s.resolver = resolver }
}

// WithClock sets the time source for status timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// applied is the part of the last enabled configuration that decides which
// work a new configuration needs.
type applied struct {
	names     config.Names
	theme     style.Theme
	highlight bool
}

// Session is the orchestrator for one document.
type Session struct {
	doc       *dom.Document
	site      string
	logger    logging.Logger
	resolver  *scope.Resolver
	scheduler observer.FrameScheduler
	ticker    *observer.TickerScheduler
	now       func() time.Time

	// configMu serializes Configure; mu guards the document
	configMu  sync.Mutex
	mu        sync.Mutex
	processor *replacer.Processor
	watcher   *observer.Watcher
	prev      *applied
	last      status.Status
}

// New creates a session for doc, which is served from site.
func New(doc *dom.Document, site string, opts ...Option) *Session {
	s := &Session{doc: doc, site: site}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewTestLogger()
	}
	s.logger = s.logger.WithComponent("session").With("site", site)
	if s.resolver == nil {
		s.resolver = scope.NewResolver(scope.DefaultCacheSize)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.scheduler == nil {
		s.ticker = observer.NewTickerScheduler(observer.DefaultFrameInterval)
		s.ticker.Start(context.Background())
		s.scheduler = s.ticker
	}
	return s
}

// Document returns the live document. Mutations must go through Mutate.
func (s *Session) Document() *dom.Document {
	return s.doc
}

// Decide resolves whether cfg rewrites this session's site.
func (s *Session) Decide(cfg *config.Config) (scope.Decision, string, error) {
	candidate, err := scope.Candidate(s.site)
	if err != nil {
		return scope.Decision{}, "", err
	}
	if !cfg.Enabled {
		return scope.Disabled(), candidate, nil
	}
	d := s.resolver.Resolve(cfg.Allowlist, cfg.Blocklist, cfg.DefaultAllowMode, candidate)
	s.mu.Lock()
	body := s.doc.Body()
	s.mu.Unlock()
	if d.ShouldParse && body == nil {
		d.ShouldParse = false
		d.Reason = scope.ReasonNoContentRoot
	}
	return d, candidate, nil
}

// Configure applies cfg and reports the resulting status. Turning the
// session off reverts every replacement; changing the names reverts and
// reruns; changing the theme or highlight restyles the markers.
func (s *Session) Configure(ctx context.Context, cfg *config.Config) (status.Status, error) {
	s.configMu.Lock()
	defer s.configMu.Unlock()

	decision, candidate, err := s.Decide(cfg)
	if err != nil {
		return status.Status{}, err
	}
	st := status.FromDecision(decision, candidate, s.now())

	if !decision.ShouldParse {
		s.mu.Lock()
		if s.prev != nil {
			s.teardown(ctx)
		}
		s.last = st
		s.mu.Unlock()
		s.logger.Debug(ctx, "not parsing", "reason", decision.Reason)
		return st, nil
	}

	rules, err := replacer.NewRuleSet(cfg.Names.All()...)
	if err != nil {
		return st, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "invalid name pairs")
	}

	s.mu.Lock()
	prev := s.prev
	namesChanged := prev != nil && !prev.names.Equal(cfg.Names)
	restyle := prev == nil || prev.theme != cfg.Theme || prev.highlight != cfg.Highlight

	if namesChanged {
		s.logger.Debug(ctx, "names changed, reverting before rerun")
		s.watcher.Disconnect()
		replacer.RevertAll(s.doc)
	}
	if restyle && !style.Apply(s.doc, cfg.Theme, cfg.Highlight) {
		s.logger.Debug(ctx, "document has no head, skipping highlight style")
	}

	if prev != nil && !namesChanged {
		s.prev = &applied{names: cfg.Names, theme: cfg.Theme, highlight: cfg.Highlight}
		s.last = st
		s.mu.Unlock()
		return st, nil
	}

	if s.watcher != nil {
		s.watcher.Disconnect()
	}
	s.processor = replacer.NewProcessor(s.logger)
	s.watcher = observer.New(s.processor, &s.mu, s.scheduler, s.logger)
	if cfg.BlockUntilDone {
		style.Block(s.doc)
	}
	s.mu.Unlock()

	// readiness may depend on mutations made through Mutate
	if err := s.doc.WaitReady(ctx); err != nil {
		s.mu.Lock()
		style.Unblock(s.doc)
		s.mu.Unlock()
		return st, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.processor.ProcessDocument(s.doc, rules); err != nil {
		s.logger.Warn(ctx, err, "initial pass failed")
	}
	if cfg.BlockUntilDone {
		style.Unblock(s.doc)
	}
	if err := s.watcher.Setup(s.doc, rules); err != nil {
		s.logger.Warn(ctx, err, "could not watch document")
	}

	s.prev = &applied{names: cfg.Names, theme: cfg.Theme, highlight: cfg.Highlight}
	s.last = st

	m := s.processor.Metrics()
	s.logger.Info(ctx, "document processed",
		"rules", len(rules),
		"replacements", m.ReplacementsMade,
		"attributes", m.AttributesUpdated,
	)
	return st, nil
}

// teardown reverts an enabled session. The caller holds s.mu.
func (s *Session) teardown(ctx context.Context) {
	if s.watcher != nil {
		s.watcher.Disconnect()
	}
	restored := replacer.RevertAll(s.doc)
	style.Remove(s.doc)
	style.Unblock(s.doc)
	s.prev = nil
	s.logger.Info(ctx, "replacements reverted", "restored", restored)
}

// Mutate runs fn with exclusive access to the document.
func (s *Session) Mutate(fn func(doc *dom.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

// Status returns the status reported by the last Configure.
func (s *Session) Status() status.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Enabled reports whether replacements are currently applied.
func (s *Session) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prev != nil
}

// Metrics returns the counters of the current processor.
func (s *Session) Metrics() replacer.Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processor == nil {
		return replacer.Metrics{}
	}
	return s.processor.Metrics()
}

// Passes returns how many frame drains the current watcher has run.
func (s *Session) Passes() int {
	s.mu.Lock()
	w := s.watcher
	s.mu.Unlock()
	if w == nil {
		return 0
	}
	return w.Passes()
}

// Close disconnects the watcher and stops a scheduler the session started.
// The document keeps its replacements.
func (s *Session) Close() {
	s.mu.Lock()
	if s.watcher != nil {
		s.watcher.Disconnect()
	}
	s.mu.Unlock()
	if s.ticker != nil {
		s.ticker.Stop()
	}
}
