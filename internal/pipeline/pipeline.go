// Package pipeline rewrites and reverts static HTML documents. Each document
// gets its own session; batches fan out over a bounded number of goroutines.
package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/namesake/internal/config"
	"github.com/conneroisu/namesake/internal/dom"
	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/logging"
	"github.com/conneroisu/namesake/internal/observer"
	"github.com/conneroisu/namesake/internal/replacer"
	"github.com/conneroisu/namesake/internal/scope"
	"github.com/conneroisu/namesake/internal/session"
	"github.com/conneroisu/namesake/internal/status"
	"github.com/conneroisu/namesake/internal/style"
)

// Result describes what happened to one document.
type Result struct {
	Path     string
	Status   status.Status
	Metrics  replacer.Metrics
	Restored int
	Changed  bool
	Err      error
}

// Rewriter applies one configuration to many documents. It is safe for
// concurrent use.
type Rewriter struct {
	cfg      *config.Config
	logger   logging.Logger
	resolver *scope.Resolver
	site     func(path string) string
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Rewriter) { r.logger = logger }
}

// WithSite fixes the site identity used for scope checks. Without it each
// file is checked as localhost/<path>.
func WithSite(site string) Option {
	return func(r *Rewriter) {
		if site != "" {
			r.site = func(string) string { return site }
		}
	}
}

// NewRewriter creates a Rewriter for cfg.
func NewRewriter(cfg *config.Config, opts ...Option) *Rewriter {
	r := &Rewriter{
		cfg:      cfg,
		resolver: scope.NewResolver(scope.DefaultCacheSize),
		site:     SiteForPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewTestLogger()
	}
	r.logger = r.logger.WithComponent("pipeline")
	return r
}

// SiteForPath is the site identity of a local file.
func SiteForPath(path string) string {
	clean := filepath.ToSlash(filepath.Clean(path))
	return "localhost/" + strings.TrimLeft(clean, "/")
}

// Rewrite reads a document from in, applies the configuration and writes the
// result to out.
func (r *Rewriter) Rewrite(ctx context.Context, in io.Reader, out io.Writer, site string) (Result, error) {
	doc, err := dom.Parse(in)
	if err != nil {
		return Result{}, err
	}

	s := session.New(doc, site,
		session.WithLogger(r.logger),
		session.WithResolver(r.resolver),
		session.WithScheduler(observer.NewManualScheduler()),
	)
	defer s.Close()

	st, err := s.Configure(ctx, r.cfg)
	if err != nil {
		return Result{}, err
	}
	if err := doc.Render(out); err != nil {
		return Result{}, err
	}
	return Result{Status: st, Metrics: s.Metrics()}, nil
}

// Revert reads a rewritten document from in and writes it back without
// markers, cached attributes, the recorded title or injected styles.
func Revert(in io.Reader, out io.Writer) (int, error) {
	doc, err := dom.Parse(in)
	if err != nil {
		return 0, err
	}
	restored := replacer.RevertAll(doc)
	style.Remove(doc)
	style.Unblock(doc)
	return restored, doc.Render(out)
}

// RewriteFile rewrites src into dst. An empty dst rewrites src in place, and
// an unchanged document is not written back.
func (r *Rewriter) RewriteFile(ctx context.Context, src, dst string) Result {
	original, err := os.ReadFile(src)
	if err != nil {
		return Result{Path: src, Err: errors.WrapIO(err, errors.ErrCodeFileNotFound, "cannot read document").WithFile(src)}
	}

	var buf bytes.Buffer
	res, err := r.Rewrite(ctx, bytes.NewReader(original), &buf, r.site(src))
	res.Path = src
	if err != nil {
		res.Err = withFile(err, src)
		return res
	}

	// documents left alone keep their original bytes rather than the
	// parser's normalised form
	output := buf.Bytes()
	if !res.Status.IsParsing || res.Metrics.ReplacementsMade+res.Metrics.AttributesUpdated == 0 {
		output = original
	}
	res.Changed = !bytes.Equal(output, original)
	if err := writeResult(src, dst, output, res.Changed); err != nil {
		res.Err = err
		return res
	}

	r.logger.Debug(ctx, "document rewritten",
		"path", src,
		"parsing", res.Status.IsParsing,
		"replacements", res.Metrics.ReplacementsMade,
	)
	return res
}

// RevertFile reverts src into dst, in place when dst is empty.
func RevertFile(src, dst string) Result {
	original, err := os.ReadFile(src)
	if err != nil {
		return Result{Path: src, Err: errors.WrapIO(err, errors.ErrCodeFileNotFound, "cannot read document").WithFile(src)}
	}

	var buf bytes.Buffer
	restored, err := Revert(bytes.NewReader(original), &buf)
	res := Result{Path: src, Restored: restored}
	if err != nil {
		res.Err = withFile(err, src)
		return res
	}
	output := buf.Bytes()
	if restored == 0 && !bytes.Contains(original, []byte(replacer.MarkerAttr)) {
		output = original
	}
	res.Changed = !bytes.Equal(output, original)
	res.Err = writeResult(src, dst, output, res.Changed)
	return res
}

func writeResult(src, dst string, data []byte, changed bool) error {
	target := dst
	if target == "" {
		if !changed {
			return nil
		}
		target = src
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(src); err == nil {
		mode = info.Mode().Perm()
	}
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapIO(err, errors.ErrCodeWriteFailed, "cannot create output directory").WithFile(dir)
		}
	}
	if err := os.WriteFile(target, data, mode); err != nil {
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "cannot write document").WithFile(target)
	}
	return nil
}

func withFile(err error, path string) error {
	var ne *errors.NamesakeError
	if errors.As(err, &ne) {
		return ne.WithFile(path)
	}
	return errors.WrapIO(err, errors.ErrCodeInternalError, "failed to process document").WithFile(path)
}
