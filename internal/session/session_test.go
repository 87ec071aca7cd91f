package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/namesake/internal/config"
	"github.com/conneroisu/namesake/internal/dom"
	"github.com/conneroisu/namesake/internal/observer"
	"github.com/conneroisu/namesake/internal/pattern"
	"github.com/conneroisu/namesake/internal/scope"
	"github.com/conneroisu/namesake/internal/style"
)

const page = `<html><head><title>Ann's page</title></head><body><p>Hello Ann</p><div id="feed"></div></body></html>`

var fixed = time.UnixMilli(1700000000000)

func newSession(t *testing.T, src string) (*Session, *observer.ManualScheduler) {
	t.Helper()
	doc, err := dom.ParseString(src)
	require.NoError(t, err)
	sched := observer.NewManualScheduler()
	s := New(doc, "https://www.example.com/profile", WithScheduler(sched), WithClock(func() time.Time { return fixed }))
	t.Cleanup(s.Close)
	return s, sched
}

func enabled(dead, chosen string) *config.Config {
	cfg := config.Default()
	cfg.Names.First = []pattern.NamePair{{Dead: dead, Chosen: chosen}}
	return cfg
}

func feedDiv(doc *dom.Document) *html.Node {
	return dom.FindElement(doc.Body(), atom.Div)
}

func TestFirstEnableProcessesAndWatches(t *testing.T) {
	s, sched := newSession(t, page)

	st, err := s.Configure(context.Background(), enabled("Ann", "Emma"))
	require.NoError(t, err)
	assert.True(t, st.IsParsing)
	assert.Equal(t, scope.ReasonEnabled, st.Reason)
	assert.Equal(t, "example.com/profile", st.Site)
	assert.Equal(t, fixed.UnixMilli(), st.Timestamp)
	assert.Equal(t, st, s.Status())
	assert.True(t, s.Enabled())

	doc := s.Document()
	assert.Equal(t, "Emma's page", doc.Title())
	assert.Equal(t, "Hello Emma", dom.TextContent(dom.FindElement(doc.Body(), atom.P)))
	assert.Contains(t, doc.String(), "<style deadname")

	var p *html.Node
	s.Mutate(func(doc *dom.Document) {
		p = dom.NewElement("p")
		p.AppendChild(dom.NewText("Ann again"))
		doc.AppendChild(feedDiv(doc), p)
	})
	assert.Equal(t, 1, sched.Flush())
	assert.Equal(t, "Emma again", dom.TextContent(p))
	assert.Equal(t, 1, s.Passes())
	assert.Equal(t, 3, s.Metrics().ReplacementsMade)
}

func TestDisableRestoresDocument(t *testing.T) {
	s, sched := newSession(t, page)
	original := s.Document().String()

	_, err := s.Configure(context.Background(), enabled("Ann", "Emma"))
	require.NoError(t, err)
	require.NotEqual(t, original, s.Document().String())

	cfg := enabled("Ann", "Emma")
	cfg.Enabled = false
	st, err := s.Configure(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, st.IsParsing)
	assert.Equal(t, scope.ReasonExtensionDisabled, st.Reason)
	assert.False(t, s.Enabled())
	assert.Equal(t, original, s.Document().String())

	s.Mutate(func(doc *dom.Document) {
		doc.AppendChild(feedDiv(doc), dom.NewText("Ann"))
	})
	assert.Zero(t, sched.Pending(), "the watcher is disconnected")

	// disabling again is a no-op
	_, err = s.Configure(context.Background(), cfg)
	require.NoError(t, err)
}

func TestBlockedSiteIsLeftAlone(t *testing.T) {
	s, _ := newSession(t, page)
	original := s.Document().String()

	cfg := enabled("Ann", "Emma")
	cfg.Blocklist = []string{"example.com"}
	st, err := s.Configure(context.Background(), cfg)
	require.NoError(t, err)

	assert.False(t, st.IsParsing)
	assert.Equal(t, scope.ReasonBlockedByBlocklist, st.Reason)
	require.NotNil(t, st.BlockMatch)
	assert.Equal(t, "example.com", *st.BlockMatch)
	assert.Equal(t, original, s.Document().String())
}

func TestBlocklistAddedWhileEnabledReverts(t *testing.T) {
	s, _ := newSession(t, page)
	original := s.Document().String()

	_, err := s.Configure(context.Background(), enabled("Ann", "Emma"))
	require.NoError(t, err)

	cfg := enabled("Ann", "Emma")
	cfg.DefaultAllowMode = false
	st, err := s.Configure(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, scope.ReasonBlockedByDefault, st.Reason)
	assert.Equal(t, original, s.Document().String())
}

func TestNamesChangedRerunsWithNewRules(t *testing.T) {
	s, sched := newSession(t, page)

	_, err := s.Configure(context.Background(), enabled("Ann", "Emma"))
	require.NoError(t, err)
	_, err = s.Configure(context.Background(), enabled("Ann", "Jo"))
	require.NoError(t, err)

	doc := s.Document()
	assert.Equal(t, "Jo's page", doc.Title())
	out := doc.String()
	assert.NotContains(t, out, "Emma")
	assert.Equal(t, 1, strings.Count(out, `<meta name="deadname-original-title" content="Ann&#39;s page"`))
	assert.Zero(t, sched.Pending(), "the old watcher left nothing queued")

	var p *html.Node
	s.Mutate(func(doc *dom.Document) {
		p = dom.NewElement("p")
		p.AppendChild(dom.NewText("Ann"))
		doc.AppendChild(feedDiv(doc), p)
	})
	sched.Flush()
	assert.Equal(t, "Jo", dom.TextContent(p))
}

func TestThemeChangeOnlyRestyles(t *testing.T) {
	s, _ := newSession(t, page)

	_, err := s.Configure(context.Background(), enabled("Ann", "Emma"))
	require.NoError(t, err)
	before := s.Metrics()

	cfg := enabled("Ann", "Emma")
	cfg.Theme = style.ThemeHighContrast
	_, err = s.Configure(context.Background(), cfg)
	require.NoError(t, err)

	out := s.Document().String()
	assert.Equal(t, 1, strings.Count(out, "<style deadname"))
	assert.Contains(t, out, "background: yellow")
	assert.Equal(t, before, s.Metrics(), "no new pass ran")

	cfg.Highlight = false
	_, err = s.Configure(context.Background(), cfg)
	require.NoError(t, err)
	assert.Contains(t, s.Document().String(), "background: none")
}

func TestBlockUntilDoneUnblocksAfterPass(t *testing.T) {
	s, _ := newSession(t, page)
	cfg := enabled("Ann", "Emma")
	cfg.BlockUntilDone = true

	_, err := s.Configure(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, style.Blocked(s.Document()))
	assert.NotContains(t, s.Document().String(), style.NotReadyClass)
}

func TestConfigureWaitsForReadiness(t *testing.T) {
	root, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)
	doc := dom.NewDocument(root, dom.Loading)
	s := New(doc, "example.com", WithScheduler(observer.NewManualScheduler()))
	defer s.Close()

	done := make(chan error, 1)
	go func() {
		_, err := s.Configure(context.Background(), enabled("Ann", "Emma"))
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("Configure returned before the document was ready")
	case <-time.After(20 * time.Millisecond):
	}

	doc.SetReadyState(dom.Interactive)
	require.NoError(t, <-done)
	assert.Equal(t, "Emma's page", doc.Title())
}

func TestConfigureHonoursCancellation(t *testing.T) {
	root, err := html.Parse(strings.NewReader(page))
	require.NoError(t, err)
	doc := dom.NewDocument(root, dom.Loading)
	s := New(doc, "example.com", WithScheduler(observer.NewManualScheduler()))
	defer s.Close()

	cfg := enabled("Ann", "Emma")
	cfg.BlockUntilDone = true
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = s.Configure(ctx, cfg)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, style.Blocked(doc))
	assert.Equal(t, "Ann's page", doc.Title())
}

func TestNoContentRoot(t *testing.T) {
	doc := dom.NewDocument(&html.Node{Type: html.DocumentNode}, dom.Complete)
	s := New(doc, "example.com", WithScheduler(observer.NewManualScheduler()))
	defer s.Close()

	st, err := s.Configure(context.Background(), enabled("Ann", "Emma"))
	require.NoError(t, err)
	assert.False(t, st.IsParsing)
	assert.Equal(t, scope.ReasonNoContentRoot, st.Reason)
}

func TestConfigureErrors(t *testing.T) {
	s, _ := newSession(t, page)
	_, err := s.Configure(context.Background(), enabled(" ", "Emma"))
	assert.Error(t, err)
	assert.False(t, s.Enabled())

	bad := New(s.Document(), "", WithScheduler(observer.NewManualScheduler()))
	defer bad.Close()
	_, err = bad.Configure(context.Background(), enabled("Ann", "Emma"))
	assert.Error(t, err)
}

func TestDefaultSchedulerRunsFrames(t *testing.T) {
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	s := New(doc, "example.com")
	defer s.Close()

	_, err = s.Configure(context.Background(), enabled("Ann", "Emma"))
	require.NoError(t, err)

	var p *html.Node
	s.Mutate(func(doc *dom.Document) {
		p = dom.NewElement("p")
		p.AppendChild(dom.NewText("Ann"))
		doc.AppendChild(feedDiv(doc), p)
	})

	assert.Eventually(t, func() bool {
		var text string
		s.Mutate(func(*dom.Document) { text = dom.TextContent(p) })
		return text == "Emma"
	}, time.Second, 5*time.Millisecond)
}
