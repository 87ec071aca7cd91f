package feed

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/conneroisu/namesake/internal/dom"
	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/observer"
	"github.com/conneroisu/namesake/internal/pattern"
	"github.com/conneroisu/namesake/internal/replacer"
)

const page = `<html><head></head><body><div><p>one</p><p>two <b>Ann</b> three</p></div><div id="feed"></div></body></html>`

func mustDoc(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	return doc
}

func TestDecode(t *testing.T) {
	in := `{"op":"insert","xpath":"/html/body/div[2]","html":"<p>Ann</p>"}

{"op":"frame"}
{"op":"attr","xpath":"/html/body/div[2]","name":"title","value":"Ann"}
`
	records, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Record{Op: OpInsert, XPath: "/html/body/div[2]", HTML: "<p>Ann</p>"}, records[0])
	assert.Equal(t, OpFrame, records[1].Op)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, records))
	again, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, again)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", "{op: insert}"},
		{"unknown op", `{"op":"explode","xpath":"/html"}`},
		{"relative xpath", `{"op":"remove","xpath":"html/body"}`},
		{"attr without name", `{"op":"attr","xpath":"/html/body"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(`{"op":"frame"}` + "\n" + tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

func TestResolve(t *testing.T) {
	doc := mustDoc(t)
	tests := []struct {
		xpath string
		want  string
	}{
		{"/html/body/div/p", "one"},
		{"/html/body/div[1]/p[2]", "two Ann three"},
		{"/html/body/div/p[2]/text()", "two "},
		{"/html/body/div/p[2]/text()[2]", " three"},
		{"/HTML/Body/div/p[2]/b", "Ann"},
	}
	for _, tt := range tests {
		t.Run(tt.xpath, func(t *testing.T) {
			n, err := Resolve(doc.Root(), tt.xpath)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dom.TextContent(n))
		})
	}

	for _, bad := range []string{"/html/body/div[3]", "/html/body/p", "body", "/html/body/div[0]", "/html/body/div[x", "/"} {
		_, err := Resolve(doc.Root(), bad)
		assert.Error(t, err, bad)
	}

	_, err := Resolve(doc.Root(), "/html/body/section")
	var ne *errors.NamesakeError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, errors.ErrCodeNodeNotFound, ne.Code)
}

func TestApply(t *testing.T) {
	doc := mustDoc(t)

	require.NoError(t, Apply(doc, Record{Op: OpInsert, XPath: "/html/body/div[2]", HTML: "<p>new</p><span>x</span>"}))
	require.NoError(t, Apply(doc, Record{Op: OpText, XPath: "/html/body/div/p/text()", Value: "uno"}))
	require.NoError(t, Apply(doc, Record{Op: OpAttr, XPath: "/html/body/div", Name: "class", Value: "c"}))
	require.NoError(t, Apply(doc, Record{Op: OpAttrDel, XPath: "/html/body/div[2]", Name: "id"}))
	require.NoError(t, Apply(doc, Record{Op: OpRemove, XPath: "/html/body/div/p[2]/b"}))
	require.NoError(t, Apply(doc, Record{Op: OpFrame}))

	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, doc.Body()))
	assert.Equal(t,
		`<body><div class="c"><p>uno</p><p>two  three</p></div><div><p>new</p><span>x</span></div></body>`,
		buf.String())

	assert.Error(t, Apply(doc, Record{Op: OpText, XPath: "/html/body/div"}), "text needs a text node")
	assert.Error(t, Apply(doc, Record{Op: OpInsert, XPath: "/html/body/div/p/text()", HTML: "<b/>"}))
	assert.Error(t, Apply(doc, Record{Op: OpRemove, XPath: "/html/body/nav"}))
}

func TestReplayThroughWatcher(t *testing.T) {
	doc := mustDoc(t)
	rules, err := replacer.NewRuleSet(pattern.NamePair{Dead: "Ann", Chosen: "Emma"})
	require.NoError(t, err)

	sched := observer.NewManualScheduler()
	w := observer.New(replacer.NewProcessor(nil), nil, sched, nil)
	require.NoError(t, w.Setup(doc, rules))

	records := []Record{
		{Op: OpInsert, XPath: "/html/body/div[2]", HTML: "<p>Ann one</p>"},
		{Op: OpInsert, XPath: "/html/body/div[2]", HTML: "<p>Ann two</p>"},
		{Op: OpFrame},
		{Op: OpRemove, XPath: "/html/body/div[9]"},
		{Op: OpText, XPath: "/html/body/div/p/text()", Value: "Ann again"},
	}

	mutate := func(fn func(*dom.Document)) { fn(doc) }
	stats, err := Replay(context.Background(), records, mutate, sched.Flush, nil)
	require.NoError(t, err)

	assert.Equal(t, Stats{Applied: 3, Failed: 1, Frames: 2}, stats)
	assert.Equal(t, 2, w.Passes())
	text := dom.TextContent(doc.Body())
	assert.Contains(t, text, "Emma one")
	assert.Contains(t, text, "Emma two")
	assert.Contains(t, text, "Emma again")
	assert.NotContains(t, text, "Ann one")
	assert.Equal(t, 3, strings.Count(doc.String(), `data-original="Ann"`))
}

func TestReplayHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	flushes := 0
	stats, err := Replay(ctx, []Record{{Op: OpFrame}}, func(func(*dom.Document)) {}, func() int { flushes++; return 0 }, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Frames)
	assert.Zero(t, flushes)
}
