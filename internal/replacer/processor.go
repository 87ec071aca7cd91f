// Package replacer rewrites dead names in a live document and reverts those
// rewrites.
//
// Replaced text is wrapped in <mark deadname data-original="..."> markers and
// rewritten attributes keep their previous value in data-deadname-<attr>.
// Because the revert data lives in the document, RevertAll needs neither a
// Processor nor the rules that produced the markers.
package replacer

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/conneroisu/namesake/internal/dom"
	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/logging"
	"github.com/conneroisu/namesake/internal/pattern"
)

// Unbounded is the depth used for whole-document passes.
const Unbounded = math.MaxInt

// Metrics accumulates counters across passes.
type Metrics struct {
	NodesProcessed    int
	ReplacementsMade  int
	AttributesUpdated int
	ProcessingTime    time.Duration
}

// Processor applies a RuleSet to a document. A Processor belongs to one
// session; its registry of scanned text nodes is only valid for one RuleSet,
// so call Reset when the rules change.
type Processor struct {
	logger logging.Logger

	mu        sync.Mutex
	metrics   Metrics
	processed *registry
}

// NewProcessor creates a Processor.
func NewProcessor(logger logging.Logger) *Processor {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return &Processor{
		logger:    logger.WithComponent("replacer"),
		processed: newRegistry(),
	}
}

// Metrics returns a copy of the counters.
func (p *Processor) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

// ResetMetrics zeroes the counters.
func (p *Processor) ResetMetrics() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = Metrics{}
}

// Reset forgets every scanned text node.
func (p *Processor) Reset() {
	p.processed.reset()
}

// ProcessDocument rewrites the title and the body of doc.
func (p *Processor) ProcessDocument(doc *dom.Document, rules RuleSet) error {
	ctx := context.Background()
	op := logging.StartOperation(p.logger, "process_document")
	start := time.Now()

	body := doc.Body()
	if body == nil {
		p.logger.Debug(ctx, "document has no body, nothing to process")
		return errors.ErrNoContentRoot
	}

	p.processTitle(doc, rules)

	if err := p.ProcessSubtree(doc, body, rules, Unbounded); err != nil {
		op.EndWithError(ctx, err)
		return err
	}

	p.mu.Lock()
	p.metrics.ProcessingTime += time.Since(start)
	m := p.metrics
	p.mu.Unlock()

	op.End(ctx,
		"nodes_processed", m.NodesProcessed,
		"replacements_made", m.ReplacementsMade,
		"attributes_updated", m.AttributesUpdated,
	)
	return nil
}

func (p *Processor) processTitle(doc *dom.Document, rules RuleSet) {
	title := doc.Title()
	if title == "" {
		return
	}
	meta := originalTitleMeta(doc)
	if meta != nil {
		if last, _ := dom.Attr(meta, RewrittenTitleAttr); last == title {
			return
		}
	}
	rewritten, changed := rules.Apply(title)
	if changed == 0 {
		return
	}

	if meta == nil {
		meta = recordOriginalTitle(doc, title)
	}
	if meta != nil {
		doc.SetAttr(meta, RewrittenTitleAttr, rewritten)
	}
	doc.SetTitle(rewritten)

	p.mu.Lock()
	p.metrics.ReplacementsMade += changed
	p.mu.Unlock()
}

// recordOriginalTitle stores title in a meta element. The first recording
// survives later passes; only the rewritten value is updated.
func recordOriginalTitle(doc *dom.Document, title string) *html.Node {
	head := doc.Head()
	if head == nil {
		return nil
	}
	meta := dom.NewElement("meta",
		html.Attribute{Key: "name", Val: OriginalTitleKey},
		html.Attribute{Key: "content", Val: title},
	)
	doc.AppendChild(head, meta)
	return meta
}

func originalTitleMeta(doc *dom.Document) *html.Node {
	head := doc.Head()
	if head == nil {
		return nil
	}
	metas := dom.FindAll(head, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "meta" {
			return false
		}
		name, _ := dom.Attr(n, "name")
		return name == OriginalTitleKey
	})
	if len(metas) == 0 {
		return nil
	}
	return metas[0]
}

// ProcessSubtree rewrites root and its descendants. At most maxDepth
// elements are entered; text directly under an entered element is still
// processed. A depth of zero does nothing and a negative depth is an error.
func (p *Processor) ProcessSubtree(doc *dom.Document, root *html.Node, rules RuleSet, maxDepth int) error {
	if maxDepth < 0 {
		return errors.ErrNegativeDepth
	}
	if maxDepth == 0 || root == nil || len(rules) == 0 {
		return nil
	}
	if insideExcluded(root) {
		p.logger.Debug(context.Background(), "subtree root is excluded", "tag", root.Data)
		return nil
	}

	var nodes, replacements, attributes int
	entered := 0
	stack := []*html.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n.Type {
		case html.TextNode:
			replacements += p.processText(doc, n, rules)
		case html.ElementNode:
			if skipElement(n) || entered >= maxDepth {
				continue
			}
			entered++
			nodes++
			attributes += processAttributes(doc, n, rules)
			for c := n.LastChild; c != nil; c = c.PrevSibling {
				stack = append(stack, c)
			}
		case html.DocumentNode:
			for c := n.LastChild; c != nil; c = c.PrevSibling {
				stack = append(stack, c)
			}
		}
	}

	p.mu.Lock()
	p.metrics.NodesProcessed += nodes
	p.metrics.ReplacementsMade += replacements
	p.metrics.AttributesUpdated += attributes
	p.mu.Unlock()
	return nil
}

// processAttributes rewrites the accessible attributes of el. The value that
// gets replaced is cached first; values without dead names are left alone.
// A value equal to its cached original rewritten again is the result of an
// earlier pass and is skipped, so chosen names containing their dead name
// do not grow.
func processAttributes(doc *dom.Document, el *html.Node, rules RuleSet) int {
	updated := 0
	for _, attr := range AccessibleAttributes {
		value, ok := dom.Attr(el, attr)
		if !ok || value == "" {
			continue
		}
		if cached, ok := dom.Attr(el, AttrCachePrefix+attr); ok {
			if again, _ := rules.Apply(cached); again == value {
				continue
			}
		}
		if !rules.Matches(value) {
			continue
		}
		rewritten, changed := rules.Apply(value)
		if changed == 0 || rewritten == value {
			continue
		}
		doc.SetAttr(el, AttrCachePrefix+attr, value)
		doc.SetAttr(el, attr, rewritten)
		updated++
	}
	return updated
}

type textMatch struct {
	pattern.Match
	replacement string
}

// processText splits a text node around every match and returns the number
// of markers it produced.
func (p *Processor) processText(doc *dom.Document, n *html.Node, rules RuleSet) int {
	if n.Parent == nil || n.Data == "" || p.processed.seen(n) {
		return 0
	}

	matches := findMatches(n.Data, rules)
	if len(matches) == 0 {
		p.processed.add(n)
		return 0
	}

	text := n.Data
	parts := make([]*html.Node, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		if m.Index > last {
			parts = append(parts, dom.NewText(text[last:m.Index]))
		}
		mark := dom.NewElement("mark",
			html.Attribute{Key: MarkerAttr},
			html.Attribute{Key: OriginalAttr, Val: m.Text},
		)
		mark.AppendChild(dom.NewText(pattern.CaseMatch(m.Text, m.replacement)))
		parts = append(parts, mark)
		last = m.End()
	}
	if last < len(text) {
		parts = append(parts, dom.NewText(text[last:]))
	}

	if !doc.ReplaceChild(n, parts...) {
		p.logger.Debug(context.Background(), "text node lost its parent, skipping")
		return 0
	}
	for _, part := range parts {
		if part.Type == html.TextNode {
			p.processed.add(part)
		}
	}
	return len(matches)
}

// findMatches collects the matches of every rule ordered by position, the
// longest first at a shared position. A match overlapping an earlier one is
// dropped.
func findMatches(text string, rules RuleSet) []textMatch {
	var all []textMatch
	for _, r := range rules {
		for _, m := range r.Matcher.FindAll(text) {
			all = append(all, textMatch{Match: m, replacement: r.Replacement})
		}
	}
	if len(all) == 0 {
		return nil
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Index != all[j].Index {
			return all[i].Index < all[j].Index
		}
		return len(all[i].Text) > len(all[j].Text)
	})

	kept := all[:0]
	end := 0
	for _, m := range all {
		if m.Index < end {
			continue
		}
		kept = append(kept, m)
		end = m.End()
	}
	return kept
}
