package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/conneroisu/namesake/internal/dom"
	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/logging"
)

// Resolve finds the node at xpath below root, which is normally the document
// node. Steps are element names or text(), each with an optional 1-based
// position among the siblings it names.
func Resolve(root *html.Node, xpath string) (*html.Node, error) {
	if !strings.HasPrefix(xpath, "/") {
		return nil, errors.ErrNodeNotFound(xpath)
	}
	cur := root
	for _, step := range strings.Split(strings.Trim(xpath, "/"), "/") {
		name, pos, err := parseStep(step)
		if err != nil {
			return nil, errors.WrapParse(err, errors.ErrCodeParseFailed, "invalid xpath "+xpath)
		}
		cur = nthChild(cur, name, pos)
		if cur == nil {
			return nil, errors.ErrNodeNotFound(xpath)
		}
	}
	return cur, nil
}

func parseStep(step string) (string, int, error) {
	if step == "" {
		return "", 0, fmt.Errorf("empty step")
	}
	name, rest, found := strings.Cut(step, "[")
	if !found {
		return strings.ToLower(name), 1, nil
	}
	if !strings.HasSuffix(rest, "]") {
		return "", 0, fmt.Errorf("unterminated position in %q", step)
	}
	pos, err := strconv.Atoi(strings.TrimSuffix(rest, "]"))
	if err != nil || pos < 1 {
		return "", 0, fmt.Errorf("invalid position in %q", step)
	}
	return strings.ToLower(name), pos, nil
}

func nthChild(parent *html.Node, name string, pos int) *html.Node {
	n := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		var match bool
		if name == "text()" {
			match = c.Type == html.TextNode
		} else {
			match = c.Type == html.ElementNode && c.Data == name
		}
		if match {
			n++
			if n == pos {
				return c
			}
		}
	}
	return nil
}

// Apply performs rec on doc. Frame records are a no-op here; the replay
// loop turns them into scheduler flushes.
func Apply(doc *dom.Document, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.Op == OpFrame {
		return nil
	}

	target, err := Resolve(doc.Root(), rec.XPath)
	if err != nil {
		return err
	}

	switch rec.Op {
	case OpInsert:
		if target.Type != html.ElementNode {
			return wrongTarget(rec, "an element")
		}
		nodes, err := dom.ParseFragment(target, rec.HTML)
		if err != nil {
			return errors.WrapParse(err, errors.ErrCodeParseFailed, "invalid fragment for "+rec.XPath)
		}
		for _, n := range nodes {
			doc.AppendChild(target, n)
		}
	case OpText:
		if target.Type != html.TextNode {
			return wrongTarget(rec, "a text node")
		}
		doc.SetText(target, rec.Value)
	case OpAttr:
		if target.Type != html.ElementNode {
			return wrongTarget(rec, "an element")
		}
		doc.SetAttr(target, rec.Name, rec.Value)
	case OpAttrDel:
		if target.Type != html.ElementNode {
			return wrongTarget(rec, "an element")
		}
		doc.RemoveAttr(target, rec.Name)
	case OpRemove:
		if target.Parent == nil || target.Type == html.DocumentNode {
			return wrongTarget(rec, "an attached node")
		}
		doc.RemoveChild(target)
	}
	return nil
}

func wrongTarget(rec Record, want string) error {
	return errors.NewDocumentError(errors.ErrCodeNodeNotFound,
		fmt.Sprintf("%s target %s is not %s", rec.Op, rec.XPath, want))
}

// Stats counts what a replay did.
type Stats struct {
	Applied int
	Failed  int
	Frames  int
}

// Replay applies records in order. Every mutation runs through mutate, which
// must hold the document lock; frame records call flush. A final flush runs
// after the last record. Records that fail are logged and skipped.
func Replay(
	ctx context.Context,
	records []Record,
	mutate func(fn func(*dom.Document)),
	flush func() int,
	logger logging.Logger,
) (Stats, error) {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	logger = logger.WithComponent("feed")

	var stats Stats
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if rec.Op == OpFrame {
			flush()
			stats.Frames++
			continue
		}

		var err error
		mutate(func(d *dom.Document) { err = Apply(d, rec) })
		if err != nil {
			stats.Failed++
			logger.Warn(ctx, err, "skipping record", "index", i, "op", string(rec.Op), "xpath", rec.XPath)
			continue
		}
		stats.Applied++
	}
	flush()
	stats.Frames++

	logger.Debug(ctx, "feed replayed",
		"applied", stats.Applied,
		"failed", stats.Failed,
		"frames", stats.Frames,
	)
	return stats, nil
}
