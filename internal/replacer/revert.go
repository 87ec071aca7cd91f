package replacer

import (
	"golang.org/x/net/html"

	"github.com/conneroisu/namesake/internal/dom"
)

// RevertAll undoes every rewrite recorded in doc: the title, cached
// attributes and markers. It only reads data stored in the document, so it
// works after the rules changed and is a no-op on a clean document. It
// returns the number of restored items.
func RevertAll(doc *dom.Document) int {
	restored := 0

	if meta := originalTitleMeta(doc); meta != nil {
		title, _ := dom.Attr(meta, "content")
		doc.SetTitle(title)
		doc.RemoveChild(meta)
		restored++
	}

	for _, el := range dom.FindAll(doc.Root(), hasAttrCache) {
		for _, attr := range AccessibleAttributes {
			original, ok := dom.Attr(el, AttrCachePrefix+attr)
			if !ok {
				continue
			}
			doc.SetAttr(el, attr, original)
			doc.RemoveAttr(el, AttrCachePrefix+attr)
			restored++
		}
	}

	parents := make(map[*html.Node]struct{})
	var order []*html.Node
	for _, mark := range dom.FindAll(doc.Root(), IsMarker) {
		parent := mark.Parent
		if parent == nil {
			continue
		}
		original, ok := dom.Attr(mark, OriginalAttr)
		if !ok {
			original = dom.TextContent(mark)
		}
		doc.ReplaceChild(mark, dom.NewText(original))
		restored++
		if _, seen := parents[parent]; !seen {
			parents[parent] = struct{}{}
			order = append(order, parent)
		}
	}
	for _, parent := range order {
		mergeText(doc, parent)
	}

	return restored
}

func hasAttrCache(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, attr := range AccessibleAttributes {
		if dom.HasAttr(n, AttrCachePrefix+attr) {
			return true
		}
	}
	return false
}

// mergeText joins runs of adjacent text children of parent into one node.
func mergeText(doc *dom.Document, parent *html.Node) {
	c := parent.FirstChild
	for c != nil {
		if c.Type != html.TextNode {
			c = c.NextSibling
			continue
		}
		for next := c.NextSibling; next != nil && next.Type == html.TextNode; next = c.NextSibling {
			doc.SetText(c, c.Data+next.Data)
			doc.RemoveChild(next)
		}
		c = c.NextSibling
	}
}
