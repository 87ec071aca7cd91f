// Package style injects the highlight stylesheet for replacement markers and
// the stylesheet that hides a page until its first pass is done.
package style

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/namesake/internal/dom"
)

// Theme selects the marker highlight.
type Theme string

const (
	ThemeTrans        Theme = "trans"
	ThemeNonBinary    Theme = "non-binary"
	ThemeHighContrast Theme = "high-contrast"
)

// Themes lists the known themes.
var Themes = []Theme{ThemeTrans, ThemeNonBinary, ThemeHighContrast}

var backgrounds = map[Theme]string{
	ThemeNonBinary:    "linear-gradient(90deg, rgb(255, 244, 48) 0%, white 25%, rgb(156, 89, 209) 50%, white 75%, rgb(255, 244, 48) 100%)",
	ThemeTrans:        "linear-gradient(90deg, rgba(85,205,252) 0%, rgb(247,168,184) 25%, white 50%, rgb(247,168,184) 75%, rgb(85,205,252) 100%)",
	ThemeHighContrast: "yellow",
}

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	_, ok := backgrounds[t]
	return ok
}

const (
	// StyleAttr marks the highlight stylesheet.
	StyleAttr = "deadname"
	// NotReadyClass hides html and body while blocked.
	NotReadyClass = "deadname-remover-not-ready"
	// BlockerID is the id of the blocking stylesheet.
	BlockerID = "deadname-remover-blocker"
)

// Rule returns the marker rule for theme. Without highlighting markers look
// like the surrounding text.
func Rule(theme Theme, highlight bool) string {
	background, color := "none", "inherit"
	if highlight {
		bg, ok := backgrounds[theme]
		if !ok {
			bg = backgrounds[ThemeTrans]
		}
		background, color = bg, "black"
	}
	return fmt.Sprintf("mark[deadname] { background: %s; color: %s; }", background, color)
}

// Apply replaces the highlight stylesheet in head. It reports false when the
// document has no head.
func Apply(doc *dom.Document, theme Theme, highlight bool) bool {
	head := doc.Head()
	if head == nil {
		return false
	}
	Remove(doc)

	el := dom.NewElement("style", html.Attribute{Key: StyleAttr})
	el.AppendChild(dom.NewText(Rule(theme, highlight)))
	doc.AppendChild(head, el)
	return true
}

// Remove deletes every highlight stylesheet.
func Remove(doc *dom.Document) {
	for _, el := range dom.FindAll(doc.Root(), isHighlightStyle) {
		doc.RemoveChild(el)
	}
}

func isHighlightStyle(n *html.Node) bool {
	return dom.IsElement(n, atom.Style) && dom.HasAttr(n, StyleAttr)
}

// Block hides the page until Unblock is called. Blocking twice is a no-op.
func Block(doc *dom.Document) {
	if blocker(doc) != nil {
		return
	}
	for _, el := range []*html.Node{dom.FindElement(doc.Root(), atom.Html), doc.Body()} {
		if el != nil {
			addClass(doc, el, NotReadyClass)
		}
	}
	head := doc.Head()
	if head == nil {
		return
	}
	el := dom.NewElement("style", html.Attribute{Key: "id", Val: BlockerID})
	el.AppendChild(dom.NewText(
		"html." + NotReadyClass + ", body." + NotReadyClass + " { visibility: hidden !important; }"))
	doc.AppendChild(head, el)
}

// Unblock reverses Block.
func Unblock(doc *dom.Document) {
	for _, el := range []*html.Node{dom.FindElement(doc.Root(), atom.Html), doc.Body()} {
		if el != nil {
			removeClass(doc, el, NotReadyClass)
		}
	}
	if el := blocker(doc); el != nil {
		doc.RemoveChild(el)
	}
}

// Blocked reports whether the blocking stylesheet is present.
func Blocked(doc *dom.Document) bool {
	return blocker(doc) != nil
}

func blocker(doc *dom.Document) *html.Node {
	found := dom.FindAll(doc.Root(), func(n *html.Node) bool {
		id, _ := dom.Attr(n, "id")
		return dom.IsElement(n, atom.Style) && id == BlockerID
	})
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

func addClass(doc *dom.Document, el *html.Node, class string) {
	current, _ := dom.Attr(el, "class")
	classes := strings.Fields(current)
	for _, c := range classes {
		if c == class {
			return
		}
	}
	doc.SetAttr(el, "class", strings.Join(append(classes, class), " "))
}

func removeClass(doc *dom.Document, el *html.Node, class string) {
	current, ok := dom.Attr(el, "class")
	if !ok {
		return
	}
	var kept []string
	for _, c := range strings.Fields(current) {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		doc.RemoveAttr(el, "class")
		return
	}
	doc.SetAttr(el, "class", strings.Join(kept, " "))
}
