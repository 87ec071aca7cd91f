package replacer

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/namesake/internal/dom"
)

// Marker attributes. A marker is <mark deadname data-original="...">.
const (
	MarkerAttr       = "deadname"
	OriginalAttr     = "data-original"
	AttrCachePrefix  = "data-deadname-"
	OriginalTitleKey = "deadname-original-title"

	// RewrittenTitleAttr on the original-title meta holds the title the
	// last pass produced.
	RewrittenTitleAttr = "data-rewritten"
)

// AccessibleAttributes are the human-facing attributes that get rewritten.
var AccessibleAttributes = []string{
	"alt",
	"aria-label",
	"aria-description",
	"title",
	"placeholder",
}

var nonContentElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

var formElements = map[atom.Atom]bool{
	atom.Datalist: true,
	atom.Fieldset: true,
	atom.Form:     true,
	atom.Input:    true,
	atom.Optgroup: true,
	atom.Option:   true,
	atom.Select:   true,
	atom.Textarea: true,
}

// editableAttributes lists attribute values that mark content the user can
// edit or submit. Values are compared case-insensitively.
var editableAttributes = map[string][]string{
	"contenteditable": {"true"},
	"role": {
		"checkbox",
		"combobox",
		"input",
		"option",
		"searchbox",
		"select",
		"slider",
		"spinbutton",
		"switch",
		"textbox",
	},
	"spellcheck":        {"true"},
	"aria-autocomplete": {"true"},
	"aria-multiline":    {"true"},
	"aria-readonly":     {"false"},
	"aria-disabled":     {"false"},
	"data-editable":     {"true"},
}

// IsMarker reports whether n is a replacement marker.
func IsMarker(n *html.Node) bool {
	return dom.IsElement(n, atom.Mark) && dom.HasAttr(n, MarkerAttr)
}

func isEditable(n *html.Node) bool {
	for key, values := range editableAttributes {
		v, ok := dom.Attr(n, key)
		if !ok {
			continue
		}
		v = strings.ToLower(strings.TrimSpace(v))
		for _, want := range values {
			if v == want {
				return true
			}
		}
	}
	return false
}

// skipElement reports whether n and everything below it must be left alone.
func skipElement(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	return nonContentElements[n.DataAtom] ||
		formElements[n.DataAtom] ||
		IsMarker(n) ||
		isEditable(n)
}

// insideExcluded reports whether n or one of its ancestors is excluded.
func insideExcluded(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if skipElement(n) {
			return true
		}
	}
	return false
}
