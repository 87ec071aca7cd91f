package dom

import (
	"golang.org/x/net/html"
)

// MutationKind classifies a Mutation the way MutationRecord.type does.
type MutationKind int

const (
	ChildList MutationKind = iota
	CharacterData
	Attributes
)

// String returns the MutationRecord spelling of the kind.
func (k MutationKind) String() string {
	switch k {
	case ChildList:
		return "childList"
	case CharacterData:
		return "characterData"
	default:
		return "attributes"
	}
}

// Mutation describes one change. For ChildList, Target is the parent whose
// children changed; for CharacterData, the text node; for Attributes, the
// element.
type Mutation struct {
	Kind     MutationKind
	Target   *html.Node
	Added    []*html.Node
	Removed  []*html.Node
	Attr     string
	OldValue string
}

// AppendChild appends child to parent, detaching it from its previous parent
// first.
func (d *Document) AppendChild(parent, child *html.Node) {
	records := d.detach(child)
	parent.AppendChild(child)
	records = append(records, Mutation{Kind: ChildList, Target: parent, Added: []*html.Node{child}})
	d.notify(records...)
}

// InsertBefore inserts child before ref under parent. A nil ref appends.
func (d *Document) InsertBefore(parent, child, ref *html.Node) {
	records := d.detach(child)
	parent.InsertBefore(child, ref)
	records = append(records, Mutation{Kind: ChildList, Target: parent, Added: []*html.Node{child}})
	d.notify(records...)
}

// RemoveChild detaches child from its parent. A node without a parent is
// left alone.
func (d *Document) RemoveChild(child *html.Node) {
	d.notify(d.detach(child)...)
}

// ReplaceChild swaps old for replacements in a single ChildList record. It
// reports false when old has no parent.
func (d *Document) ReplaceChild(old *html.Node, replacements ...*html.Node) bool {
	parent := old.Parent
	if parent == nil {
		return false
	}
	for _, r := range replacements {
		if r.Parent != nil {
			r.Parent.RemoveChild(r)
		}
		parent.InsertBefore(r, old)
	}
	parent.RemoveChild(old)
	d.notify(Mutation{Kind: ChildList, Target: parent, Added: replacements, Removed: []*html.Node{old}})
	return true
}

// SetText changes the data of a text node.
func (d *Document) SetText(n *html.Node, data string) {
	if n.Data == data {
		return
	}
	old := n.Data
	n.Data = data
	d.notify(Mutation{Kind: CharacterData, Target: n, OldValue: old})
}

// SetAttr sets an attribute on an element, adding it when missing.
func (d *Document) SetAttr(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			old := n.Attr[i].Val
			if old == value {
				return
			}
			n.Attr[i].Val = value
			d.notify(Mutation{Kind: Attributes, Target: n, Attr: key, OldValue: old})
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
	d.notify(Mutation{Kind: Attributes, Target: n, Attr: key})
}

// RemoveAttr deletes an attribute from an element.
func (d *Document) RemoveAttr(n *html.Node, key string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			old := n.Attr[i].Val
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			d.notify(Mutation{Kind: Attributes, Target: n, Attr: key, OldValue: old})
			return
		}
	}
}

func (d *Document) detach(child *html.Node) []Mutation {
	parent := child.Parent
	if parent == nil {
		return nil
	}
	parent.RemoveChild(child)
	return []Mutation{{Kind: ChildList, Target: parent, Removed: []*html.Node{child}}}
}
