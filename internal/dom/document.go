// Package dom wraps a golang.org/x/net/html tree as a live document.
//
// Every structural, text or attribute change made through Document is
// reported to the observers whose root contains the changed node, much like
// a browser MutationObserver watching a subtree.
package dom

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/namesake/internal/errors"
)

// ReadyState mirrors the loading states of a browser document.
type ReadyState int

const (
	Loading ReadyState = iota
	Interactive
	Complete
)

// String returns the browser spelling of the state.
func (s ReadyState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Interactive:
		return "interactive"
	default:
		return "complete"
	}
}

// Document is a mutable HTML tree that reports its own mutations.
type Document struct {
	root *html.Node

	mu        sync.Mutex
	observers []*subscription
	nextID    int
	state     ReadyState
	readyCh   chan struct{}
}

type subscription struct {
	id   int
	root *html.Node
	fn   func([]Mutation)
}

// Parse reads a complete HTML document. The result is already Complete.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.NewParseError(errors.ErrCodeParseFailed, "parsing html document", err)
	}
	return NewDocument(root, Complete), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// NewDocument wraps an existing tree.
func NewDocument(root *html.Node, state ReadyState) *Document {
	d := &Document{
		root:    root,
		state:   state,
		readyCh: make(chan struct{}),
	}
	if state >= Interactive {
		close(d.readyCh)
	}
	return d
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Body returns the body element, or nil when the document has none.
func (d *Document) Body() *html.Node {
	return FindElement(d.root, atom.Body)
}

// Head returns the head element, or nil when the document has none.
func (d *Document) Head() *html.Node {
	return FindElement(d.root, atom.Head)
}

// TitleElement returns the first title element inside head.
func (d *Document) TitleElement() *html.Node {
	head := d.Head()
	if head == nil {
		return nil
	}
	return FindElement(head, atom.Title)
}

// Title returns the document title, or "" when there is none.
func (d *Document) Title() string {
	el := d.TitleElement()
	if el == nil {
		return ""
	}
	return TextContent(el)
}

// SetTitle replaces the title text. It does nothing when the document has no
// title element.
func (d *Document) SetTitle(title string) {
	el := d.TitleElement()
	if el == nil {
		return
	}
	if el.FirstChild != nil && el.FirstChild.Type == html.TextNode && el.FirstChild == el.LastChild {
		d.SetText(el.FirstChild, title)
		return
	}
	removed := children(el)
	for _, c := range removed {
		el.RemoveChild(c)
	}
	text := &html.Node{Type: html.TextNode, Data: title}
	el.AppendChild(text)
	d.notify(Mutation{Kind: ChildList, Target: el, Added: []*html.Node{text}, Removed: removed})
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.root); err != nil {
		return errors.NewInternalError(errors.ErrCodeRenderFailed, "rendering document", err)
	}
	return nil
}

// String renders the document, returning "" on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// ReadyState returns the current loading state.
func (d *Document) ReadyState() ReadyState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SetReadyState advances the loading state. States never move backwards.
func (d *Document) SetReadyState(state ReadyState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if state <= d.state {
		return
	}
	wasReady := d.state >= Interactive
	d.state = state
	if !wasReady && state >= Interactive {
		close(d.readyCh)
	}
}

// WaitReady blocks until the document is interactive or complete.
func (d *Document) WaitReady(ctx context.Context) error {
	d.mu.Lock()
	ch := d.readyCh
	d.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Observe registers fn for every mutation under root. The returned function
// cancels the registration and may be called more than once.
func (d *Document) Observe(root *html.Node, fn func([]Mutation)) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.observers = append(d.observers, &subscription{id: id, root: root, fn: fn})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, s := range d.observers {
			if s.id == id {
				d.observers = append(d.observers[:i:i], d.observers[i+1:]...)
				return
			}
		}
	}
}

func (d *Document) notify(records ...Mutation) {
	d.mu.Lock()
	subs := make([]*subscription, len(d.observers))
	copy(subs, d.observers)
	d.mu.Unlock()

	for _, s := range subs {
		var batch []Mutation
		for _, rec := range records {
			if Contains(s.root, rec.Target) {
				batch = append(batch, rec)
			}
		}
		if len(batch) > 0 {
			s.fn(batch)
		}
	}
}

func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}
