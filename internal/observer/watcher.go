// Package observer re-applies rules to the parts of a document that change.
//
// Mutations are queued as they arrive and drained once per frame, so a
// burst of changes inside one frame costs a single processing pass.
package observer

import (
	"context"
	"sync"

	"golang.org/x/net/html"

	"github.com/conneroisu/namesake/internal/dom"
	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/logging"
	"github.com/conneroisu/namesake/internal/replacer"
)

// DefaultDepth bounds the traversal run for each changed element.
const DefaultDepth = 10

// SubtreeProcessor is the part of replacer.Processor the watcher needs.
type SubtreeProcessor interface {
	ProcessSubtree(doc *dom.Document, root *html.Node, rules replacer.RuleSet, maxDepth int) error
}

// Watcher queues changed elements and hands them to a SubtreeProcessor once
// per frame. Drains take the locker, which must be the lock every document
// mutation is made under.
type Watcher struct {
	processor SubtreeProcessor
	locker    sync.Locker
	scheduler FrameScheduler
	logger    logging.Logger
	depth     int

	mu         sync.Mutex
	doc        *dom.Document
	rules      replacer.RuleSet
	cancel     func()
	queue      []*html.Node
	scheduled  bool
	active     bool
	generation uint64
	passes     int
}

// New creates a disconnected Watcher.
func New(processor SubtreeProcessor, locker sync.Locker, scheduler FrameScheduler, logger logging.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	if locker == nil {
		locker = &sync.Mutex{}
	}
	return &Watcher{
		processor: processor,
		locker:    locker,
		scheduler: scheduler,
		logger:    logger.WithComponent("observer"),
		depth:     DefaultDepth,
	}
}

// Setup subscribes to mutations under the body of doc. A previous
// subscription is disconnected first.
func (w *Watcher) Setup(doc *dom.Document, rules replacer.RuleSet) error {
	w.Disconnect()

	body := doc.Body()
	if body == nil {
		return errors.ErrNoContentRoot
	}

	w.mu.Lock()
	w.generation++
	w.doc = doc
	w.rules = rules
	w.active = true
	w.mu.Unlock()

	cancel := doc.Observe(body, w.handle)

	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	w.logger.Debug(context.Background(), "watching document body", "rules", len(rules))
	return nil
}

// Disconnect stops notifications and drops queued work. A frame that was
// already requested finds the watcher inactive and does nothing. Calling
// Disconnect on a watcher that is not connected is a no-op.
func (w *Watcher) Disconnect() {
	w.mu.Lock()
	cancel := w.cancel
	wasActive := w.active
	w.cancel = nil
	w.active = false
	w.queue = nil
	w.scheduled = false
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if wasActive {
		w.logger.Debug(context.Background(), "watcher disconnected")
	}
}

// Active reports whether the watcher is connected.
func (w *Watcher) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// Passes returns how many frame drains ran while connected.
func (w *Watcher) Passes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.passes
}

// handle enqueues the elements touched by a batch of mutations.
func (w *Watcher) handle(batch []dom.Mutation) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.active {
		return
	}

	before := len(w.queue)
	for _, rec := range batch {
		switch rec.Kind {
		case dom.ChildList:
			if producedByReplacer(rec) {
				continue
			}
			for _, n := range rec.Added {
				switch n.Type {
				case html.ElementNode:
					w.queue = append(w.queue, n)
				case html.TextNode:
					w.enqueueElement(rec.Target)
				}
			}
		case dom.CharacterData:
			w.enqueueElement(rec.Target.Parent)
		}
	}

	if len(w.queue) > before && !w.scheduled {
		w.scheduled = true
		gen := w.generation
		w.scheduler.RequestFrame(func() { w.drain(gen) })
	}
}

func (w *Watcher) enqueueElement(n *html.Node) {
	if n != nil && n.Type == html.ElementNode {
		w.queue = append(w.queue, n)
	}
}

// producedByReplacer reports whether rec is the split of a text node into
// markers, which needs no further processing.
func producedByReplacer(rec dom.Mutation) bool {
	for _, n := range rec.Added {
		if replacer.IsMarker(n) {
			return true
		}
	}
	return false
}

func (w *Watcher) drain(gen uint64) {
	w.locker.Lock()
	defer w.locker.Unlock()

	w.mu.Lock()
	if !w.active || gen != w.generation {
		w.mu.Unlock()
		return
	}
	queue := w.queue
	w.queue = nil
	w.scheduled = false
	doc, rules, depth := w.doc, w.rules, w.depth
	w.passes++
	w.mu.Unlock()

	ctx := context.Background()
	seen := make(map[*html.Node]struct{}, len(queue))
	processed := 0
	for _, el := range queue {
		if _, ok := seen[el]; ok {
			continue
		}
		seen[el] = struct{}{}
		if !doc.Attached(el) {
			continue
		}
		if err := w.processor.ProcessSubtree(doc, el, rules, depth); err != nil {
			w.logger.Warn(ctx, err, "processing changed subtree failed", "tag", el.Data)
			continue
		}
		processed++
	}

	w.logger.Debug(ctx, "frame drained", "queued", len(queue), "processed", processed)
}
