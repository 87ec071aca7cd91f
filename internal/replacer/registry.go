package replacer

import (
	"runtime"
	"sync"
	"weak"

	"golang.org/x/net/html"
)

// registry remembers which text nodes were already scanned against the
// current rules, and with what text. It never keeps a node alive.
type registry struct {
	mu      sync.Mutex
	scanned map[weak.Pointer[html.Node]]string
	tracked map[weak.Pointer[html.Node]]struct{}
}

func newRegistry() *registry {
	return &registry{
		scanned: make(map[weak.Pointer[html.Node]]string),
		tracked: make(map[weak.Pointer[html.Node]]struct{}),
	}
}

// seen reports whether n was scanned and still holds the scanned text.
func (r *registry) seen(n *html.Node) bool {
	key := weak.Make(n)
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.scanned[key]
	return ok && data == n.Data
}

func (r *registry) add(n *html.Node) {
	key := weak.Make(n)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanned[key] = n.Data
	if _, ok := r.tracked[key]; ok {
		return
	}
	r.tracked[key] = struct{}{}
	runtime.AddCleanup(n, r.forget, key)
}

func (r *registry) forget(key weak.Pointer[html.Node]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scanned, key)
	delete(r.tracked, key)
}

// reset drops every membership. Cleanups stay attached to tracked nodes.
func (r *registry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.scanned)
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scanned)
}
