// Package gate implements the download-in-progress flag shared between
// the fetch collaborator and the UI. The gate is advisory: the catalog
// never rejects writes on its own, callers consult the gate before
// allowing edits.
package gate

import "sync"

// Listener is notified with the new state after every transition.
type Listener func(active bool)

// Gate is an explicit shared-state object replacing what would otherwise
// be a process-wide global. It is owned by the composition root and
// passed by handle to whichever components need it.
type Gate struct {
	mu        sync.Mutex
	active    int // nesting count; >0 means a download is in progress
	listeners []Listener
}

// New creates an inactive gate.
func New() *Gate {
	return &Gate{}
}

// Begin marks a download as started. Nested Begin calls are counted so
// overlapping downloads keep the gate active until the last one ends.
func (g *Gate) Begin() {
	g.notifyAfter(func() bool {
		g.active++
		return g.active == 1
	})
}

// End marks a download as finished. End without a matching Begin is a
// no-op.
func (g *Gate) End() {
	g.notifyAfter(func() bool {
		if g.active == 0 {
			return false
		}
		g.active--
		return g.active == 0
	})
}

// Active reports whether any download is in progress.
func (g *Gate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active > 0
}

// Subscribe registers a listener invoked on every activation and
// deactivation. Listeners run outside the gate's lock and must not block
// for long.
func (g *Gate) Subscribe(l Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, l)
}

// notifyAfter runs mutate under the lock and, when it reports a state
// change, notifies listeners with the resulting state.
func (g *Gate) notifyAfter(mutate func() bool) {
	g.mu.Lock()
	changed := mutate()
	active := g.active > 0
	listeners := append([]Listener(nil), g.listeners...)
	g.mu.Unlock()

	if !changed {
		return
	}
	for _, l := range listeners {
		l(active)
	}
}
