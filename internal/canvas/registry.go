package canvas

import (
	"strconv"
	"sync"
)

// Registry owns all open canvases and the active-canvas pointer. Names
// use per-backend ever-created counters, so a name is never reused even
// after the canvas carrying it was closed.
type Registry struct {
	mu        sync.RWMutex
	canvases  []Canvas
	active    string
	legacySeq int
	modernSeq int
	painter   Painter
}

// NewRegistry creates an empty registry. A nil painter discards legacy
// paint work.
func NewRegistry(painter Painter) *Registry {
	if painter == nil {
		painter = nopPainter{}
	}
	return &Registry{painter: painter}
}

// CreateLegacy creates a legacy canvas, makes it active and returns it.
func (r *Registry) CreateLegacy() Canvas {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.legacySeq++
	c := newWebCanvas("webcanv"+strconv.Itoa(r.legacySeq), r.painter)
	r.canvases = append(r.canvases, c)
	r.active = c.Name()
	return c
}

// CreateModern creates a modern canvas, makes it active and returns it.
func (r *Registry) CreateModern() Canvas {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modernSeq++
	c := newModernCanvas("rcanv" + strconv.Itoa(r.modernSeq))
	r.canvases = append(r.canvases, c)
	r.active = c.Name()
	return c
}

// FindByName returns the canvas with the given name, or nil.
func (r *Registry) FindByName(name string) Canvas {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findLocked(name)
}

func (r *Registry) findLocked(name string) Canvas {
	for _, c := range r.canvases {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// Active returns the active canvas, or nil when the active name is empty
// or names a canvas that no longer exists.
func (r *Registry) Active() Canvas {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == "" {
		return nil
	}
	return r.findLocked(r.active)
}

// ActiveName returns the active-canvas name, possibly naming a canvas
// that does not exist.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// SetActive records the name verbatim. Existence is not validated;
// selecting an unknown name simply makes draws no-ops until a valid
// name is selected.
func (r *Registry) SetActive(name string) {
	r.mu.Lock()
	r.active = name
	r.mu.Unlock()
}

// Close removes the named canvas and releases it. Closing the active
// canvas clears the active pointer. Closing an unknown name is a no-op
// returning false.
func (r *Registry) Close(name string) bool {
	r.mu.Lock()
	var closed Canvas
	for i, c := range r.canvases {
		if c.Name() == name {
			closed = c
			r.canvases = append(r.canvases[:i], r.canvases[i+1:]...)
			break
		}
	}
	if closed != nil && r.active == name {
		r.active = ""
	}
	r.mu.Unlock()

	if closed == nil {
		return false
	}
	// Release outside the lock: the legacy backend waits for its paint
	// worker to drain.
	closed.Release()
	return true
}

// ListAll returns all open canvases, legacy before modern, in creation
// order within each backend. The init message order the client sees is
// derived from this, so it must be stable.
func (r *Registry) ListAll() []Canvas {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Canvas, 0, len(r.canvases))
	for _, c := range r.canvases {
		if c.Kind() == KindLegacy {
			out = append(out, c)
		}
	}
	for _, c := range r.canvases {
		if c.Kind() == KindModern {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the number of open canvases.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.canvases)
}

// ReleaseAll closes every canvas. Used on shutdown.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	canvases := r.canvases
	r.canvases = nil
	r.active = ""
	r.mu.Unlock()

	for _, c := range canvases {
		c.Release()
	}
}
