package canvas

import (
	"sync"

	"github.com/objbrowse/backend/internal/object"
)

// paintQueueLen bounds outstanding async paints per legacy canvas.
const paintQueueLen = 32

// WebCanvas is the legacy backend. Draw binds the object by reference and
// hands the paint to a background worker; the caller does not wait for
// the paint to complete. Invalidating the source object while it is bound
// here is undefined, so callers that need an independent lifetime must
// copy before drawing (the modern backend does this instead).
type WebCanvas struct {
	name    string
	painter Painter

	mu     sync.Mutex
	prims  []Primitive
	jobs   chan Primitive
	closed bool
	done   chan struct{}
}

func newWebCanvas(name string, painter Painter) *WebCanvas {
	c := &WebCanvas{
		name:    name,
		painter: painter,
		jobs:    make(chan Primitive, paintQueueLen),
		done:    make(chan struct{}),
	}
	go c.paintLoop()
	return c
}

// paintLoop forwards queued paints to the painter. It keeps draining
// after Release so a close racing an in-flight paint cannot wedge or
// corrupt anything; abandoned paints are simply completed and discarded
// by the remote side.
func (c *WebCanvas) paintLoop() {
	defer close(c.done)
	for prim := range c.jobs {
		c.painter.Paint(c.name, prim)
	}
}

// Name returns the canvas name.
func (c *WebCanvas) Name() string { return c.name }

// Kind returns the legacy backend kind.
func (c *WebCanvas) Kind() string { return KindLegacy }

// EmbedURL returns the relative URL the client embeds this canvas from.
func (c *WebCanvas) EmbedURL() string { return "/canvas/" + c.name }

// Wipe removes all primitives.
func (c *WebCanvas) Wipe() {
	c.mu.Lock()
	c.prims = nil
	c.mu.Unlock()
}

// Draw records the primitive and queues the paint without blocking. If
// the queue is full the paint is dropped; the client recovers by
// re-issuing the draw.
func (c *WebCanvas) Draw(obj object.Drawable, options string) {
	prim := Primitive{Object: obj, Options: options}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.prims = append(c.prims, prim)
	select {
	case c.jobs <- prim:
	default:
	}
	c.mu.Unlock()
}

// Primitives returns a snapshot of the current primitives.
func (c *WebCanvas) Primitives() []Primitive {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Primitive, len(c.prims))
	copy(out, c.prims)
	return out
}

// Release stops the paint worker. Safe to call once; the registry
// guarantees that.
func (c *WebCanvas) Release() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.jobs)
	c.mu.Unlock()
	<-c.done
}
