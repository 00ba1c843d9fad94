package canvas

import (
	"sync"

	"github.com/objbrowse/backend/internal/object"
)

// ModernCanvas is the modern backend. Updates are synchronous relative to
// the caller, and drawn objects are independent copies made by the render
// dispatcher, so the source tree node can be refreshed or re-navigated
// without invalidating what is on screen.
type ModernCanvas struct {
	name string

	mu    sync.Mutex
	prims []Primitive
}

func newModernCanvas(name string) *ModernCanvas {
	return &ModernCanvas{name: name}
}

// Name returns the canvas name.
func (c *ModernCanvas) Name() string { return c.name }

// Kind returns the modern backend kind.
func (c *ModernCanvas) Kind() string { return KindModern }

// EmbedURL returns the relative URL the client embeds this canvas from.
func (c *ModernCanvas) EmbedURL() string { return "../canvas/" + c.name + "/" }

// Wipe removes all primitives.
func (c *ModernCanvas) Wipe() {
	c.mu.Lock()
	c.prims = nil
	c.mu.Unlock()
}

// Draw adds the primitive synchronously.
func (c *ModernCanvas) Draw(obj object.Drawable, options string) {
	c.mu.Lock()
	c.prims = append(c.prims, Primitive{Object: obj, Options: options})
	c.mu.Unlock()
}

// Primitives returns a snapshot of the current primitives.
func (c *ModernCanvas) Primitives() []Primitive {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Primitive, len(c.prims))
	copy(out, c.prims)
	return out
}

// Release is a no-op; the modern backend holds no background resources.
func (c *ModernCanvas) Release() {}
