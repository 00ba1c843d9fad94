// Package canvas owns the lifecycle of drawing surfaces. Two backends
// share one logical role behind the Canvas interface: the legacy web
// canvas paints asynchronously through a pipeline, the modern canvas
// updates synchronously. The Registry tracks all open canvases and which
// one is active.
package canvas

import (
	"github.com/objbrowse/backend/internal/object"
)

// Backend kind values as they appear on the wire.
const (
	KindLegacy = "root6"
	KindModern = "root7"
)

// Primitive is one rendered entry on a canvas. A canvas holds at most
// one primitive at a time; a new draw always wipes the prior content.
type Primitive struct {
	Object  object.Drawable
	Options string
}

// Canvas is a named drawing surface bound to one backend.
type Canvas interface {
	// Name returns the unique canvas name.
	Name() string
	// Kind returns the backend kind string.
	Kind() string
	// EmbedURL returns the relative URL the client embeds the canvas from.
	EmbedURL() string
	// Wipe removes all primitives.
	Wipe()
	// Draw adds a primitive. Callers wipe first; see render.Dispatcher.
	Draw(obj object.Drawable, options string)
	// Primitives returns a snapshot of the current primitives.
	Primitives() []Primitive
	// Release frees backend resources. Called by the registry on close.
	Release()
}

// Painter receives paint work dispatched by the legacy backend. It stands
// in for the remote paint pipeline; paints may complete after the draw
// call that produced them has returned.
type Painter interface {
	Paint(canvasName string, prim Primitive)
}

type nopPainter struct{}

func (nopPainter) Paint(string, Primitive) {}
