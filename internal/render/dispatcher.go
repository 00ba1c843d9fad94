// Package render hides the difference between the two canvas backends
// behind one draw operation.
package render

import (
	"github.com/objbrowse/backend/internal/canvas"
	"github.com/objbrowse/backend/internal/logging"
	"github.com/objbrowse/backend/internal/object"
	"go.uber.org/zap"
)

// Dispatcher draws objects into canvases. The display model is one
// primitive at a time: every draw wipes the prior content first.
type Dispatcher struct {
	log *logging.Logger
}

// New creates a dispatcher.
func New(log *logging.Logger) *Dispatcher {
	return &Dispatcher{log: log}
}

// Draw clears the target canvas and renders the object into it. The
// options string is passed through opaquely to the backend.
//
// For the modern backend the object is deep-copied first, decoupling its
// lifetime from the source tree node. The legacy backend binds the
// original by reference and paints asynchronously; the caller must keep
// the object valid while it is bound.
func (d *Dispatcher) Draw(c canvas.Canvas, obj object.Drawable, options string) {
	if c.Kind() == canvas.KindModern {
		obj = obj.Clone()
	}
	c.Wipe()
	c.Draw(obj, options)
	d.log.Debug("drew object",
		zap.String("canvas", c.Name()),
		zap.String("backend", c.Kind()),
		zap.String("title", obj.Title()))
}
