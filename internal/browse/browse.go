// Package browse walks the hierarchical object tree shown in the client
// page. Paths are slash-rooted and relative to a mutable working root.
package browse

import (
	"github.com/objbrowse/backend/internal/object"
)

// ItemKind classifies a tree node.
type ItemKind int

const (
	// Container holds children (a directory).
	Container ItemKind = iota
	// Leaf is a plain endpoint with no drawable payload.
	Leaf
	// DrawableLeaf is an endpoint carrying a bindable graphical object.
	DrawableLeaf
)

// Item describes one node of the tree.
type Item struct {
	Name string
	Path string
	Kind ItemKind
	Size int64
}

// Entry is a resolved item with access to its content. Exactly one of
// the content accessors yields something: containers yield neither, text
// leaves yield text, drawable leaves yield a drawable.
type Entry struct {
	Item

	text func() (string, error)
	draw func() (object.Drawable, error)
}

// NewContainerEntry builds an entry with no content accessors.
func NewContainerEntry(item Item) *Entry {
	return &Entry{Item: item}
}

// NewTextEntry builds an entry whose content is inline text.
func NewTextEntry(item Item, text func() (string, error)) *Entry {
	return &Entry{Item: item, text: text}
}

// NewDrawableEntry builds an entry carrying a graphical object.
func NewDrawableEntry(item Item, draw func() (object.Drawable, error)) *Entry {
	return &Entry{Item: item, draw: draw}
}

// HasText reports whether the entry carries inline text content.
func (e *Entry) HasText() bool { return e.text != nil }

// Text returns the inline text content.
func (e *Entry) Text() (string, error) {
	if e.text == nil {
		return "", nil
	}
	return e.text()
}

// Drawable returns the entry's graphical object, or nil when the entry
// is not drawable or its payload cannot be read.
func (e *Entry) Drawable() object.Drawable {
	if e.draw == nil {
		return nil
	}
	obj, err := e.draw()
	if err != nil {
		return nil
	}
	return obj
}
