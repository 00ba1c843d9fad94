// Package session implements the single-client browsing session: one
// working root, a set of canvases, and the command dispatch for the
// text-prefixed protocol.
package session

import (
	"os"
	"strings"
	"sync"

	"github.com/objbrowse/backend/internal/browse"
	"github.com/objbrowse/backend/internal/canvas"
	"github.com/objbrowse/backend/internal/logging"
	"github.com/objbrowse/backend/internal/protocol"
	"github.com/objbrowse/backend/internal/render"
	"go.uber.org/zap"
)

// Navigator answers tree queries for the session.
type Navigator interface {
	Page(path string, first, count int) ([]browse.Item, int, error)
	Resolve(path string) (*browse.Entry, error)
	SetRoot(path string)
}

// ScriptRunner executes client-submitted scripts. The session discards
// the result; it is observable only as a side effect.
type ScriptRunner interface {
	Run(path string) (int64, error)
}

// FileWriter persists editor content. The session discards the result.
type FileWriter interface {
	Write(path, content string) bool
}

// Transport sends a text message to one connection.
type Transport interface {
	Send(connID, text string) error
}

// Observer receives session-level measurements. All methods must be
// cheap; a nil observer disables them.
type Observer interface {
	MessageHandled(kind string)
	CanvasesOpen(n int)
}

// Config fixes per-session behavior.
type Config struct {
	// UseModern selects the modern canvas backend for new canvases.
	// Fixed for the life of the session.
	UseModern bool
	// WorkingRoot is the initial navigation root.
	WorkingRoot string
}

// Controller orchestrates the session. Commands are processed one at a
// time; a replaced connection may still be draining when its successor
// connects, so dispatch is serialized with a mutex rather than relying
// on the transport alone.
type Controller struct {
	log       *logging.Logger
	registry  *canvas.Registry
	nav       Navigator
	render    *render.Dispatcher
	runner    ScriptRunner
	writer    FileWriter
	transport Transport
	observer  Observer
	quit      func()

	mu          sync.Mutex
	useModern   bool
	workingRoot string
	connID      string
}

// New creates a controller. quit is invoked on the QUIT_ROOT command and
// must terminate the host process.
func New(cfg Config, registry *canvas.Registry, nav Navigator, dispatcher *render.Dispatcher,
	runner ScriptRunner, writer FileWriter, transport Transport, quit func(), log *logging.Logger) *Controller {
	return &Controller{
		log:         log,
		registry:    registry,
		nav:         nav,
		render:      dispatcher,
		runner:      runner,
		writer:      writer,
		transport:   transport,
		quit:        quit,
		useModern:   cfg.UseModern,
		workingRoot: cfg.WorkingRoot,
	}
}

// SetObserver attaches a measurement observer.
func (c *Controller) SetObserver(obs Observer) {
	c.observer = obs
}

// WorkingRoot returns the session's current navigation root.
func (c *Controller) WorkingRoot() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workingRoot
}

// Registry exposes the canvas registry for the embed routes.
func (c *Controller) Registry() *canvas.Registry {
	return c.registry
}

// CreateCanvas opens a canvas of the session's configured backend and
// makes it active.
func (c *Controller) CreateCanvas() canvas.Canvas {
	var cv canvas.Canvas
	if c.useModern {
		cv = c.registry.CreateModern()
	} else {
		cv = c.registry.CreateLegacy()
	}
	if c.observer != nil {
		c.observer.CanvasesOpen(c.registry.Count())
	}
	return cv
}

// OnConnect records the connection handle (a new connection replaces the
// old one) and sends the init message describing all open canvases.
func (c *Controller) OnConnect(connID string) {
	c.mu.Lock()
	c.connID = connID
	c.mu.Unlock()

	triples := make([][3]string, 0, c.registry.Count())
	for _, cv := range c.registry.ListAll() {
		triples = append(triples, [3]string{cv.Kind(), cv.EmbedURL(), cv.Name()})
	}
	msg, err := protocol.EncodeInit(triples)
	if err != nil {
		c.log.Error("failed to encode init message", zap.Error(err))
		return
	}
	c.send(connID, msg)
}

// OnDisconnect clears the connection handle if it is still the live one.
// Canvases and working root persist so a reconnect can resume.
func (c *Controller) OnDisconnect(connID string) {
	c.mu.Lock()
	if c.connID == connID {
		c.connID = ""
	}
	c.mu.Unlock()
}

// OnMessage decodes one inbound message and dispatches it. Malformed or
// unrecognized input is dropped silently; no error envelope exists in
// this protocol.
func (c *Controller) OnMessage(connID, raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if line, _, cut := strings.Cut(raw, "\n"); cut {
		c.log.Debug("recv", zap.String("msg", line))
	} else {
		c.log.Debug("recv", zap.String("msg", raw))
	}

	msg := protocol.Decode(raw)
	if c.observer != nil {
		c.observer.MessageHandled(kindName(msg.Kind))
	}

	switch msg.Kind {
	case protocol.KindQuit:
		c.log.Info("quit requested by client")
		c.quit()
	case protocol.KindBrowse:
		c.handleBrowse(connID, msg.Body)
	case protocol.KindNewCanvas:
		c.handleNewCanvas(connID)
	case protocol.KindDblClick:
		c.handleDblClick(connID, msg.Body)
	case protocol.KindRunMacro:
		c.handleRunMacro(msg.Body)
	case protocol.KindSaveFile:
		c.handleSaveFile(msg.Body)
	case protocol.KindSelectCanvas:
		c.registry.SetActive(msg.Body)
		c.log.Debug("selected canvas", zap.String("name", msg.Body))
	case protocol.KindCloseCanvas:
		c.handleCloseCanvas(msg.Body)
	case protocol.KindGetWorkDir:
		c.send(connID, protocol.EncodeWorkDir(c.workingRoot))
	case protocol.KindChangeDir:
		c.handleChangeDir(connID, msg.Body)
	case protocol.KindUnknown:
		// Silently ignored.
	}
}

func (c *Controller) handleBrowse(connID, body string) {
	req := protocol.DefaultBrowseRequest()
	if body != "" {
		decoded, err := protocol.DecodeBrowseRequest(body)
		if err != nil {
			c.log.Debug("malformed browse request", zap.Error(err))
			return
		}
		req = *decoded
	}

	items, total, err := c.nav.Page(req.Path, req.First, req.Number)
	if err != nil {
		c.log.Debug("browse failed", zap.String("path", req.Path), zap.Error(err))
		return
	}

	reply := &protocol.BrowseReply{
		Path:  req.Path,
		First: req.First,
		Total: total,
		Nodes: make([]protocol.Node, len(items)),
	}
	for i, item := range items {
		reply.Nodes[i] = protocol.Node{
			Name: item.Name,
			Path: item.Path,
			Kind: nodeKind(item.Kind),
			Size: item.Size,
		}
	}

	encoded, err := protocol.EncodeBrowseReply(reply)
	if err != nil {
		c.log.Error("failed to encode browse reply", zap.Error(err))
		return
	}
	c.send(connID, encoded)
}

func (c *Controller) handleNewCanvas(connID string) {
	cv := c.CreateCanvas()
	encoded, err := protocol.EncodeCanvas(cv.Kind(), cv.EmbedURL(), cv.Name())
	if err != nil {
		c.log.Error("failed to encode canvas reply", zap.Error(err))
		return
	}
	c.send(connID, encoded)
}

func (c *Controller) handleDblClick(connID, body string) {
	path, options, ok := protocol.DecodeDblClick(body)
	if !ok {
		return
	}

	entry, err := c.nav.Resolve(path)
	if err != nil {
		c.log.Debug("unknown item", zap.String("path", path), zap.Error(err))
		return
	}

	if entry.HasText() {
		text, err := entry.Text()
		if err != nil {
			c.log.Debug("failed to read item", zap.String("path", path), zap.Error(err))
			return
		}
		c.send(connID, protocol.EncodeFileRead(text))
		return
	}

	obj := entry.Drawable()
	if obj == nil {
		return
	}

	active := c.registry.Active()
	if active == nil {
		c.log.Debug("no active canvas for draw", zap.String("path", path))
		return
	}

	c.render.Draw(active, obj, options)
	c.send(connID, protocol.EncodeSelectCanvas(active.Name()))
}

func (c *Controller) handleRunMacro(body string) {
	path, _ := protocol.SplitCompound(body)
	if path == "" {
		return
	}
	// Result discarded; script output is a console side effect.
	if _, err := c.runner.Run(path); err != nil {
		c.log.Debug("macro failed", zap.String("path", path), zap.Error(err))
	}
}

func (c *Controller) handleSaveFile(body string) {
	path, content := protocol.SplitCompound(body)
	if path == "" {
		return
	}
	c.writer.Write(path, content)
}

func (c *Controller) handleCloseCanvas(name string) {
	if c.registry.Close(name) && c.observer != nil {
		c.observer.CanvasesOpen(c.registry.Count())
	}
}

// handleChangeDir replaces the working root and re-tops the navigator.
// The OS-level chdir is best-effort: when it fails the session's own
// root still moves, an accepted inconsistency.
func (c *Controller) handleChangeDir(connID, newPath string) {
	c.workingRoot = newPath
	c.nav.SetRoot(newPath)
	if err := os.Chdir(newPath); err != nil {
		c.log.Warn("os chdir failed", zap.String("path", newPath), zap.Error(err))
	}
	c.send(connID, protocol.EncodeWorkDir(c.workingRoot))
}

func (c *Controller) send(connID, text string) {
	if err := c.transport.Send(connID, text); err != nil {
		c.log.Warn("send failed", zap.String("conn", connID), zap.Error(err))
	}
}

func nodeKind(kind browse.ItemKind) string {
	switch kind {
	case browse.Container:
		return protocol.NodeContainer
	case browse.DrawableLeaf:
		return protocol.NodeDrawable
	default:
		return protocol.NodeLeaf
	}
}

func kindName(kind protocol.Kind) string {
	switch kind {
	case protocol.KindBrowse:
		return "browse"
	case protocol.KindNewCanvas:
		return "new_canvas"
	case protocol.KindDblClick:
		return "dblclick"
	case protocol.KindRunMacro:
		return "run_macro"
	case protocol.KindSaveFile:
		return "save_file"
	case protocol.KindSelectCanvas:
		return "select_canvas"
	case protocol.KindCloseCanvas:
		return "close_canvas"
	case protocol.KindGetWorkDir:
		return "get_workdir"
	case protocol.KindChangeDir:
		return "chdir"
	case protocol.KindQuit:
		return "quit"
	default:
		return "unknown"
	}
}
