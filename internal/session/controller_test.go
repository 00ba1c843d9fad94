package session_test

import (
	"strings"
	"testing"

	"github.com/objbrowse/backend/internal/browse"
	"github.com/objbrowse/backend/internal/canvas"
	"github.com/objbrowse/backend/internal/logging"
	"github.com/objbrowse/backend/internal/object"
	"github.com/objbrowse/backend/internal/render"
	"github.com/objbrowse/backend/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	sent []string
}

func (f *fakeTransport) Send(connID, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeTransport) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type pageCall struct {
	path         string
	first, count int
}

type fakeNav struct {
	items    []browse.Item
	total    int
	entries  map[string]*browse.Entry
	pages    []pageCall
	root     string
	setRoots []string
}

func (f *fakeNav) Page(path string, first, count int) ([]browse.Item, int, error) {
	f.pages = append(f.pages, pageCall{path, first, count})
	return f.items, f.total, nil
}

func (f *fakeNav) Resolve(path string) (*browse.Entry, error) {
	if e, ok := f.entries[path]; ok {
		return e, nil
	}
	return nil, errNotFound
}

func (f *fakeNav) SetRoot(path string) {
	f.root = path
	f.setRoots = append(f.setRoots, path)
}

var errNotFound = assert.AnError

type fakeRunner struct {
	ran []string
}

func (f *fakeRunner) Run(path string) (int64, error) {
	f.ran = append(f.ran, path)
	return 0, nil
}

type fakeWriter struct {
	paths, contents []string
}

func (f *fakeWriter) Write(path, content string) bool {
	f.paths = append(f.paths, path)
	f.contents = append(f.contents, content)
	return true
}

type fixture struct {
	ctrl      *session.Controller
	transport *fakeTransport
	nav       *fakeNav
	runner    *fakeRunner
	writer    *fakeWriter
	quitted   *bool
}

func drawableEntry(path, title string) *browse.Entry {
	return browse.NewDrawableEntry(
		browse.Item{Name: path, Path: path, Kind: browse.DrawableLeaf},
		func() (object.Drawable, error) {
			return &object.Series{Name: title, Points: []object.Point{{X: 0, Y: 1}}}, nil
		})
}

func textEntry(path, content string) *browse.Entry {
	return browse.NewTextEntry(
		browse.Item{Name: path, Path: path, Kind: browse.Leaf},
		func() (string, error) { return content, nil })
}

func newFixture(t *testing.T, modern bool) *fixture {
	t.Helper()
	transport := &fakeTransport{}
	nav := &fakeNav{
		entries: map[string]*browse.Entry{
			"/histo.root/h1": drawableEntry("/histo.root/h1", "h1"),
			"/histo.root/h2": drawableEntry("/histo.root/h2", "h2"),
			"/readme.txt":    textEntry("/readme.txt", "hello"),
		},
	}
	runner := &fakeRunner{}
	writer := &fakeWriter{}
	quitted := false

	ctrl := session.New(session.Config{
		UseModern:   modern,
		WorkingRoot: "/start",
	}, canvas.NewRegistry(nil), nav, render.New(logging.NewNop()),
		runner, writer, transport, func() { quitted = true }, logging.NewNop())

	return &fixture{ctrl: ctrl, transport: transport, nav: nav, runner: runner, writer: writer, quitted: &quitted}
}

func TestInitMessageListsOpenCanvases(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.CreateCanvas()
	f.ctrl.CreateCanvas()

	f.ctrl.OnConnect("c1")
	require.Len(t, f.transport.sent, 1)
	assert.Equal(t,
		`INMSG:[["root6","/canvas/webcanv1","webcanv1"],["root6","/canvas/webcanv2","webcanv2"]]`,
		f.transport.sent[0])
}

func TestInitMessageEmptySession(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.OnConnect("c1")
	require.Len(t, f.transport.sent, 1)
	assert.Equal(t, "INMSG:[]", f.transport.sent[0])
}

func TestEmptyBrowseRequestUsesDefaults(t *testing.T) {
	f := newFixture(t, false)
	f.nav.items = []browse.Item{{Name: "sub", Path: "/sub", Kind: browse.Container}}
	f.nav.total = 1

	f.ctrl.OnMessage("c1", "BRREQ:")

	require.Len(t, f.nav.pages, 1)
	assert.Equal(t, pageCall{"/", 0, 100}, f.nav.pages[0])
	require.Len(t, f.transport.sent, 1)
	assert.True(t, strings.HasPrefix(f.transport.sent[0], "BREPL:"))
	assert.Contains(t, f.transport.sent[0], `"total":1`)
}

func TestExplicitBrowseRequest(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.OnMessage("c1", `BRREQ:{"path":"/sub","first":20,"number":10}`)
	require.Len(t, f.nav.pages, 1)
	assert.Equal(t, pageCall{"/sub", 20, 10}, f.nav.pages[0])
}

func TestMalformedBrowseRequestDropped(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.OnMessage("c1", `BRREQ:{"path":`)
	assert.Empty(t, f.nav.pages)
	assert.Empty(t, f.transport.sent)
}

func TestNewCanvasReply(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.OnMessage("c1", "NEWCANVAS")
	assert.Equal(t, `CANVS:["root6","/canvas/webcanv1","webcanv1"]`, f.transport.last())

	f.ctrl.OnMessage("c1", "NEWCANVAS")
	assert.Equal(t, `CANVS:["root6","/canvas/webcanv2","webcanv2"]`, f.transport.last())

	// Names are never reused, even after close.
	f.ctrl.OnMessage("c1", "CLOSE_CANVAS:webcanv2")
	f.ctrl.OnMessage("c1", "NEWCANVAS")
	assert.Equal(t, `CANVS:["root6","/canvas/webcanv3","webcanv3"]`, f.transport.last())
}

func TestNewCanvasModernBackend(t *testing.T) {
	f := newFixture(t, true)
	f.ctrl.OnMessage("c1", "NEWCANVAS")
	assert.Equal(t, `CANVS:["root7","../canvas/rcanv1/","rcanv1"]`, f.transport.last())
}

func TestDblClickTextContent(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.OnMessage("c1", "DBLCLK:/readme.txt")
	assert.Equal(t, "FREAD:hello", f.transport.last())
}

func TestDblClickDrawsIntoActiveCanvas(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.CreateCanvas()

	f.ctrl.OnMessage("c1", "DBLCLK:/histo.root/h1")
	assert.Equal(t, "SLCTCANV:webcanv1", f.transport.last())

	prims := f.ctrl.Registry().FindByName("webcanv1").Primitives()
	require.Len(t, prims, 1)
	assert.Equal(t, "h1", prims[0].Object.Title())
}

func TestDrawReplacesPriorContent(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.CreateCanvas()

	f.ctrl.OnMessage("c1", "DBLCLK:/histo.root/h1")
	f.ctrl.OnMessage("c1", "DBLCLK:/histo.root/h2")

	prims := f.ctrl.Registry().FindByName("webcanv1").Primitives()
	require.Len(t, prims, 1)
	assert.Equal(t, "h2", prims[0].Object.Title())
}

func TestDblClickWithOptions(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.CreateCanvas()

	f.ctrl.OnMessage("c1", `DBLCLK:["/histo.root/h1","logy"]`)
	assert.Equal(t, "SLCTCANV:webcanv1", f.transport.last())

	prims := f.ctrl.Registry().FindByName("webcanv1").Primitives()
	require.Len(t, prims, 1)
	assert.Equal(t, "logy", prims[0].Options)
}

func TestDblClickMalformedArrayIgnored(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.CreateCanvas()
	f.ctrl.OnMessage("c1", `DBLCLK:["broken`)
	assert.Empty(t, f.transport.sent)
}

func TestDblClickUnknownPathIgnored(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.CreateCanvas()
	f.ctrl.OnMessage("c1", "DBLCLK:/no/such/item")
	assert.Empty(t, f.transport.sent)
}

func TestDblClickNoActiveCanvasIsNoop(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.OnMessage("c1", "DBLCLK:/histo.root/h1")
	assert.Empty(t, f.transport.sent)
}

func TestSelectNonexistentCanvasMakesDrawsNoops(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.CreateCanvas()

	f.ctrl.OnMessage("c1", "SELECT_CANVAS:ghost")
	assert.Equal(t, "ghost", f.ctrl.Registry().ActiveName())

	f.ctrl.OnMessage("c1", "DBLCLK:/histo.root/h1")
	assert.Empty(t, f.transport.sent)

	// Re-selecting a valid name resumes drawing.
	f.ctrl.OnMessage("c1", "SELECT_CANVAS:webcanv1")
	f.ctrl.OnMessage("c1", "DBLCLK:/histo.root/h1")
	assert.Equal(t, "SLCTCANV:webcanv1", f.transport.last())
}

func TestCloseActiveCanvasStopsDraws(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.CreateCanvas()

	f.ctrl.OnMessage("c1", "CLOSE_CANVAS:webcanv1")
	assert.Empty(t, f.transport.sent)

	f.ctrl.OnMessage("c1", "DBLCLK:/histo.root/h1")
	assert.Empty(t, f.transport.sent)
}

func TestRunMacroDelegatesAndStaysSilent(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.OnMessage("c1", "RUNMACRO:/tmp/run.sh:unused-rest")
	assert.Equal(t, []string{"/tmp/run.sh"}, f.runner.ran)
	assert.Empty(t, f.transport.sent)
}

func TestSaveFileSplitsOnFirstColon(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.OnMessage("c1", "SAVEFILE:/tmp/out.txt:line1:line2")
	require.Len(t, f.writer.paths, 1)
	assert.Equal(t, "/tmp/out.txt", f.writer.paths[0])
	assert.Equal(t, "line1:line2", f.writer.contents[0])
	assert.Empty(t, f.transport.sent)
}

func TestGetWorkDir(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.OnMessage("c1", "GETWORKDIR:")
	assert.Equal(t, `GETWORKDIR: { "path": "/start"}`, f.transport.last())
}

func TestChangeDirUpdatesRootEvenWhenOSChdirFails(t *testing.T) {
	f := newFixture(t, false)

	// The target does not exist, so the OS-level chdir fails; the
	// session's own root must still move.
	f.ctrl.OnMessage("c1", "CHDIR:/definitely/not/here")
	assert.Equal(t, `GETWORKDIR: { "path": "/definitely/not/here"}`, f.transport.last())
	assert.Equal(t, []string{"/definitely/not/here"}, f.nav.setRoots)

	f.ctrl.OnMessage("c1", "GETWORKDIR:")
	assert.Equal(t, `GETWORKDIR: { "path": "/definitely/not/here"}`, f.transport.last())
	assert.Equal(t, "/definitely/not/here", f.ctrl.WorkingRoot())
}

func TestQuitInvokesQuitFunc(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.OnMessage("c1", "QUIT_ROOT")
	assert.True(t, *f.quitted)
}

func TestUnknownPrefixIgnored(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.OnMessage("c1", "BOGUS:whatever")
	f.ctrl.OnMessage("c1", "")
	assert.Empty(t, f.transport.sent)
}

func TestReconnectGetsFreshInit(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.CreateCanvas()

	f.ctrl.OnConnect("c1")
	f.ctrl.OnDisconnect("c1")

	// State persists across the disconnect.
	f.ctrl.OnConnect("c2")
	require.Len(t, f.transport.sent, 2)
	assert.Equal(t, f.transport.sent[0], f.transport.sent[1])
}

func TestDisconnectOfReplacedConnectionKeepsLiveHandle(t *testing.T) {
	f := newFixture(t, false)
	f.ctrl.OnConnect("c1")
	f.ctrl.OnConnect("c2") // replaces c1
	f.ctrl.OnDisconnect("c1")

	// Session still answers on the live connection.
	f.ctrl.OnMessage("c2", "GETWORKDIR:")
	assert.Equal(t, `GETWORKDIR: { "path": "/start"}`, f.transport.last())
}

// TestSessionScenario walks one full client exchange: browse the root,
// open a canvas, draw into it, close it, then observe that further draws
// go nowhere.
func TestSessionScenario(t *testing.T) {
	f := newFixture(t, false)
	f.nav.items = []browse.Item{
		{Name: "histo.root", Path: "/histo.root", Kind: browse.Container},
	}
	f.nav.total = 1

	f.ctrl.OnConnect("c1")
	assert.Equal(t, "INMSG:[]", f.transport.last())

	f.ctrl.OnMessage("c1", "BRREQ:")
	assert.True(t, strings.HasPrefix(f.transport.last(), "BREPL:"))
	assert.Contains(t, f.transport.last(), "histo.root")

	f.ctrl.OnMessage("c1", "NEWCANVAS")
	assert.Equal(t, `CANVS:["root6","/canvas/webcanv1","webcanv1"]`, f.transport.last())

	f.ctrl.OnMessage("c1", "DBLCLK:/histo.root/h1")
	assert.Equal(t, "SLCTCANV:webcanv1", f.transport.last())

	sent := len(f.transport.sent)
	f.ctrl.OnMessage("c1", "CLOSE_CANVAS:webcanv1")
	f.ctrl.OnMessage("c1", "DBLCLK:/histo.root/h1")
	assert.Len(t, f.transport.sent, sent)
}

type countingObserver struct {
	kinds    map[string]int
	canvases int
}

func (o *countingObserver) MessageHandled(kind string) { o.kinds[kind]++ }
func (o *countingObserver) CanvasesOpen(n int)         { o.canvases = n }

func TestObserverSeesTraffic(t *testing.T) {
	f := newFixture(t, false)
	obs := &countingObserver{kinds: map[string]int{}}
	f.ctrl.SetObserver(obs)

	f.ctrl.OnMessage("c1", "NEWCANVAS")
	f.ctrl.OnMessage("c1", "BRREQ:")
	f.ctrl.OnMessage("c1", "CLOSE_CANVAS:webcanv1")

	assert.Equal(t, 1, obs.kinds["new_canvas"])
	assert.Equal(t, 1, obs.kinds["browse"])
	assert.Equal(t, 1, obs.kinds["close_canvas"])
	assert.Equal(t, 0, obs.canvases)
}
