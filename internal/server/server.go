package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/objbrowse/backend/internal/browse"
	"github.com/objbrowse/backend/internal/canvas"
	"github.com/objbrowse/backend/internal/config"
	"github.com/objbrowse/backend/internal/logging"
	"github.com/objbrowse/backend/internal/middleware"
	"github.com/objbrowse/backend/internal/monitoring"
	"github.com/objbrowse/backend/internal/render"
	"github.com/objbrowse/backend/internal/script"
	"github.com/objbrowse/backend/internal/session"
	"github.com/objbrowse/backend/internal/ws"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server wraps the HTTP surface and the browsing session behind it.
type Server struct {
	router   *gin.Engine
	ctrl     *session.Controller
	registry *canvas.Registry
	log      *logging.Logger
}

// New assembles the full service: one session controller, its canvas
// registry, the filesystem navigator rooted at the configured directory,
// and the websocket transport. quit is invoked when the client sends the
// quit command; it must terminate the process.
func New(cfg *config.Config, quit func(), log *logging.Logger) *Server {
	metrics := monitoring.NewMetrics()

	registry := canvas.NewRegistry(&logPainter{log: log})
	nav := browse.NewFS(cfg.Browser.Root)
	dispatcher := render.New(log)
	runner := script.NewRunner(cfg.Browser.Interpreter, log)
	writer := script.NewWriter(log)

	wsHandler := ws.NewHandler(log, metrics)
	ctrl := session.New(session.Config{
		UseModern:   cfg.Browser.Backend == "modern",
		WorkingRoot: cfg.Browser.Root,
	}, registry, nav, dispatcher, runner, writer, wsHandler, quit, log)
	ctrl.SetObserver(metrics)
	wsHandler.Bind(ctrl)

	// The session starts with one canvas open, so the first double-click
	// on a drawable has somewhere to land.
	first := ctrl.CreateCanvas()
	log.Info("session ready",
		zap.String("root", cfg.Browser.Root),
		zap.String("canvas", first.Name()))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(monitoring.Middleware(metrics))

	srv := &Server{
		router:   router,
		ctrl:     ctrl,
		registry: registry,
		log:      log,
	}

	router.GET("/", srv.root)
	router.GET("/health", srv.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/browser", wsHandler.HandleConnection)
	router.GET("/canvas/:name", srv.canvasPage)
	router.GET("/canvas/:name/state", srv.canvasState)

	return srv
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server.
func (s *Server) Run(addr string) error {
	s.log.Info("starting browser backend", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close releases session resources.
func (s *Server) Close() error {
	s.registry.ReleaseAll()
	s.log.Sync() //nolint:errcheck
	return nil
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":      "object-browser",
		"working_root": s.ctrl.WorkingRoot(),
		"canvases":     s.registry.Count(),
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// canvasPage serves the embed page a canvas EmbedURL points at. The page
// polls the state endpoint and renders client-side.
func (s *Server) canvasPage(c *gin.Context) {
	name := c.Param("name")
	if s.registry.FindByName(name) == nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(embedPage(name)))
}

// canvasState reports what the canvas currently displays.
func (s *Server) canvasState(c *gin.Context) {
	name := c.Param("name")
	cv := s.registry.FindByName(name)
	if cv == nil {
		c.Status(http.StatusNotFound)
		return
	}

	prims := cv.Primitives()
	out := make([]gin.H, len(prims))
	for i, p := range prims {
		out[i] = gin.H{
			"title":   p.Object.Title(),
			"options": p.Options,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"name":       cv.Name(),
		"backend":    cv.Kind(),
		"primitives": out,
	})
}

// logPainter stands in for the remote paint pipeline of the legacy
// backend: paints complete asynchronously and are only observable as
// side effects.
type logPainter struct {
	log *logging.Logger
}

func (p *logPainter) Paint(canvasName string, prim canvas.Primitive) {
	p.log.Debug("painted",
		zap.String("canvas", canvasName),
		zap.String("title", prim.Object.Title()))
}

func embedPage(name string) string {
	return `<!DOCTYPE html>
<html>
<head><title>` + name + `</title></head>
<body>
<div id="view" data-canvas="` + name + `"></div>
<script>
(function poll() {
  fetch("/canvas/` + name + `/state")
    .then(function (r) { return r.json(); })
    .then(function (s) {
      document.getElementById("view").textContent =
        s.primitives.length ? s.primitives[0].title : "";
    })
    .finally(function () { setTimeout(poll, 500); });
})();
</script>
</body>
</html>`
}
