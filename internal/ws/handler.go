package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/objbrowse/backend/internal/logging"
	"github.com/objbrowse/backend/internal/monitoring"
	"github.com/objbrowse/backend/internal/session"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Embedding page may be served from another origin
	},
}

// Handler upgrades the browser route to a websocket and feeds inbound
// messages to the session controller. It also implements
// session.Transport for outbound sends.
//
// Single-connection policy: a new connection replaces the previous one.
// The superseded socket is closed; sends addressed to it are dropped.
type Handler struct {
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu     sync.Mutex
	connID string
	conn   *websocket.Conn

	ctrl *session.Controller
}

// NewHandler creates a handler. Bind the controller before serving.
func NewHandler(log *logging.Logger, metrics *monitoring.Metrics) *Handler {
	return &Handler{log: log, metrics: metrics}
}

// Bind attaches the session controller. Separate from the constructor
// because the controller needs the handler as its transport.
func (h *Handler) Bind(ctrl *session.Controller) {
	h.ctrl = ctrl
}

// HandleConnection handles the websocket upgrade and the read loop.
// Messages are processed one at a time in arrival order.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.NewString()
	h.attach(connID, conn)
	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
	}
	h.log.Info("client connected", zap.String("conn", connID))

	h.ctrl.OnConnect(connID)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		h.ctrl.OnMessage(connID, string(data))
	}

	h.ctrl.OnDisconnect(connID)
	h.detach(connID)
	if h.metrics != nil {
		h.metrics.WSConnections.Dec()
	}
	h.log.Info("client disconnected", zap.String("conn", connID))
	conn.Close()
}

// Send writes a text message to the connection. Sends to a superseded
// or closed connection fail without affecting session state.
func (h *Handler) Send(connID, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil || h.connID != connID {
		return errStaleConnection
	}
	return h.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// attach installs the connection, closing any previous one so its read
// loop unwinds.
func (h *Handler) attach(connID string, conn *websocket.Conn) {
	h.mu.Lock()
	prev := h.conn
	h.connID = connID
	h.conn = conn
	h.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
}

func (h *Handler) detach(connID string) {
	h.mu.Lock()
	if h.connID == connID {
		h.connID = ""
		h.conn = nil
	}
	h.mu.Unlock()
}
