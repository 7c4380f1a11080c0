package hub

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/wsproto"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection, registers it, and runs its read
// and write halves until the connection closes.
func (h *Hub) ServeWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.NewString()
	send := h.registry.Register(connID)

	go h.writeLoop(connID, conn, send)
	h.readLoop(connID, conn)
}

func (h *Hub) writeLoop(connID string, conn *websocket.Conn, send <-chan []byte) {
	for payload := range send {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn("failed to write to node connection", zap.String("conn_id", connID), zap.Error(err))
			return
		}
	}
}

func (h *Hub) readLoop(connID string, conn *websocket.Conn) {
	defer conn.Close()
	defer h.registry.Remove(connID)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType == websocket.CloseMessage {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		kind, _, batch := wsproto.ParseFrame(data)
		switch kind {
		case wsproto.FrameStatsBatch:
			h.IngestStats(batch)
		case wsproto.FrameDone:
			h.NodeDone(connID)
		default:
			h.log.Debug("ignoring frame from node", zap.String("conn_id", connID))
		}
	}
}
