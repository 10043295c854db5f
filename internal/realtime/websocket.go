package realtime

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxInboundSize = 4 * 1024
)

// WSEndpoint upgrades requests to WebSocket subscribers. Inbound frames are
// read only to notice disconnects; the channel is push-only.
type WSEndpoint struct {
	log      *logger.Logger
	registry *Registry
	buffer   int
	upgrader websocket.Upgrader
}

func NewWSEndpoint(log *logger.Logger, registry *Registry, buffer int) *WSEndpoint {
	return &WSEndpoint{
		log:      log.With("component", "WSEndpoint"),
		registry: registry,
		buffer:   buffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (e *WSEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient("ws", e.buffer)
	e.registry.Register(client)
	e.log.Debug("websocket subscriber connected", "subscriber_id", client.ID(), "remote", r.RemoteAddr)

	go e.writePump(conn, client)
	e.readPump(conn, client)
}

func (e *WSEndpoint) readPump(conn *websocket.Conn, client *Client) {
	defer func() {
		e.registry.Unregister(client)
		_ = conn.Close()
	}()

	conn.SetReadLimit(wsMaxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				e.log.Debug("websocket read error", "subscriber_id", client.ID(), "error", err)
			}
			return
		}
	}
}

func (e *WSEndpoint) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		e.registry.Unregister(client)
		_ = conn.Close()
	}()

	for {
		select {
		case <-client.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-client.Outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				e.log.Debug("websocket write failed", "subscriber_id", client.ID(), "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
