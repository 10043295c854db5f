package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/catalog-backend/internal/realtime"
)

type RealtimeHandler struct {
	ws  *realtime.WSEndpoint
	sse *realtime.SSEEndpoint
}

func NewRealtimeHandler(ws *realtime.WSEndpoint, sse *realtime.SSEEndpoint) *RealtimeHandler {
	return &RealtimeHandler{ws: ws, sse: sse}
}

// GET /ws/v1/items
func (h *RealtimeHandler) WebSocket(c *gin.Context) {
	h.ws.ServeHTTP(c.Writer, c.Request)
}

// GET /api/sse/stream
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	h.sse.ServeHTTP(c.Writer, c.Request)
}
