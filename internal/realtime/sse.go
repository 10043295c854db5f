package realtime

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

const sseHeartbeatInterval = 15 * time.Second

// SSEEndpoint streams change events to server-sent-event clients.
type SSEEndpoint struct {
	log       *logger.Logger
	registry  *Registry
	buffer    int
	heartbeat time.Duration
}

func NewSSEEndpoint(log *logger.Logger, registry *Registry, buffer int) *SSEEndpoint {
	return &SSEEndpoint{
		log:       log.With("component", "SSEEndpoint"),
		registry:  registry,
		buffer:    buffer,
		heartbeat: sseHeartbeatInterval,
	}
}

// ServeHTTP registers the caller for the life of the request and writes each
// queued event as an SSE "message" frame.
func (e *SSEEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := NewClient("sse", e.buffer)
	e.registry.Register(client)
	defer e.registry.Unregister(client)

	ctx := r.Context()
	heartbeat := time.NewTicker(e.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Debug("SSE client context done", "subscriber_id", client.ID(), "err", ctx.Err())
			return
		case <-client.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case msg := <-client.Outbound:
			if err := writeSSEFrame(w, msg); err != nil {
				e.log.Debug("SSE write failed", "subscriber_id", client.ID(), "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSEFrame(w http.ResponseWriter, msg []byte) error {
	var b strings.Builder
	b.WriteString("event: message\n")
	for _, line := range strings.Split(string(msg), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	_, err := fmt.Fprint(w, b.String())
	return err
}
