package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"training-orchestrator/core/orchestrator"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// identity is handled upstream; the stream itself is read-only
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler pushes live job snapshots over a websocket
type StreamHandler struct {
	orch   *orchestrator.Orchestrator
	logger *zap.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(orch *orchestrator.Orchestrator, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{orch: orch, logger: logger}
}

// StreamJobs handles GET /v1/training/stream. Each transition and periodic
// tick of the active job is pushed as one JSON snapshot.
func (h *StreamHandler) StreamJobs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	snapshots, cancel := h.orch.Watch()
	defer cancel()

	// drain client frames so close/ping control messages are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pinger := time.NewTicker(30 * time.Second)
	defer pinger.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-pinger.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case job, ok := <-snapshots:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				return
			}
			if err := conn.WriteJSON(jobView(job)); err != nil {
				return
			}
		}
	}
}
