package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	// The gateway listens on loopback for a local front end.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamLogs handles GET /api/logs/ws. It replays the current log book and
// then forwards new entries as JSON messages until the client goes away.
func (h *Handler) StreamLogs(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", h.logger.Args("error", err))
		return
	}
	defer conn.Close()

	logs := h.pipeline.Logs()
	live, cancel := logs.Subscribe(256)
	defer cancel()

	var lastSeq uint64
	for _, entry := range logs.Entries() {
		if err := writeJSON(conn, entry); err != nil {
			return
		}
		lastSeq = entry.Seq
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case entry, ok := <-live:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeTimeout))
				return
			}
			if entry.Seq <= lastSeq {
				continue
			}
			if err := writeJSON(conn, entry); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.logger.Debug("log stream write failed", h.logger.Args("error", err))
				}
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, value any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(value)
}
