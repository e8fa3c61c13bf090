package webapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// streamRun upgrades the connection to a websocket and pushes periodic
// RunSnapshot updates until the run finishes or the client disconnects.
func (s *Server) streamRun(c *gin.Context) {
	run, ok := s.lookupRun(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Printf("webapi: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Drain and discard anything the client sends; this stream is
	// server-push only, but we still need to notice a client-initiated
	// close so the read loop can signal the write loop to stop.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	if err := s.sendSnapshot(conn, run); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			if err := s.sendSnapshot(conn, run); err != nil {
				return
			}
			if run.isDone() {
				return
			}
		}
	}
}

func (s *Server) sendSnapshot(conn wsConn, run *Run) error {
	payload, err := json.Marshal(run.snapshot())
	if err != nil {
		return err
	}
	return conn.WriteMessage(1, payload) // 1 = websocket.TextMessage
}

// wsConn narrows *websocket.Conn to the one method sendSnapshot needs,
// keeping the write path trivially testable.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
}
