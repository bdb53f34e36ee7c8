package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"pdfqa/internal/session"
	"pdfqa/internal/transport/http/response"
)

const maxStreamMessageSize = 64 << 10

// StreamHandler exposes the persistent QA channel: an SSE connection for
// server-to-client delivery plus a message endpoint for the inbound leg.
// The session layer itself is transport-agnostic; this is just one binding.
type StreamHandler struct {
	sessions *session.Manager
}

func NewStreamHandler(sessions *session.Manager) *StreamHandler {
	return &StreamHandler{sessions: sessions}
}

// sseConn adapts one SSE response stream to the session.Conn seam.
type sseConn struct {
	mu      sync.Mutex
	writer  http.ResponseWriter
	flusher http.Flusher
	done    chan struct{}
	once    sync.Once
}

func newSSEConn(w http.ResponseWriter) (*sseConn, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &sseConn{writer: w, flusher: flusher, done: make(chan struct{})}, nil
}

func (c *sseConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return errors.New("connection closed")
	default:
	}
	if _, err := fmt.Fprintf(c.writer, "data: %s\n\n", payload); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

func (c *sseConn) Close(reason string) error {
	c.once.Do(func() {
		// done must close under mu so no Send that already passed its done
		// check can write after Close returns the stream to the server.
		c.mu.Lock()
		defer c.mu.Unlock()
		if reason != "" {
			fmt.Fprintf(c.writer, "event: close\ndata: {\"error\":%q}\n\n", reason)
			c.flusher.Flush()
		}
		close(c.done)
	})
	return nil
}

// Connect opens the event stream, registers a session and blocks until
// either side closes. The first event carries the assigned client id.
func (h *StreamHandler) Connect(c *gin.Context) {
	conn, err := newSSEConn(c.Writer)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, err.Error())
		return
	}

	s, err := h.sessions.Connect(conn)
	if err != nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeInternalServer, "server shutting down")
		return
	}
	if err := conn.Send([]byte(fmt.Sprintf(`{"client_id":%q}`, s.ClientID))); err != nil {
		h.sessions.Disconnect(s.ClientID)
		return
	}

	select {
	case <-c.Request.Context().Done():
		h.sessions.Disconnect(s.ClientID)
	case <-conn.done:
	}
}

// Message feeds one inbound frame into the session identified by client_id.
func (h *StreamHandler) Message(c *gin.Context) {
	clientID := c.Param("client_id")
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxStreamMessageSize))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read message failed")
		return
	}

	switch err := h.sessions.HandleMessage(clientID, raw); {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	case errors.Is(err, session.ErrSessionUnknown), errors.Is(err, session.ErrSessionClosed):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, "unknown or closed session")
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "message handling failed")
	}
}
