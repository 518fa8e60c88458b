package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"datalens/domain/core"
	"datalens/domain/notify"
	"datalens/internal"

	"github.com/gin-gonic/gin"
)

// DefaultKeepAlive is the ping interval of idle streams
const DefaultKeepAlive = 30 * time.Second

// SSEHub fans notifications out to the Server-Sent Event streams of each
// session. It implements ports.Notifier.
type SSEHub struct {
	clients   map[core.SessionID]map[chan notify.Notification]bool
	clientsMu sync.RWMutex
	broadcast chan notify.Notification
	done      chan struct{}
	closeOnce sync.Once
	keepAlive time.Duration
	logger    *internal.Logger
}

// NewSSEHub creates a hub and starts its delivery loop
func NewSSEHub(logger *internal.Logger) *SSEHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	hub := &SSEHub{
		clients:   make(map[core.SessionID]map[chan notify.Notification]bool),
		broadcast: make(chan notify.Notification, 100),
		done:      make(chan struct{}),
		keepAlive: DefaultKeepAlive,
		logger:    logger,
	}

	go hub.run()
	return hub
}

// run delivers queued notifications until Close
func (h *SSEHub) run() {
	for {
		select {
		case <-h.done:
			return
		case n := <-h.broadcast:
			h.clientsMu.RLock()
			for clientChan := range h.clients[n.SessionID] {
				select {
				case clientChan <- n:
				default:
					h.logger.Warn("[SSE] client channel full for session %s, skipping notification", n.SessionID)
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// Notify queues a notification for the streams of its session
func (h *SSEHub) Notify(_ context.Context, n notify.Notification) {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	select {
	case h.broadcast <- n:
	case <-h.done:
	default:
		h.logger.Warn("[SSE] broadcast channel full, dropping %s notification %q", n.Level, n.Title)
	}
}

// Subscribe registers a stream for sessionID. The returned function
// unregisters it and closes the channel.
func (h *SSEHub) Subscribe(sessionID core.SessionID) (<-chan notify.Notification, func()) {
	ch := make(chan notify.Notification, 10)

	h.clientsMu.Lock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[chan notify.Notification]bool)
	}
	h.clients[sessionID][ch] = true
	h.logger.Debug("[SSE] client registered for session %s (total clients: %d)", sessionID, len(h.clients[sessionID]))
	h.clientsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.clientsMu.Lock()
			defer h.clientsMu.Unlock()
			if clients, ok := h.clients[sessionID]; ok {
				delete(clients, ch)
				if len(clients) == 0 {
					delete(h.clients, sessionID)
				}
			}
			close(ch)
		})
	}
}

// HandleSSE streams the notifications of the session named by the :id path
// parameter, or the session_id query parameter.
func (h *SSEHub) HandleSSE(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		sessionID = c.Query("session_id")
	}
	id, err := core.ParseSessionID(sessionID)
	if err != nil {
		c.JSON(400, gin.H{"error": "session_id parameter required"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// streams outlive the server write timeout
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	events, unsubscribe := h.Subscribe(id)
	defer unsubscribe()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case n, ok := <-events:
			if !ok {
				return false
			}
			payload, err := json.Marshal(n)
			if err != nil {
				h.logger.Error("[SSE] failed to marshal notification: %v", err)
				return true
			}
			c.SSEvent("notification", string(payload))
			return true

		case <-time.After(h.keepAlive):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false

		case <-h.done:
			return false
		}
	})
}

// GetActiveSessions returns sessions with active SSE clients
func (h *SSEHub) GetActiveSessions() []core.SessionID {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	sessions := make([]core.SessionID, 0, len(h.clients))
	for sessionID := range h.clients {
		sessions = append(sessions, sessionID)
	}
	return sessions
}

// GetClientCount returns the number of active clients for a session
func (h *SSEHub) GetClientCount(sessionID core.SessionID) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[sessionID])
}

// Close stops delivery and ends every open stream
func (h *SSEHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
