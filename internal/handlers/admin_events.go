package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AnshRaj112/travelnest-backend/internal/models"
	"github.com/AnshRaj112/travelnest-backend/internal/services"
)

const (
	eventsWriteWait    = 10 * time.Second
	eventsPongWait     = 60 * time.Second
	eventsPingInterval = 25 * time.Second
)

// EventFeed delivers admin events to one listener at a time.
type EventFeed interface {
	Subscribe() (<-chan services.AdminEvent, func())
}

type connectedEvent struct {
	Type string `json:"type"`
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// AdminEvents streams new inquiries and contact messages to the admin
// dashboard over a WebSocket. Clients only receive; anything they send is
// discarded.
func (h *Handler) AdminEvents(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		h.writeError(w, r, models.NewStateConflictError("Live updates are not enabled"))
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		h.Logger.Debug("admin events upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.Events.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
	if err := conn.WriteJSON(connectedEvent{Type: "connected"}); err != nil {
		return
	}

	ticker := time.NewTicker(eventsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
