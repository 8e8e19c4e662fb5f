package handler

import (
	"net/http"

	"pairgo/backend/internal/chathub"
	"pairgo/backend/internal/config"
	"pairgo/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the HTTP connection and registers the client
// with the hub. Token validation happens before the upgrade so a bad
// token costs one plain HTTP round trip, not a socket.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	anonID, ok := h.bearerAnonID(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := &chathub.WebSocketClient{
		Hub:      h.Hub,
		UserID:   anonID,
		Language: c.Query("lang"),
		Conn:     conn,
		Send:     make(chan models.ChatMessage, config.SendChannelBuffer),
	}

	h.Hub.RegisterCh <- client
	client.Run()
}
