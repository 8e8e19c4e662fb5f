package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetRoomHistory returns the surviving message rows for a room the caller
// participates in. Swept and emptied messages are gone from the store, so
// reconnecting clients converge on the post-eviction view automatically.
func (h *Handler) GetRoomHistory(c *gin.Context) {
	anonID, ok := h.bearerAnonID(c)
	if !ok {
		return
	}
	roomID := c.Param("roomId")

	room, err := h.Storage.GetRoomByID(roomID)
	if err != nil || room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	allowed := room.HasParticipant(anonID)
	if !allowed && !room.IsPair() {
		member, err := h.Storage.GetMembership(roomID, anonID)
		allowed = err == nil && member != nil
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a participant of this room"})
		return
	}

	history, err := h.Storage.GetChatHistory(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"room_id": roomID, "messages": history})
}

// ListNotifications returns the caller's notification rows, newest first.
// ?unread=true narrows to unread ones.
func (h *Handler) ListNotifications(c *gin.Context) {
	anonID, ok := h.bearerAnonID(c)
	if !ok {
		return
	}

	unreadOnly := c.Query("unread") == "true"
	rows, err := h.Storage.ListNotifications(anonID, unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}

	unread, err := h.Storage.CountUnreadNotifications(anonID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": rows, "unread": unread})
}

// MarkNotificationsRead marks all of the caller's notifications read, or
// only the ones for a single room when ?room_id= is given.
func (h *Handler) MarkNotificationsRead(c *gin.Context) {
	anonID, ok := h.bearerAnonID(c)
	if !ok {
		return
	}

	var err error
	if roomID := c.Query("room_id"); roomID != "" {
		err = h.Hub.Notifier.MarkRoomRead(anonID, roomID)
	} else {
		err = h.Hub.Notifier.MarkAllRead(anonID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ClearNotifications deletes all of the caller's notification rows.
func (h *Handler) ClearNotifications(c *gin.Context) {
	anonID, ok := h.bearerAnonID(c)
	if !ok {
		return
	}

	if err := h.Hub.Notifier.ClearAll(anonID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
