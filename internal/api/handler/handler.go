package handler

import (
	"pairgo/backend/internal/chathub"
	"pairgo/backend/internal/storage"
)

// Handler carries the HTTP surface's dependencies: the hub for realtime
// registration and the storage facade for the pull-on-reconnect endpoints.
type Handler struct {
	Hub       *chathub.ManagerService
	Storage   storage.Storage
	JWTSecret []byte
}

func NewHandler(hub *chathub.ManagerService, s storage.Storage, jwtSecret []byte) *Handler {
	return &Handler{Hub: hub, Storage: s, JWTSecret: jwtSecret}
}
