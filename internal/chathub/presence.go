package chathub

import (
	"log"

	"pairgo/backend/internal/storage"
)

// PresenceService tracks per-user liveness via periodic heartbeats stored
// as expiring Redis keys. The key's TTL is the liveness window: a user is
// alive while their last heartbeat has not expired.
type PresenceService struct {
	Storage storage.Storage
}

// NewPresenceService creates the tracker and wires it into the hub.
func NewPresenceService(hub *ManagerService, s storage.Storage) *PresenceService {
	p := &PresenceService{Storage: s}
	hub.Presence = p
	return p
}

// Heartbeat refreshes the user's liveness window.
func (p *PresenceService) Heartbeat(userID string) {
	if err := p.Storage.SetHeartbeat(userID); err != nil {
		log.Printf("heartbeat for %s: %v", userID, err)
	}
}

// IsAlive reports whether the user heartbeated within the liveness window.
func (p *PresenceService) IsAlive(userID string) bool {
	online, err := p.Storage.IsOnline(userID)
	if err != nil {
		log.Printf("presence check for %s: %v", userID, err)
		return false
	}
	return online
}
