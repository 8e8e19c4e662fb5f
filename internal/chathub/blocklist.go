package chathub

import (
	"log"

	"pairgo/backend/internal/models"
	"pairgo/backend/internal/storage"
)

// BlockService maintains mutual block relations and pushes block state to
// both parties' live connections. A block never terminates the underlying
// session; it only gates delivery while it exists.
type BlockService struct {
	Hub     *ManagerService
	Storage storage.Storage
}

// NewBlockService creates the block service and wires it into the hub.
func NewBlockService(hub *ManagerService, s storage.Storage) *BlockService {
	b := &BlockService{Hub: hub, Storage: s}
	hub.Blocks = b
	return b
}

// Block records blocker→target. Idempotent: blocking twice leaves exactly
// one relation. Both live connections are told immediately so UI state
// updates without polling.
func (b *BlockService) Block(blockerID, targetID string) {
	if targetID == "" || targetID == blockerID {
		b.Hub.SendToUser(blockerID, models.ChatMessage{
			Type:   models.EventError,
			Reason: models.ReasonInvalidPayload,
		})
		return
	}

	if err := b.Storage.CreateBlock(blockerID, targetID); err != nil {
		log.Printf("block %s -> %s: %v", blockerID, targetID, err)
		b.Hub.SendToUser(blockerID, models.ChatMessage{
			Type:   models.EventError,
			Reason: models.ReasonUnavailable,
		})
		return
	}

	event := models.ChatMessage{
		Type:     models.EventUserBlocked,
		SenderID: blockerID,
		TargetID: targetID,
	}
	b.Hub.SendToUser(blockerID, event)
	b.Hub.SendToUser(targetID, event)
	log.Printf("user %s blocked %s", blockerID, targetID)
}

// Unblock removes blocker→target and restores delivery without recreating
// the session.
func (b *BlockService) Unblock(blockerID, targetID string) {
	if err := b.Storage.DeleteBlock(blockerID, targetID); err != nil {
		log.Printf("unblock %s -> %s: %v", blockerID, targetID, err)
		b.Hub.SendToUser(blockerID, models.ChatMessage{
			Type:   models.EventError,
			Reason: models.ReasonUnavailable,
		})
		return
	}

	event := models.ChatMessage{
		Type:     models.EventUserUnblocked,
		SenderID: blockerID,
		TargetID: targetID,
	}
	b.Hub.SendToUser(blockerID, event)
	b.Hub.SendToUser(targetID, event)
}

// IsBlockedBetween reports whether a relation exists between a and b in
// either direction and, if so, who owns it. Durable, so it holds across
// reconnects.
func (b *BlockService) IsBlockedBetween(a, c string) (blockedBy string, err error) {
	rel, err := b.Storage.FindBlockBetween(a, c)
	if err != nil {
		return "", err
	}
	if rel == nil {
		return "", nil
	}
	return rel.BlockerID, nil
}
