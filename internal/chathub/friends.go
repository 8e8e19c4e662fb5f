package chathub

import (
	"log"

	"pairgo/backend/internal/models"
)

// Friend requests ride the same hub surface as everything else: a send
// files a durable request and a notification; an accept flips its status
// and notifies the requester. Opening the actual friend room is a
// separate operation on SessionService.

func (m *ManagerService) handleFriendRequest(fromID, toID string) {
	if toID == "" || toID == fromID {
		m.SendToUser(fromID, models.ChatMessage{
			Type:   models.EventError,
			Reason: models.ReasonInvalidPayload,
		})
		return
	}

	// A block in either direction suppresses requests too.
	if rel, err := m.Storage.FindBlockBetween(fromID, toID); err != nil || rel != nil {
		if err != nil {
			log.Printf("friend request block check: %v", err)
		}
		m.SendToUser(fromID, models.ChatMessage{
			Type:   models.EventError,
			Reason: models.ReasonForbidden,
		})
		return
	}

	if err := m.Storage.SaveFriendRequest(&models.FriendRequest{
		FromID: fromID,
		ToID:   toID,
		Status: models.FriendRequestPending,
	}); err != nil {
		log.Printf("friend request %s -> %s: %v", fromID, toID, err)
		m.SendToUser(fromID, models.ChatMessage{
			Type:   models.EventError,
			Reason: models.ReasonUnavailable,
		})
		return
	}

	m.Notifier.NotifyFriendRequest(fromID, toID)
}

func (m *ManagerService) handleFriendAccept(acceptorID, requesterID string) {
	fr, err := m.Storage.FindFriendRequest(requesterID, acceptorID)
	if err != nil || fr == nil {
		m.SendToUser(acceptorID, models.ChatMessage{
			Type:   models.EventError,
			Reason: models.ReasonInvalidPayload,
		})
		return
	}
	if fr.Status == models.FriendRequestAccepted {
		return // accepting twice is a no-op
	}

	if err := m.Storage.AcceptFriendRequest(requesterID, acceptorID); err != nil {
		m.SendToUser(acceptorID, models.ChatMessage{
			Type:   models.EventError,
			Reason: models.ReasonUnavailable,
		})
		return
	}

	m.Notifier.NotifyFriendAccept(acceptorID, requesterID)
}
