package chathub

import (
	"log"

	"pairgo/backend/internal/models"
	"pairgo/backend/internal/storage"
)

// NotifierService converts session and message events into durable
// notifications for recipients who are not in the room. Connected
// recipients additionally get a push; disconnected ones pull the rows on
// reconnect through the REST surface. Read state is explicit: delivery
// never implies read.
type NotifierService struct {
	Hub      *ManagerService
	Storage  storage.Storage
	Presence *PresenceService
}

// NewNotifierService creates the dispatcher and wires it into the hub.
func NewNotifierService(hub *ManagerService, s storage.Storage, p *PresenceService) *NotifierService {
	n := &NotifierService{Hub: hub, Storage: s, Presence: p}
	hub.Notifier = n
	return n
}

// NotifyMessage records the accepted message for every participant who was
// not attached at fan-out time. Mentioned members get the mention category
// instead of the plain message one.
func (n *NotifierService) NotifyMessage(room *models.ChatRoom, msg models.ChatMessage) {
	mentioned := make(map[string]bool, len(msg.Mentions))
	for _, id := range msg.Mentions {
		mentioned[id] = true
	}

	for _, recipient := range n.recipients(room, msg.SenderID) {
		if n.Hub.Sessions.IsOccupant(room.RoomID, recipient) {
			continue // in-room delivery already happened
		}

		category := models.NotificationMessage
		if mentioned[recipient] {
			category = models.NotificationMention
		}
		n.dispatch(&models.Notification{
			RecipientID: recipient,
			Category:    category,
			ActorID:     msg.SenderID,
			RoomID:      room.RoomID,
			MessageID:   &msg.ID,
		})
	}
}

// NotifyFriendRequest records a pending friend request for the recipient.
func (n *NotifierService) NotifyFriendRequest(fromID, toID string) {
	n.dispatch(&models.Notification{
		RecipientID: toID,
		Category:    models.NotificationFriendRequest,
		ActorID:     fromID,
	})
}

// NotifyFriendAccept tells the original requester their request was
// accepted.
func (n *NotifierService) NotifyFriendAccept(acceptorID, requesterID string) {
	n.dispatch(&models.Notification{
		RecipientID: requesterID,
		Category:    models.NotificationFriendAccept,
		ActorID:     acceptorID,
	})
}

// dispatch writes the durable row, then pushes a summary to the recipient
// if they are connected and still heartbeating.
func (n *NotifierService) dispatch(notification *models.Notification) {
	if err := n.Storage.SaveNotification(notification); err != nil {
		log.Printf("save notification for %s: %v", notification.RecipientID, err)
		return
	}

	if n.Hub.ClientByID(notification.RecipientID) == nil {
		return
	}
	// A socket can outlive its user. A connection whose heartbeat window
	// lapsed is treated as gone and stays on the store-only path.
	if !n.Presence.IsAlive(notification.RecipientID) {
		return
	}

	unread, err := n.Storage.CountUnreadNotifications(notification.RecipientID)
	if err != nil {
		log.Printf("unread count for %s: %v", notification.RecipientID, err)
	}

	n.Hub.SendToUser(notification.RecipientID, models.ChatMessage{
		Type:      models.EventNotification,
		RoomID:    notification.RoomID,
		SenderID:  notification.ActorID,
		Content:   notification.Category,
		Count:     unread,
		CreatedAt: timeNow(),
	})
}

// recipients resolves the participant set of a room minus the sender.
func (n *NotifierService) recipients(room *models.ChatRoom, senderID string) []string {
	if room.IsPair() {
		if other := room.OtherParticipant(senderID); other != "" {
			return []string{other}
		}
		return nil
	}

	members, err := n.Storage.ListMemberships(room.RoomID)
	if err != nil {
		log.Printf("memberships for %s: %v", room.RoomID, err)
		return nil
	}
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m.UserID != senderID {
			out = append(out, m.UserID)
		}
	}
	return out
}

// MarkRoomRead marks every notification the user holds for the room read.
// Fired on explicit mark_read and on session reattach.
func (n *NotifierService) MarkRoomRead(userID, roomID string) error {
	return n.Storage.MarkRoomNotificationsRead(userID, roomID)
}

// MarkAllRead and ClearAll are the explicit bulk operations behind the
// REST surface.
func (n *NotifierService) MarkAllRead(userID string) error {
	return n.Storage.MarkNotificationsRead(userID)
}

func (n *NotifierService) ClearAll(userID string) error {
	return n.Storage.ClearNotifications(userID)
}
