package chathub

import (
	"log"
	"strings"
	"time"

	"pairgo/backend/internal/config"
	"pairgo/backend/internal/models"
	"pairgo/backend/internal/storage"
)

// RelayService validates, timestamps, durably stores and fans out
// messages. Fan-out goes through the room's pub/sub channel so every node
// with occupants delivers it; persistence happens first, so an offline
// recipient still finds the message in history.
type RelayService struct {
	Hub     *ManagerService
	Storage storage.Storage
}

// NewRelayService creates the relay and wires it into the hub.
func NewRelayService(hub *ManagerService, s storage.Storage) *RelayService {
	r := &RelayService{Hub: hub, Storage: s}
	hub.Relay = r
	return r
}

// timeNow is the relay's timestamp source: UTC, millisecond precision.
func timeNow() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}

// Send runs the full accept path for one message. Policy violations are
// rejected with a specific reason; sends into unknown or ended rooms are
// no-ops since termination races are expected.
func (r *RelayService) Send(msg models.ChatMessage) {
	room, ok := r.Hub.Sessions.Room(msg.RoomID)
	if !ok {
		log.Printf("send into unknown or ended room %s by %s is a no-op", msg.RoomID, msg.SenderID)
		return
	}

	if !r.Hub.Sessions.IsOccupant(msg.RoomID, msg.SenderID) {
		r.reject(msg, models.ReasonNotOccupant)
		return
	}

	if room.Kind == models.RoomKindGroup {
		member, err := r.Storage.GetMembership(msg.RoomID, msg.SenderID)
		if err != nil {
			r.reject(msg, models.ReasonUnavailable)
			return
		}
		if member == nil {
			r.reject(msg, models.ReasonNotMember)
			return
		}
	}

	if room.IsPair() {
		if reason := r.blockReason(room, msg.SenderID); reason != "" {
			r.reject(msg, reason)
			return
		}
	}

	if !validPayload(&msg) {
		r.reject(msg, models.ReasonInvalidPayload)
		return
	}

	if msg.ReplyToMessageID != nil {
		ref, err := r.Storage.FindHistoryByID(*msg.ReplyToMessageID)
		if err != nil {
			r.reject(msg, models.ReasonUnavailable)
			return
		}
		if ref == nil || ref.RoomID != msg.RoomID {
			r.reject(msg, models.ReasonReplyNotFound)
			return
		}
	}

	if room.Kind == models.RoomKindGroup {
		mentions, err := r.resolveMentions(msg.RoomID, msg.Content)
		if err != nil {
			r.reject(msg, models.ReasonUnavailable)
			return
		}
		msg.Mentions = mentions
	}

	// Assign-timestamp-then-fan-out is a single critical section per
	// session: all occupants observe the same order.
	sess := r.Hub.Sessions.sessionFor(msg.RoomID)
	if sess == nil {
		log.Printf("room %s ended during send by %s", msg.RoomID, msg.SenderID)
		return
	}

	sess.sendMu.Lock()
	msg.Type = models.EventMessage
	msg.CreatedAt = timeNow()
	if err := r.Storage.SaveMessage(&msg); err != nil {
		sess.sendMu.Unlock()
		r.reject(msg, models.ReasonUnavailable)
		return
	}
	err := r.Storage.PublishEvent(msg.RoomID, msg)
	sess.sendMu.Unlock()

	if err != nil {
		// Persisted but not fanned out; receivers reconcile from history.
		log.Printf("publish message %d for room %s: %v", msg.ID, msg.RoomID, err)
	}

	r.Hub.Notifier.NotifyMessage(room, msg)
}

// blockReason maps the directional block relation between the sender and
// their partner to the rejection the sender should see. Gating is
// symmetric even though the relation is owned by the blocker.
func (r *RelayService) blockReason(room *models.ChatRoom, senderID string) string {
	other := room.OtherParticipant(senderID)
	if other == "" {
		return models.ReasonNotOccupant
	}

	rel, err := r.Storage.FindBlockBetween(senderID, other)
	if err != nil {
		return models.ReasonUnavailable
	}
	if rel == nil {
		return ""
	}
	if rel.BlockerID == senderID {
		return models.ReasonYouBlockedPartner
	}
	return models.ReasonBlockedByPartner
}

func validPayload(msg *models.ChatMessage) bool {
	if msg.ContentType == "" {
		msg.ContentType = models.ContentTypeText
	}
	if msg.ContentType != models.ContentTypeText && msg.ContentType != models.ContentTypeImage {
		return false
	}
	if msg.Content == "" || len(msg.Content) > config.MaxMessageLength {
		return false
	}
	return true
}

// resolveMentions extracts @tokens and keeps only those naming a current
// member. Unknown mentions are dropped silently.
func (r *RelayService) resolveMentions(roomID, content string) ([]string, error) {
	if !strings.Contains(content, "@") {
		return nil, nil
	}

	members, err := r.Storage.ListMemberships(roomID)
	if err != nil {
		return nil, err
	}
	memberSet := make(map[string]bool, len(members))
	for _, m := range members {
		memberSet[m.UserID] = true
	}

	var mentions []string
	seen := make(map[string]bool)
	for _, field := range strings.Fields(content) {
		if !strings.HasPrefix(field, "@") {
			continue
		}
		id := strings.TrimRight(strings.TrimPrefix(field, "@"), ".,!?:;")
		if memberSet[id] && !seen[id] {
			mentions = append(mentions, id)
			seen[id] = true
		}
	}
	return mentions, nil
}

func (r *RelayService) reject(msg models.ChatMessage, reason string) {
	log.Printf("message from %s to room %s rejected: %s", msg.SenderID, msg.RoomID, reason)
	r.Hub.SendToUser(msg.SenderID, models.ChatMessage{
		Type:      models.EventMessageRejected,
		RoomID:    msg.RoomID,
		Reason:    reason,
		Content:   msg.Content,
		CreatedAt: timeNow(),
	})
}

// React toggles the sender's reaction on a message. Group rooms only.
// Re-sending the stored emoji removes it; a different emoji replaces it.
func (r *RelayService) React(msg models.ChatMessage) {
	room, ok := r.Hub.Sessions.Room(msg.RoomID)
	if !ok || room.Kind != models.RoomKindGroup {
		r.sendError(msg.SenderID, models.ReasonInvalidPayload)
		return
	}
	if msg.MessageID == 0 || msg.Emoji == "" {
		r.sendError(msg.SenderID, models.ReasonInvalidPayload)
		return
	}

	member, err := r.Storage.GetMembership(msg.RoomID, msg.SenderID)
	if err != nil || member == nil {
		r.sendError(msg.SenderID, models.ReasonNotMember)
		return
	}

	target, err := r.Storage.FindHistoryByID(msg.MessageID)
	if err != nil || target == nil || target.RoomID != msg.RoomID {
		r.sendError(msg.SenderID, models.ReasonReplyNotFound)
		return
	}

	existing, err := r.Storage.FindReaction(msg.MessageID, msg.SenderID)
	if err != nil {
		r.sendError(msg.SenderID, models.ReasonUnavailable)
		return
	}

	removed := existing != nil && existing.Emoji == msg.Emoji
	if removed {
		err = r.Storage.DeleteReaction(msg.MessageID, msg.SenderID)
	} else {
		err = r.Storage.SaveReaction(&models.Reaction{
			MessageID: msg.MessageID,
			UserID:    msg.SenderID,
			Emoji:     msg.Emoji,
		})
	}
	if err != nil {
		r.sendError(msg.SenderID, models.ReasonUnavailable)
		return
	}

	event := models.ChatMessage{
		Type:      models.EventReaction,
		RoomID:    msg.RoomID,
		SenderID:  msg.SenderID,
		MessageID: msg.MessageID,
		Emoji:     msg.Emoji,
		CreatedAt: timeNow(),
	}
	if removed {
		event.Metadata = "removed"
	}
	if err := r.Storage.PublishEvent(msg.RoomID, event); err != nil {
		log.Printf("publish reaction for room %s: %v", msg.RoomID, err)
	}
}

// Pin marks a message pinned. Group owner or admin only.
func (r *RelayService) Pin(msg models.ChatMessage) {
	room, ok := r.Hub.Sessions.Room(msg.RoomID)
	if !ok || room.Kind != models.RoomKindGroup {
		r.sendError(msg.SenderID, models.ReasonInvalidPayload)
		return
	}

	member, err := r.Storage.GetMembership(msg.RoomID, msg.SenderID)
	if err != nil || member == nil || !member.CanModerate() {
		r.sendError(msg.SenderID, models.ReasonForbidden)
		return
	}

	target, err := r.Storage.FindHistoryByID(msg.MessageID)
	if err != nil || target == nil || target.RoomID != msg.RoomID {
		r.sendError(msg.SenderID, models.ReasonReplyNotFound)
		return
	}

	if err := r.Storage.SetMessagePinned(msg.MessageID, msg.SenderID); err != nil {
		r.sendError(msg.SenderID, models.ReasonUnavailable)
		return
	}

	if err := r.Storage.PublishEvent(msg.RoomID, models.ChatMessage{
		Type:      models.EventMessagePinned,
		RoomID:    msg.RoomID,
		SenderID:  msg.SenderID,
		MessageID: msg.MessageID,
		CreatedAt: timeNow(),
	}); err != nil {
		log.Printf("publish pin for room %s: %v", msg.RoomID, err)
	}
}

// EmptyChat is the privileged, irreversible bulk delete of a room's
// messages: either party for pair rooms, owner or admin for groups.
func (r *RelayService) EmptyChat(roomID, userID string) {
	room, ok := r.Hub.Sessions.Room(roomID)
	if !ok {
		log.Printf("empty_chat on room %s by %s is a no-op", roomID, userID)
		return
	}

	if room.IsPair() {
		if !room.HasParticipant(userID) {
			r.sendError(userID, models.ReasonForbidden)
			return
		}
	} else {
		member, err := r.Storage.GetMembership(roomID, userID)
		if err != nil || member == nil || !member.CanModerate() {
			r.sendError(userID, models.ReasonForbidden)
			return
		}
	}

	count, err := r.Storage.DeleteRoomMessages(roomID)
	if err != nil {
		r.sendError(userID, models.ReasonUnavailable)
		return
	}

	if err := r.Storage.PublishEvent(roomID, models.ChatMessage{
		Type:      models.EventChatEmptied,
		RoomID:    roomID,
		SenderID:  userID,
		Count:     count,
		CreatedAt: timeNow(),
	}); err != nil {
		log.Printf("publish chat_emptied for room %s: %v", roomID, err)
	}
	log.Printf("room %s emptied by %s (%d messages)", roomID, userID, count)
}

// SetDisappear updates a group room's disappearing duration. Owner only.
// Already-stored messages are not deleted faster than the next sweep tick;
// the sweeper remains the sole eviction authority.
func (r *RelayService) SetDisappear(roomID, userID string, seconds int64) {
	room, ok := r.Hub.Sessions.Room(roomID)
	if !ok || room.Kind != models.RoomKindGroup {
		r.sendError(userID, models.ReasonInvalidPayload)
		return
	}
	if room.OwnerID != userID {
		r.sendError(userID, models.ReasonForbidden)
		return
	}
	if seconds < config.MinGroupDisappearSeconds {
		r.sendError(userID, models.ReasonInvalidPayload)
		return
	}

	if err := r.Storage.SetRoomDisappear(roomID, seconds); err != nil {
		r.sendError(userID, models.ReasonUnavailable)
		return
	}
	room.DisappearAfterSec = seconds

	if err := r.Storage.PublishEvent(roomID, models.ChatMessage{
		Type:        models.EventDisappearChanged,
		RoomID:      roomID,
		SenderID:    userID,
		DurationSec: seconds,
		CreatedAt:   timeNow(),
	}); err != nil {
		log.Printf("publish disappear_changed for room %s: %v", roomID, err)
	}
}

func (r *RelayService) sendError(userID, reason string) {
	r.Hub.SendToUser(userID, models.ChatMessage{
		Type:   models.EventError,
		Reason: reason,
	})
}
