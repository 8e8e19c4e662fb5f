package chathub

import (
	"log"
	"time"

	"pairgo/backend/internal/config"
	"pairgo/backend/internal/models"
)

// Group membership operations. Membership governs authorization and is
// durable; occupancy (Attach/Detach) only routes delivery. Membership
// changes are announced through the room's pub/sub channel so every node
// with attached members observes them.

// JoinGroup adds userID to the group: a membership row if they are new,
// and attachment for delivery either way.
func (s *SessionService) JoinGroup(roomID, userID string) {
	sess := s.sessionFor(roomID)
	if sess == nil || sess.room.Kind != models.RoomKindGroup {
		s.sendError(userID, models.ReasonUnavailable)
		return
	}

	existing, err := s.Storage.GetMembership(roomID, userID)
	if err != nil {
		s.sendError(userID, models.ReasonUnavailable)
		return
	}

	if existing == nil {
		n, err := s.Storage.CountMemberships(roomID)
		if err != nil {
			s.sendError(userID, models.ReasonUnavailable)
			return
		}
		if n >= config.MaxGroupMembers {
			s.sendError(userID, models.ReasonRoomFull)
			return
		}

		if err := s.Storage.SaveMembership(&models.Membership{
			RoomID:   roomID,
			UserID:   userID,
			Role:     models.RoleMember,
			JoinedAt: time.Now(),
		}); err != nil {
			s.sendError(userID, models.ReasonUnavailable)
			return
		}

		s.publishGroupEvent(roomID, models.ChatMessage{
			Type:     models.EventMemberJoined,
			RoomID:   roomID,
			TargetID: userID,
		})
	}

	s.Attach(roomID, userID)
	log.Printf("user %s joined group %s", userID, roomID)
}

// LeaveGroup removes the membership and detaches the user. The owner
// cannot leave their own group; they end it instead.
func (s *SessionService) LeaveGroup(roomID, userID string) {
	sess := s.sessionFor(roomID)
	if sess == nil || sess.room.Kind != models.RoomKindGroup {
		log.Printf("leave_group on room %s by %s is a no-op", roomID, userID)
		return
	}
	if sess.room.OwnerID == userID {
		s.sendError(userID, models.ReasonForbidden)
		return
	}

	if err := s.Storage.DeleteMembership(roomID, userID); err != nil {
		s.sendError(userID, models.ReasonUnavailable)
		return
	}
	s.Detach(roomID, userID)

	s.publishGroupEvent(roomID, models.ChatMessage{
		Type:     models.EventMemberLeft,
		RoomID:   roomID,
		TargetID: userID,
	})
}

// KickMember removes targetID from the group. Requires owner or admin;
// the owner cannot be kicked.
func (s *SessionService) KickMember(roomID, actorID, targetID string) {
	sess := s.sessionFor(roomID)
	if sess == nil || sess.room.Kind != models.RoomKindGroup {
		s.sendError(actorID, models.ReasonUnavailable)
		return
	}

	actor, err := s.Storage.GetMembership(roomID, actorID)
	if err != nil || actor == nil || !actor.CanModerate() {
		s.sendError(actorID, models.ReasonForbidden)
		return
	}
	target, err := s.Storage.GetMembership(roomID, targetID)
	if err != nil || target == nil {
		s.sendError(actorID, models.ReasonNotMember)
		return
	}
	if target.Role == models.RoleOwner {
		s.sendError(actorID, models.ReasonForbidden)
		return
	}

	if err := s.Storage.DeleteMembership(roomID, targetID); err != nil {
		s.sendError(actorID, models.ReasonUnavailable)
		return
	}
	s.Detach(roomID, targetID)

	kicked := models.ChatMessage{
		Type:     models.EventMemberKicked,
		RoomID:   roomID,
		SenderID: actorID,
		TargetID: targetID,
	}
	s.publishGroupEvent(roomID, kicked)
	// The target just lost occupancy, so tell them directly.
	s.Hub.SendToUser(targetID, kicked)
}

// PromoteAdmin raises targetID to admin. Owner only.
func (s *SessionService) PromoteAdmin(roomID, actorID, targetID string) {
	sess := s.sessionFor(roomID)
	if sess == nil || sess.room.Kind != models.RoomKindGroup {
		s.sendError(actorID, models.ReasonUnavailable)
		return
	}
	if sess.room.OwnerID != actorID {
		s.sendError(actorID, models.ReasonForbidden)
		return
	}

	target, err := s.Storage.GetMembership(roomID, targetID)
	if err != nil || target == nil {
		s.sendError(actorID, models.ReasonNotMember)
		return
	}

	if err := s.Storage.UpdateMembershipRole(roomID, targetID, models.RoleAdmin); err != nil {
		s.sendError(actorID, models.ReasonUnavailable)
		return
	}

	s.publishGroupEvent(roomID, models.ChatMessage{
		Type:     models.EventMemberPromoted,
		RoomID:   roomID,
		SenderID: actorID,
		TargetID: targetID,
	})
}

// OpenFriendChat creates-or-attaches the durable friend room between the
// caller and partnerID. Unlike random rooms the partner is not attached
// here; they attach when they open the chat themselves.
func (s *SessionService) OpenFriendChat(userID, partnerID string) {
	if partnerID == "" || partnerID == userID {
		s.sendError(userID, models.ReasonInvalidPayload)
		return
	}

	room, err := s.Storage.FindActiveFriendRoom(userID, partnerID)
	if err != nil {
		s.sendError(userID, models.ReasonUnavailable)
		return
	}
	if room == nil {
		room, err = s.createPairRoom(models.RoomKindFriend, userID, partnerID)
		if err != nil {
			s.sendError(userID, models.ReasonUnavailable)
			return
		}
	}

	s.Attach(room.RoomID, userID)
	s.Hub.SendToUser(userID, models.ChatMessage{
		Type:     models.EventFriendChatOpened,
		RoomID:   room.RoomID,
		TargetID: partnerID,
	})
}

func (s *SessionService) publishGroupEvent(roomID string, msg models.ChatMessage) {
	msg.CreatedAt = timeNow()
	if err := s.Storage.PublishEvent(roomID, msg); err != nil {
		log.Printf("publish %s for room %s: %v", msg.Type, roomID, err)
	}
}
