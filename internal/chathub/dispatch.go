package chathub

import (
	"log"

	"pairgo/backend/internal/models"

	"github.com/google/uuid"
)

// handleEvent routes one inbound wire envelope to its service. Unknown
// event types are answered with an explicit error so misbehaving clients
// are never silently ignored.
func (m *ManagerService) handleEvent(msg models.ChatMessage) {
	switch msg.Type {
	case models.EventHeartbeat:
		m.Presence.Heartbeat(msg.SenderID)

	case models.EventJoinQueue:
		var filter models.SearchFilter
		if msg.Filter != nil {
			filter = *msg.Filter
		}
		m.Matcher.Enqueue(msg.SenderID, filter)

	case models.EventLeaveQueue:
		m.Matcher.Dequeue(msg.SenderID)

	case models.EventSkip:
		m.Sessions.Skip(msg.RoomID, msg.SenderID)

	case models.EventEndChat:
		m.Sessions.End(msg.RoomID, msg.SenderID)

	case models.EventSendMessage, models.EventGroupMessage:
		m.Relay.Send(msg)

	case models.EventMarkRead:
		if err := m.Notifier.MarkRoomRead(msg.SenderID, msg.RoomID); err != nil {
			log.Printf("mark_read for %s: %v", msg.SenderID, err)
		}

	case models.EventBlockUser:
		m.Blocks.Block(msg.SenderID, msg.TargetID)

	case models.EventUnblockUser:
		m.Blocks.Unblock(msg.SenderID, msg.TargetID)

	case models.EventCreateGroup:
		m.Sessions.CreateGroupFor(msg.SenderID, msg.Content)

	case models.EventJoinGroup:
		m.Sessions.JoinGroup(msg.RoomID, msg.SenderID)

	case models.EventLeaveGroup:
		m.Sessions.LeaveGroup(msg.RoomID, msg.SenderID)

	case models.EventKickMember:
		m.Sessions.KickMember(msg.RoomID, msg.SenderID, msg.TargetID)

	case models.EventPromoteAdmin:
		m.Sessions.PromoteAdmin(msg.RoomID, msg.SenderID, msg.TargetID)

	case models.EventAddReaction:
		m.Relay.React(msg)

	case models.EventPinMessage:
		m.Relay.Pin(msg)

	case models.EventSetDisappear:
		m.Relay.SetDisappear(msg.RoomID, msg.SenderID, msg.DurationSec)

	case models.EventEmptyChat:
		m.Relay.EmptyChat(msg.RoomID, msg.SenderID)

	case models.EventOpenFriendChat:
		m.Sessions.OpenFriendChat(msg.SenderID, msg.TargetID)

	case models.EventFriendRequest:
		m.handleFriendRequest(msg.SenderID, msg.TargetID)

	case models.EventFriendAccept:
		m.handleFriendAccept(msg.SenderID, msg.TargetID)

	case models.EventReportPartner:
		m.handleReport(msg)

	default:
		log.Printf("unknown event %q from %s", msg.Type, msg.SenderID)
		m.SendToUser(msg.SenderID, models.ChatMessage{
			Type:   models.EventError,
			Reason: models.ReasonInvalidPayload,
		})
	}
}

func (m *ManagerService) handleReport(msg models.ChatMessage) {
	if msg.TargetID == "" || msg.TargetID == msg.SenderID {
		m.SendToUser(msg.SenderID, models.ChatMessage{
			Type:   models.EventError,
			Reason: models.ReasonInvalidPayload,
		})
		return
	}

	rep := &models.Report{
		ReportID:       uuid.New().String(),
		ReporterID:     msg.SenderID,
		ReportedUserID: msg.TargetID,
		RoomID:         msg.RoomID,
		Severity:       msg.Severity,
		Reason:         msg.Reason,
	}
	if err := m.Reports.HandleReport(rep); err != nil {
		log.Printf("report from %s: %v", msg.SenderID, err)
	}
}
