package models

import "time"

// Client-to-server event types.
const (
	EventJoinQueue      = "join_queue"
	EventLeaveQueue     = "leave_queue"
	EventSkip           = "skip"
	EventEndChat        = "end_chat"
	EventSendMessage    = "send_message"
	EventGroupMessage   = "group_message" // legacy alias, routed like send_message
	EventMarkRead       = "mark_read"
	EventBlockUser      = "block_user"
	EventUnblockUser    = "unblock_user"
	EventCreateGroup    = "create_group"
	EventJoinGroup      = "join_group"
	EventLeaveGroup     = "leave_group"
	EventAddReaction    = "add_reaction"
	EventPinMessage     = "pin_message"
	EventKickMember     = "kick_member"
	EventPromoteAdmin   = "promote_admin"
	EventSetDisappear   = "set_disappear"
	EventEmptyChat      = "empty_chat"
	EventOpenFriendChat = "open_friend_chat"
	EventFriendRequest  = "friend_request"
	EventFriendAccept   = "friend_accept"
	EventReportPartner  = "report_partner"
	EventHeartbeat      = "heartbeat"
)

// Server-to-client event types.
const (
	EventMatched          = "matched"
	EventMatchTimeout     = "match_timeout"
	EventQueueRejected    = "queue_rejected"
	EventPartnerSkipped   = "partner_skipped"
	EventPartnerLeft      = "partner_left"
	EventChatEnded        = "chat_ended"
	EventMessage          = "message"
	EventMessageRejected  = "message_rejected"
	EventUserBlocked      = "user_blocked"
	EventUserUnblocked    = "user_unblocked"
	EventReaction         = "reaction"
	EventGroupCreated     = "group_created"
	EventMemberJoined     = "member_joined"
	EventMemberLeft       = "member_left"
	EventMemberKicked     = "member_kicked"
	EventMemberPromoted   = "member_promoted"
	EventMessagePinned    = "message_pinned"
	EventMessagesSwept    = "messages_swept"
	EventChatEmptied      = "chat_emptied"
	EventNotification     = "notification"
	EventFriendChatOpened = "friend_chat_opened"
	EventDisappearChanged = "disappear_changed"
	EventError            = "error"
)

// Policy-violation and state reason codes carried in the Reason field.
// Rejections are always explicit so the UI can explain why.
const (
	ReasonBlockedByPartner    = "blocked_by_partner"
	ReasonYouBlockedPartner   = "you_blocked_partner"
	ReasonNotOccupant         = "not_occupant"
	ReasonNotMember           = "not_member"
	ReasonForbidden           = "forbidden"
	ReasonInvalidPayload      = "invalid_payload"
	ReasonReplyNotFound       = "reply_not_found"
	ReasonBanned              = "banned"
	ReasonEntitlementRequired = "entitlement_required"
	ReasonRoomFull            = "room_full"
	ReasonUnavailable         = "unavailable"
)

// ChatMessage is the wire envelope exchanged over the realtime transport.
// A single flat structure serves both directions; unused fields are omitted
// from the JSON encoding.
type ChatMessage struct {
	ID               uint          `json:"id,omitempty"` // persisted message id
	Type             string        `json:"type"`
	RoomID           string        `json:"room_id,omitempty"`
	SenderID         string        `json:"sender_id,omitempty"`
	TargetID         string        `json:"target_id,omitempty"` // partner/block/kick target
	Content          string        `json:"content,omitempty"`
	ContentType      string        `json:"content_type,omitempty"`
	Metadata         string        `json:"metadata,omitempty"`
	ReplyToMessageID *uint         `json:"reply_to_message_id,omitempty"`
	Mentions         []string      `json:"mentions,omitempty"`
	Emoji            string        `json:"emoji,omitempty"`
	MessageID        uint          `json:"message_id,omitempty"` // reaction/pin/reply target
	Reason           string        `json:"reason,omitempty"`
	Severity         string        `json:"severity,omitempty"` // report severity
	Count            int64         `json:"count,omitempty"`    // swept / unread counts
	DurationSec      int64         `json:"duration_sec,omitempty"`
	Filter           *SearchFilter `json:"filter,omitempty"`
	CreatedAt        time.Time     `json:"created_at,omitempty"`
}

// SearchFilter expresses a queue preference: an optional gender constraint
// plus a flag allowing promotion to unfiltered search after waiting.
type SearchFilter struct {
	Gender           string `json:"gender,omitempty"`
	FallbackToRandom bool   `json:"fallback_to_random,omitempty"`
}

// Active reports whether the filter constrains candidate partners at all.
func (f *SearchFilter) Active() bool {
	return f != nil && f.Gender != ""
}

// Accepts reports whether a candidate with the given gender satisfies the
// filter. An inactive filter accepts anyone.
func (f *SearchFilter) Accepts(gender string) bool {
	return !f.Active() || f.Gender == gender
}

// SearchRequest is a user's pending request to be matched with a random
// partner. At most one exists per user; a duplicate enqueue replaces the
// earlier one.
type SearchRequest struct {
	UserID     string
	Gender     string // the requester's own gender, used by the other side's filter
	Filter     SearchFilter
	EnqueuedAt time.Time
	// Promoted is set once the fallback threshold elapses and the entry
	// starts accepting any compatible partner regardless of its filter.
	Promoted bool
}
