package models

import "time"

// Room kinds. Random and friend rooms hold a fixed pair of participants;
// group rooms resolve their participant set through Membership records.
const (
	RoomKindRandom = "random"
	RoomKindFriend = "friend"
	RoomKindGroup  = "group"
)

// ChatRoom represents a conversation context: a random pair, a friend pair
// or a group. Rooms are never physically deleted; an ended room keeps its
// terminal state so history stays queryable by reference.
type ChatRoom struct {
	// RoomID is the unique identifier for the chat room (UUID).
	RoomID string `gorm:"primaryKey" json:"room_id"`
	// Kind is one of RoomKindRandom, RoomKindFriend, RoomKindGroup.
	Kind string `gorm:"type:text;not null;index" json:"kind"`
	// User1ID and User2ID hold the fixed pair for random/friend rooms.
	// Both are empty for group rooms.
	User1ID string `json:"user1_id,omitempty"`
	User2ID string `json:"user2_id,omitempty"`
	// OwnerID is the creating user for group rooms.
	OwnerID string `json:"owner_id,omitempty"`
	// Name is the display name of a group room.
	Name string `json:"name,omitempty"`
	// IsActive indicates whether the room is still in its active state.
	IsActive bool `gorm:"index" json:"is_active"`
	// DisappearAfterSec is the disappearing-message duration in seconds.
	// Zero disables the sweeper for this room.
	DisappearAfterSec int64 `json:"disappear_after_sec"`
	// StartedAt is the timestamp when the room was created.
	StartedAt time.Time `json:"started_at"`
	// EndedAt is the timestamp when the room was closed.
	EndedAt time.Time `json:"ended_at,omitempty"`
}

// DisappearAfter returns the room's disappearing duration.
func (r *ChatRoom) DisappearAfter() time.Duration {
	return time.Duration(r.DisappearAfterSec) * time.Second
}

// IsPair reports whether the room holds a fixed two-user participant set.
func (r *ChatRoom) IsPair() bool {
	return r.Kind == RoomKindRandom || r.Kind == RoomKindFriend
}

// OtherParticipant returns the partner of userID in a pair room.
func (r *ChatRoom) OtherParticipant(userID string) string {
	if r.User1ID == userID {
		return r.User2ID
	}
	if r.User2ID == userID {
		return r.User1ID
	}
	return ""
}

// HasParticipant reports whether userID is one of the fixed pair.
func (r *ChatRoom) HasParticipant(userID string) bool {
	return userID != "" && (r.User1ID == userID || r.User2ID == userID)
}
