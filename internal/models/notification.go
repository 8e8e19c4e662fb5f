package models

import "gorm.io/gorm"

// Notification categories written by the dispatcher.
const (
	NotificationMessage       = "message"
	NotificationMention       = "mention"
	NotificationFriendRequest = "friend_request"
	NotificationFriendAccept  = "friend_accept"
)

// Notification is a durable record of an event for later retrieval by an
// offline or inactive recipient. Connected clients additionally get a push;
// disconnected ones pull these rows on reconnect.
type Notification struct {
	gorm.Model

	RecipientID string `gorm:"type:text;not null;index"`
	Category    string `gorm:"type:text;not null"`
	ActorID     string `gorm:"type:text"`
	RoomID      string `gorm:"type:uuid;index"`
	MessageID   *uint
	Body        string `gorm:"type:text"`
	Read        bool   `gorm:"default:false;index"`
}
