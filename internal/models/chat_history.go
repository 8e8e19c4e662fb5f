package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Message payload kinds accepted by the relay.
const (
	ContentTypeText  = "text"
	ContentTypeImage = "image" // stable reference returned by the media upload service
)

// ChatHistory represents a persisted message in PostgreSQL.
// The embedded gorm.Model provides ID, CreatedAt, UpdatedAt, and DeletedAt;
// ID doubles as the wire-level message id and CreatedAt as the relay-assigned
// timestamp.
type ChatHistory struct {
	gorm.Model

	// RoomID is the identifier of the chat room where the message was sent.
	RoomID string `gorm:"type:uuid;not null;index:idx_room_msg"`
	// SenderID is the anonymous ID of the user who sent the message.
	SenderID string `gorm:"type:text;not null;index:idx_room_msg"`
	// Content is the message body: text, or a media reference for images.
	Content string `gorm:"type:text;not null"`
	// ContentType is one of ContentTypeText, ContentTypeImage.
	ContentType string `gorm:"type:text;not null"`
	// Metadata carries additional information, such as captions for media.
	Metadata string `gorm:"type:text"`
	// ReplyToMessageID is a reference to the message being replied to.
	// It always points into the same room.
	ReplyToMessageID *uint `gorm:"index"`
	// Mentions lists member IDs resolved from @mention tokens (group rooms).
	Mentions pq.StringArray `gorm:"type:text[]"`
	// Pinned marks a message pinned by a group owner or admin.
	Pinned   bool   `gorm:"default:false"`
	PinnedBy string `gorm:"type:text"`
}
