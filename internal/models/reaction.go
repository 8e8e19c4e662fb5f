package models

import "time"

// Reaction is a per-(message, user) emoji upsert with toggle semantics:
// re-sending the same emoji removes the reaction, a different emoji replaces
// the stored one.
type Reaction struct {
	ID        uint      `gorm:"primaryKey"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_message_user"`
	UserID    string    `gorm:"type:text;not null;uniqueIndex:idx_message_user"`
	Emoji     string    `gorm:"type:text;not null"`
	CreatedAt time.Time
}
