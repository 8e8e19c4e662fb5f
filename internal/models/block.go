package models

import "time"

// BlockRelation is a directed block owned by the blocker. Delivery gating is
// symmetric: a relation in either direction suppresses messages between the
// two users, but the row itself records who created it.
type BlockRelation struct {
	ID        uint      `gorm:"primaryKey"`
	BlockerID string    `gorm:"type:text;not null;uniqueIndex:idx_blocker_blocked"`
	BlockedID string    `gorm:"type:text;not null;uniqueIndex:idx_blocker_blocked"`
	CreatedAt time.Time
}
