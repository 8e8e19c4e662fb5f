package models

import "gorm.io/gorm"

// Friend request states.
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
)

// FriendRequest links two users who met in a random chat and chose to keep
// talking. An accepted request allows either side to open a durable
// friend-pair room.
type FriendRequest struct {
	gorm.Model

	FromID string `gorm:"type:text;not null;uniqueIndex:idx_from_to"`
	ToID   string `gorm:"type:text;not null;uniqueIndex:idx_from_to"`
	Status string `gorm:"type:text;not null;default:pending"`
}
