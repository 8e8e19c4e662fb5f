package models

import "time"

// Group roles, in descending privilege order.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Membership is a user's standing in a group room. It governs authorization
// (posting, kicking, pinning) and is distinct from transient room occupancy,
// which only routes delivery.
type Membership struct {
	ID       uint      `gorm:"primaryKey"`
	RoomID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_room_user"`
	UserID   string    `gorm:"type:text;not null;uniqueIndex:idx_room_user"`
	Role     string    `gorm:"type:text;not null;default:member"`
	JoinedAt time.Time
}

// CanModerate reports whether the role may kick members, pin messages or
// empty the chat.
func (m *Membership) CanModerate() bool {
	return m.Role == RoleOwner || m.Role == RoleAdmin
}
