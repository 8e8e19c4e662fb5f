package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User represents a participant, anonymous or registered.
// Identity and the premium entitlement flag are supplied by the external
// auth provider; this service only persists what the realtime core needs.
type User struct {
	ID        string         `gorm:"primaryKey" json:"id"` // anonymous UUID
	Gender    string         `json:"gender"`
	Premium   bool           `json:"premium"` // gates preference-filtered queueing
	Interests pq.StringArray `gorm:"type:text[]" json:"interests"`
	Language  string         `json:"language"`

	// Reputation and ban state maintained by the report pipeline.
	ReputationScore int
	BanLevel        int
	BanEndTime      int64
	LastBanAt       int64
}

// BeforeCreate is a GORM hook that runs before a record is inserted.
// It assigns a fresh UUID when the ID has not been set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
