package models

import (
	"time"
)

// ChatRoom is a named chat channel. DMs are private rooms with a derived name.
type ChatRoom struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Private   bool      `gorm:"not null;default:false" json:"private"`
	Password  string    `gorm:"size:255" json:"-"`
	DM        bool      `gorm:"not null;default:false" json:"dm"`
	CreatedAt time.Time `json:"created_at"`
}

// HasPassword reports whether joining requires a password.
func (r *ChatRoom) HasPassword() bool {
	return r.Password != ""
}

// RoomPatch is a partial update of a ChatRoom. Nil fields are left unchanged.
type RoomPatch struct {
	Private  *bool
	Password *string
}
