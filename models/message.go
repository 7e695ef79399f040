package models

import (
	"time"
)

// Message is an append-only chat line.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ChatRoomID     uint      `gorm:"index" json:"chat_room_id"`
	RoomName       string    `gorm:"size:255;not null" json:"room_name"`
	SenderID       uint      `json:"sender_id"`
	SenderUsername string    `gorm:"size:255;not null" json:"sender_username"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	SentAt         time.Time `gorm:"index" json:"sent_at"`
}

// GameResult is written once when a match ends with a winner.
type GameResult struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WinnerID    uint      `gorm:"index" json:"winner_id"`
	LoserID     uint      `gorm:"index" json:"loser_id"`
	WinnerScore int       `json:"winner_score"`
	LoserScore  int       `json:"loser_score"`
	CreatedAt   time.Time `json:"created_at"`
}
