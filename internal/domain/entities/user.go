package entities

import "time"

// User represents a player.
type User struct {
	ID        int64 // Telegram user ID
	ChatID    int64
	Name      string
	Balance   int64 // sum of all prizes won
	CreatedAt time.Time
}

func NewUser(id, chatID int64, name string) *User {
	return &User{
		ID:        id,
		ChatID:    chatID,
		Name:      name,
		CreatedAt: time.Now(),
	}
}
