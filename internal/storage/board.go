package storage

import (
	"sync"
	"time"
)

// BoardMessage is the last game board shown to a user.
type BoardMessage struct {
	ChatID    int64
	MessageID int
	SentAt    time.Time
}

// BoardStorage remembers each user's latest game board so stale boards can be
// stripped of their buttons.
type BoardStorage struct {
	mu       sync.Mutex
	messages map[int64]BoardMessage
}

func NewBoardStorage() *BoardStorage {
	return &BoardStorage{
		messages: make(map[int64]BoardMessage),
	}
}

// Swap records the new board and returns the one it replaces.
func (s *BoardStorage) Swap(userID, chatID int64, messageID int) (prev BoardMessage, hadPrev bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, hadPrev = s.messages[userID]

	s.messages[userID] = BoardMessage{
		ChatID:    chatID,
		MessageID: messageID,
		SentAt:    time.Now(),
	}

	return prev, hadPrev
}
