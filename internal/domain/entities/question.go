package entities

import (
	"fmt"
	"strings"
)

// AnswerCount is the number of answer variants every question carries.
const AnswerCount = 4

// Question is a single quiz question from the question bank.
// Answers[0] is always the correct answer (storage order, not display order).
type Question struct {
	ID      int64               `json:"id"`
	Level   int                 `json:"level"`
	Text    string              `json:"text"`
	Answers [AnswerCount]string `json:"answers"`
}

// Answer returns the answer text stored in the given slot (1-4).
func (q Question) Answer(slot int) string {
	if slot < 1 || slot > AnswerCount {
		return ""
	}
	return q.Answers[slot-1]
}

// Validate checks that the question has text, a non-negative level and four distinct answers.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question %d: empty text", q.ID)
	}
	if q.Level < 0 {
		return fmt.Errorf("question %d: negative level %d", q.ID, q.Level)
	}

	seen := make(map[string]struct{}, AnswerCount)
	for i, a := range q.Answers {
		a = strings.TrimSpace(a)
		if a == "" {
			return fmt.Errorf("question %d: empty answer %d", q.ID, i+1)
		}
		if _, ok := seen[a]; ok {
			return fmt.Errorf("question %d: duplicate answer %q", q.ID, a)
		}
		seen[a] = struct{}{}
	}

	return nil
}
