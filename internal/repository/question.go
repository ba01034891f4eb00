package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

// QuestionRepository is a read-only question bank loaded from a JSON file.
type QuestionRepository struct {
	questions []entities.Question
	byLevel   map[int][]entities.Question
}

// NewQuestionRepository loads and validates the bank at path.
func NewQuestionRepository(path string) (*QuestionRepository, error) {
	questions, err := loadQuestions(path)
	if err != nil {
		return nil, err
	}
	return NewQuestionRepositoryFrom(questions)
}

// NewQuestionRepositoryFrom builds a bank from questions already in memory.
// Questions without an ID are numbered by their position.
func NewQuestionRepositoryFrom(questions []entities.Question) (*QuestionRepository, error) {
	r := &QuestionRepository{
		questions: make([]entities.Question, 0, len(questions)),
		byLevel:   make(map[int][]entities.Question),
	}

	ids := make(map[int64]struct{}, len(questions))
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		if q.ID == 0 {
			q.ID = int64(i + 1)
		}
		if _, ok := ids[q.ID]; ok {
			return nil, fmt.Errorf("question %d: duplicate id %d", i+1, q.ID)
		}
		ids[q.ID] = struct{}{}

		r.questions = append(r.questions, q)
		r.byLevel[q.Level] = append(r.byLevel[q.Level], q)
	}

	return r, nil
}

// QuestionsAtLevel returns every question of the level.
func (r *QuestionRepository) QuestionsAtLevel(_ context.Context, level int) ([]entities.Question, error) {
	return slices.Clone(r.byLevel[level]), nil
}

// All returns the whole bank in file order.
func (r *QuestionRepository) All() []entities.Question {
	return slices.Clone(r.questions)
}

// CoversLevels reports the first level in levels with no question.
func (r *QuestionRepository) CoversLevels(levels []int) (int, bool) {
	for _, l := range levels {
		if len(r.byLevel[l]) == 0 {
			return l, false
		}
	}
	return 0, true
}

func loadQuestions(path string) ([]entities.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Questions []entities.Question `json:"questions"`
	}
	if err = json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions JSON: %w", err)
	}

	if len(wrapper.Questions) == 0 {
		return nil, fmt.Errorf("no questions in %s", path)
	}

	return wrapper.Questions, nil
}
