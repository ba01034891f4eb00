package service

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

// QuestionSelector picks the questions of a new game.
type QuestionSelector struct {
	bank QuestionBank

	mu  sync.Mutex
	rng *rand.Rand
}

// NewQuestionSelector creates a new QuestionSelector. A nil rng is seeded from the clock.
func NewQuestionSelector(bank QuestionBank, rng *rand.Rand) *QuestionSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &QuestionSelector{
		bank: bank,
		rng:  rng,
	}
}

// SelectQuestions returns one position per level in ascending level order.
// Each question is drawn uniformly from its level's pool, never repeats within
// the game, and gets its own random answer permutation.
func (s *QuestionSelector) SelectQuestions(ctx context.Context, levels []int) ([]*entities.GameQuestion, error) {
	levels = slices.Clone(levels)
	slices.Sort(levels)

	used := make(map[int64]struct{}, len(levels))
	out := make([]*entities.GameQuestion, 0, len(levels))

	for _, level := range levels {
		pool, err := s.bank.QuestionsAtLevel(ctx, level)
		if err != nil {
			return nil, fmt.Errorf("questions at level %d: %w", level, err)
		}

		candidates := unusedQuestions(pool, used)
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: no unused question at level %d", entities.ErrInsufficientQuestions, level)
		}

		q, perm := s.pick(candidates)
		used[q.ID] = struct{}{}
		out = append(out, entities.NewGameQuestion(q, perm))
	}

	return out, nil
}

func (s *QuestionSelector) pick(candidates []entities.Question) (entities.Question, entities.Permutation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := candidates[s.rng.Intn(len(candidates))]
	return q, entities.NewPermutation(s.rng)
}

// unusedQuestions drops questions already picked and duplicates within the pool.
func unusedQuestions(pool []entities.Question, used map[int64]struct{}) []entities.Question {
	seen := make(map[int64]struct{}, len(pool))
	out := make([]entities.Question, 0, len(pool))
	for _, q := range pool {
		if _, ok := used[q.ID]; ok {
			continue
		}
		if _, ok := seen[q.ID]; ok {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}
