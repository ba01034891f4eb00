package service

import (
	"context"
	"time"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

// QuestionBank supplies candidate questions by level.
type QuestionBank interface {
	QuestionsAtLevel(ctx context.Context, level int) ([]entities.Question, error)
}

type GameRepository interface {
	// Create stores a new game with its positions and assigns their IDs.
	Create(ctx context.Context, game *entities.Game) error
	GetByID(ctx context.Context, gameID int64) (*entities.Game, error)
	// GetForUpdate loads a game and locks it until the transaction ends.
	GetForUpdate(ctx context.Context, gameID int64) (*entities.Game, error)
	GetInProgressByUserID(ctx context.Context, userID int64) (*entities.Game, error)
	// ListByUserID returns the user's games newest first.
	ListByUserID(ctx context.Context, userID int64, limit int) ([]*entities.Game, error)
	// ListExpiredIDs returns in-progress games created before the cutoff.
	ListExpiredIDs(ctx context.Context, createdBefore time.Time, limit int) ([]int64, error)
	// Update saves progress fields and any help results not yet stored.
	Update(ctx context.Context, game *entities.Game) error
}

type UserRepository interface {
	Save(ctx context.Context, user *entities.User) (bool, error)
	GetByID(ctx context.Context, userID int64) (*entities.User, error)
	// LockForUpdate serializes game creation for a user until the transaction ends.
	LockForUpdate(ctx context.Context, userID int64) error
	Credit(ctx context.Context, userID int64, amount int64) error
}

// Tx exposes repositories bound to one transaction.
type Tx interface {
	Games() GameRepository
	Users() UserRepository
}

// Store is the persistence collaborator. Repositories returned outside
// WithinTx do not lock and are meant for reads.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// GameObserver receives game lifecycle events, e.g. for metrics.
type GameObserver interface {
	GameCreated()
	GameFinished(status entities.Status, prize int64)
	HelpUsed(t entities.HelpType)
}

type nopObserver struct{}

func (nopObserver) GameCreated()                        {}
func (nopObserver) GameFinished(entities.Status, int64) {}
func (nopObserver) HelpUsed(entities.HelpType)          {}
