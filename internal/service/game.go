package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

const expireBatchSize = 100

var errNotExpired = errors.New("game has not expired")

// GameService runs the game rules against stored games. Every mutating
// operation is one transaction holding the game's lock.
type GameService struct {
	store    Store
	selector *QuestionSelector
	helps    *HelpEngine
	rules    entities.Rules
	observer GameObserver
	logger   *zap.Logger
	now      func() time.Time
}

// GameServiceOption customizes a GameService.
type GameServiceOption func(*GameService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) GameServiceOption {
	return func(s *GameService) {
		s.now = now
	}
}

// WithObserver registers a lifecycle observer.
func WithObserver(o GameObserver) GameServiceOption {
	return func(s *GameService) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewGameService creates a new GameService.
func NewGameService(
	store Store,
	selector *QuestionSelector,
	helps *HelpEngine,
	rules entities.Rules,
	logger *zap.Logger,
	opts ...GameServiceOption,
) *GameService {
	s := &GameService{
		store:    store,
		selector: selector,
		helps:    helps,
		rules:    rules,
		observer: nopObserver{},
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the rules games are played under.
func (s *GameService) Rules() entities.Rules {
	return s.rules
}

// CreateGameForUser starts a new game unless the user already has one in progress,
// in which case a *entities.GameInProgressError is returned.
func (s *GameService) CreateGameForUser(ctx context.Context, userID int64) (*entities.Game, error) {
	var game *entities.Game

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.Users().LockForUpdate(ctx, userID); err != nil {
			return err
		}

		existing, err := tx.Games().GetInProgressByUserID(ctx, userID)
		if err == nil {
			return &entities.GameInProgressError{GameID: existing.ID}
		}
		if !errors.Is(err, entities.ErrGameNotFound) {
			return err
		}

		questions, err := s.selector.SelectQuestions(ctx, s.rules.Scores.LevelRange())
		if err != nil {
			return err
		}

		game = entities.NewGame(userID, questions, s.now())
		return tx.Games().Create(ctx, game)
	})
	if err != nil {
		return nil, err
	}

	s.observer.GameCreated()
	s.logger.Info("game created",
		zap.Int64("game_id", game.ID),
		zap.Int64("user_id", userID),
	)

	return game, nil
}

// AnswerCurrentQuestion evaluates the answer to the current question.
func (s *GameService) AnswerCurrentQuestion(
	ctx context.Context,
	userID, gameID int64,
	key entities.DisplayKey,
) (*entities.Game, error) {
	return s.transition(ctx, gameID, ownedBy(userID, func(g *entities.Game) error {
		_, err := g.Answer(key, s.now(), s.rules)
		return err
	}))
}

// CashOut ends the game banking the prize of the last cleared level.
func (s *GameService) CashOut(ctx context.Context, userID, gameID int64) (*entities.Game, error) {
	return s.transition(ctx, gameID, ownedBy(userID, func(g *entities.Game) error {
		return g.CashOut(s.now(), s.rules)
	}))
}

// ApplyHelp applies a help to the current question of an in-progress game.
func (s *GameService) ApplyHelp(
	ctx context.Context,
	userID, gameID int64,
	t entities.HelpType,
) (*entities.Game, entities.HelpResult, error) {
	var res entities.HelpResult

	game, err := s.transition(ctx, gameID, ownedBy(userID, func(g *entities.Game) error {
		if g.Finished() {
			return entities.ErrGameAlreadyFinished
		}

		gq := g.CurrentGameQuestion()
		if gq == nil {
			return entities.ErrGameAlreadyFinished
		}

		var err error
		res, err = s.helps.ApplyHelp(gq, t)
		return err
	}))
	if err != nil {
		return nil, nil, err
	}

	s.observer.HelpUsed(t)
	s.logger.Info("help applied",
		zap.Int64("game_id", gameID),
		zap.Int("level", game.CurrentLevel),
		zap.String("help_type", string(t)),
	)

	return game, res, nil
}

// ExpireTimedOut finalizes in-progress games past the time limit and returns
// how many were timed out. Games finished concurrently are skipped.
func (s *GameService) ExpireTimedOut(ctx context.Context) (int, error) {
	now := s.now()
	ids, err := s.store.Games().ListExpiredIDs(ctx, now.Add(-s.rules.TimeLimit), expireBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		_, err := s.transition(ctx, id, func(g *entities.Game) error {
			ok, err := g.TimeOut(now, s.rules)
			if err != nil {
				return err
			}
			if !ok {
				return errNotExpired
			}
			return nil
		})

		switch {
		case err == nil:
			expired++
		case errors.Is(err, entities.ErrGameAlreadyFinished), errors.Is(err, errNotExpired):
			s.logger.Debug("skip expiry", zap.Int64("game_id", id), zap.Error(err))
		default:
			return expired, err
		}
	}

	return expired, nil
}

// GetGame returns one of the user's games.
func (s *GameService) GetGame(ctx context.Context, userID, gameID int64) (*entities.Game, error) {
	g, err := s.store.Games().GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.UserID != userID {
		return nil, entities.ErrGameNotFound
	}
	return g, nil
}

// CurrentGame returns the user's in-progress game or entities.ErrGameNotFound.
func (s *GameService) CurrentGame(ctx context.Context, userID int64) (*entities.Game, error) {
	return s.store.Games().GetInProgressByUserID(ctx, userID)
}

// ListGames returns the user's most recent games, newest first.
func (s *GameService) ListGames(ctx context.Context, userID int64, limit int) ([]*entities.Game, error) {
	return s.store.Games().ListByUserID(ctx, userID, limit)
}

// transition applies fn to the locked game, saves it and, when the game has
// just finished with a prize, credits the owner in the same transaction.
func (s *GameService) transition(ctx context.Context, gameID int64, fn func(g *entities.Game) error) (*entities.Game, error) {
	var (
		game     *entities.Game
		finished bool
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		g, err := tx.Games().GetForUpdate(ctx, gameID)
		if err != nil {
			return err
		}

		wasFinished := g.Finished()
		if err := fn(g); err != nil {
			return err
		}

		if err := tx.Games().Update(ctx, g); err != nil {
			return err
		}

		finished = !wasFinished && g.Finished()
		if finished && g.Prize > 0 {
			if err := tx.Users().Credit(ctx, g.UserID, g.Prize); err != nil {
				return err
			}
		}

		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	if finished {
		status := game.Status(s.rules)
		s.observer.GameFinished(status, game.Prize)
		s.logger.Info("game finished",
			zap.Int64("game_id", game.ID),
			zap.Int64("user_id", game.UserID),
			zap.String("status", string(status)),
			zap.Int("level", game.CurrentLevel),
			zap.Int64("prize", game.Prize),
		)
	}

	return game, nil
}

func ownedBy(userID int64, fn func(g *entities.Game) error) func(g *entities.Game) error {
	return func(g *entities.Game) error {
		if g.UserID != userID {
			return entities.ErrGameNotFound
		}
		return fn(g)
	}
}
