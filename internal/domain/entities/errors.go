package entities

import (
	"errors"
	"fmt"
)

var (
	ErrGameAlreadyInProgress = errors.New("game already in progress")
	ErrGameAlreadyFinished   = errors.New("game already finished")
	ErrInsufficientQuestions = errors.New("insufficient questions")
	ErrHelpAlreadyUsed       = errors.New("help already used")

	ErrGameNotFound      = errors.New("game not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidDisplayKey = errors.New("invalid display key")
	ErrUnknownHelpType   = errors.New("unknown help type")
	ErrInvalidScoreTable = errors.New("invalid score table")
)

// GameInProgressError is returned when a user tries to start a second game.
// It matches ErrGameAlreadyInProgress and carries the ID of the game to resume.
type GameInProgressError struct {
	GameID int64
}

func (e *GameInProgressError) Error() string {
	return fmt.Sprintf("%s: game %d", ErrGameAlreadyInProgress, e.GameID)
}

// Is reports whether target is ErrGameAlreadyInProgress.
func (e *GameInProgressError) Is(target error) bool {
	return target == ErrGameAlreadyInProgress
}
