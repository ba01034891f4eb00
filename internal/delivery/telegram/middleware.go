package telegram

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

// withErrorHandling reports domain failures to the user as notices and
// everything else as an internal error.
func (h *Handler) withErrorHandling(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		err := fn(ctx, chatID)
		if err == nil {
			return nil
		}

		text, expected := userMessage(err)
		if expected {
			h.logger.Debug("operation rejected",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		} else {
			h.logger.Error("handle error",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
		}

		h.sendError(chatID, text)
		return nil
	}
}

// userMessage maps an operation error to the notice shown to the user and
// reports whether the error is an expected outcome rather than a fault.
func userMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, entities.ErrGameAlreadyFinished):
		return msgGameFinished, true
	case errors.Is(err, entities.ErrGameAlreadyInProgress):
		return msgGameInProgress, true
	case errors.Is(err, entities.ErrHelpAlreadyUsed):
		return msgHelpAlreadyUsed, true
	case errors.Is(err, entities.ErrGameNotFound):
		return msgGameNotFound, true
	case errors.Is(err, entities.ErrInvalidDisplayKey),
		errors.Is(err, entities.ErrUnknownHelpType),
		errors.Is(err, errBadCallback):
		return msgInvalidAction, true
	case errors.Is(err, entities.ErrInsufficientQuestions):
		// The bank is misconfigured; the player only sees a retry notice.
		return msgNoQuestions, false
	default:
		return msgInternalError, false
	}
}
