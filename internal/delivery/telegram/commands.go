package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

// handleNewGame starts a game, or points the user to the one already running.
func (h *Handler) handleNewGame(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		game, err := h.gameService.CreateGameForUser(ctx, userID)
		if err != nil {
			if errors.Is(err, entities.ErrGameAlreadyInProgress) {
				return h.sendGameInProgress(ctx, chatID, userID, err)
			}
			return err
		}

		h.sendGame(chatID, userID, game)
		return nil
	}
}

func (h *Handler) sendGameInProgress(ctx context.Context, chatID, userID int64, cause error) error {
	var inProgress *entities.GameInProgressError
	gameID := int64(0)
	if errors.As(cause, &inProgress) {
		gameID = inProgress.GameID
	}

	if gameID == 0 {
		game, err := h.gameService.CurrentGame(ctx, userID)
		if err != nil {
			return err
		}
		gameID = game.ID
	}

	h.logger.Debug("game already in progress",
		zap.Int64("user_id", userID),
		zap.Int64("game_id", gameID),
	)

	msg := newMessage(chatID, md(msgGameInProgress))
	msg.ReplyMarkup = buildContinueKeyboard(gameID)
	h.send(msg)
	return nil
}

func (h *Handler) handleCurrentGame(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		game, err := h.gameService.CurrentGame(ctx, userID)
		if err != nil {
			if errors.Is(err, entities.ErrGameNotFound) {
				msg := newMessage(chatID, md(msgNoCurrentGame))
				msg.ReplyMarkup = buildStartKeyboard()
				h.send(msg)
				return nil
			}
			return err
		}

		h.sendGame(chatID, userID, game)
		return nil
	}
}

func (h *Handler) handleHistory(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		games, err := h.gameService.ListGames(ctx, userID, historyLimit)
		if err != nil {
			return err
		}

		msg := newMessage(chatID, renderHistory(games, h.gameService.Rules()))
		msg.ReplyMarkup = buildStartKeyboard()
		h.send(msg)
		return nil
	}
}

func (h *Handler) handleBalance(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		user, err := h.userService.GetUser(ctx, userID)
		if err != nil {
			return err
		}

		h.send(newMessage(chatID, renderBalance(user)))
		return nil
	}
}

// sendGame posts a fresh game board and strips the buttons off the previous one.
func (h *Handler) sendGame(chatID, userID int64, game *entities.Game) {
	msg := newMessage(chatID, renderGame(game, h.gameService.Rules()))
	msg.ReplyMarkup = buildGameKeyboard(game)

	sent, ok := h.send(msg)
	if !ok {
		return
	}

	prev, hadPrev := h.boards.Swap(userID, chatID, sent.MessageID)
	if !hadPrev || prev.MessageID == sent.MessageID {
		return
	}

	strip := tgbotapi.NewEditMessageReplyMarkup(prev.ChatID, prev.MessageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := h.bot.Request(strip); err != nil {
		h.logger.Debug("failed to strip old board",
			zap.Int64("chat_id", prev.ChatID),
			zap.Int("message_id", prev.MessageID),
			zap.Error(err),
		)
	}
}
