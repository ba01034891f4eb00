package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		h.answerCallback(cb.ID, "")
		return
	}

	chatID := cb.Message.Chat.ID
	if !h.ensureUser(ctx, cb.From, chatID) {
		h.answerCallback(cb.ID, msgInternalError)
		return
	}

	var (
		notice string
		err    error
	)

	cd := decodeCallback(cb.Data)
	switch cd.Action {
	case actionNew:
		err = h.handleNewGame(cb.From.ID)(ctx, chatID)
	case actionHistory:
		err = h.handleHistory(cb.From.ID)(ctx, chatID)
	case actionGame:
		notice, err = h.handleGameCallback(ctx, cb, cd)
	default:
		err = errBadCallback
	}

	if err != nil {
		text, expected := userMessage(err)
		if !expected {
			h.logger.Error("callback failed",
				zap.Int64("user_id", cb.From.ID),
				zap.String("data", cb.Data),
				zap.Error(err),
			)
		}
		notice = text
	}

	// Remove the user's "clock".
	h.answerCallback(cb.ID, notice)
}

// handleGameCallback runs a game action and edits the question message in place.
func (h *Handler) handleGameCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, cd callbackData) (string, error) {
	a, err := cd.gameAction()
	if err != nil {
		return "", err
	}

	userID := cb.From.ID
	var (
		game   *entities.Game
		notice string
	)

	switch a.Sub {
	case gameAnswer:
		game, err = h.gameService.AnswerCurrentQuestion(ctx, userID, a.GameID, a.Key)
		if err == nil && !game.IsFailed {
			notice = msgCorrectAnswer
		}
	case gameHelp:
		game, _, err = h.gameService.ApplyHelp(ctx, userID, a.GameID, a.Help)
		notice = msgHelpApplied
	case gameCash:
		game, err = h.gameService.CashOut(ctx, userID, a.GameID)
		notice = msgCashOutConfirmed
	case gameShow:
		game, err = h.gameService.GetGame(ctx, userID, a.GameID)
	default:
		err = errBadCallback
	}

	if err != nil {
		if errors.Is(err, entities.ErrGameAlreadyFinished) {
			h.refreshGame(ctx, cb, userID, a.GameID)
		}
		return "", err
	}

	h.editGame(cb, game)
	return notice, nil
}

// refreshGame redraws a stale game message so outdated buttons disappear.
func (h *Handler) refreshGame(ctx context.Context, cb *tgbotapi.CallbackQuery, userID, gameID int64) {
	game, err := h.gameService.GetGame(ctx, userID, gameID)
	if err != nil {
		return
	}
	h.editGame(cb, game)
}

func (h *Handler) editGame(cb *tgbotapi.CallbackQuery, game *entities.Game) {
	edit := newEdit(cb.Message.Chat.ID, cb.Message.MessageID, renderGame(game, h.gameService.Rules()))
	edit.ReplyMarkup = buildGameKeyboard(game)
	h.send(edit)
}

func (h *Handler) answerCallback(id, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		h.logger.Warn("callback answer error", zap.Error(err))
	}
}
