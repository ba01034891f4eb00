package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
	"github.com/aliskhannn/millionaire-bot/internal/storage"
)

const historyLimit = 10

type UserService interface {
	EnsureUser(ctx context.Context, userID, chatID int64, name string) error
	GetUser(ctx context.Context, userID int64) (*entities.User, error)
}

type GameService interface {
	CreateGameForUser(ctx context.Context, userID int64) (*entities.Game, error)
	AnswerCurrentQuestion(ctx context.Context, userID, gameID int64, key entities.DisplayKey) (*entities.Game, error)
	CashOut(ctx context.Context, userID, gameID int64) (*entities.Game, error)
	ApplyHelp(ctx context.Context, userID, gameID int64, t entities.HelpType) (*entities.Game, entities.HelpResult, error)
	GetGame(ctx context.Context, userID, gameID int64) (*entities.Game, error)
	CurrentGame(ctx context.Context, userID int64) (*entities.Game, error)
	ListGames(ctx context.Context, userID int64, limit int) ([]*entities.Game, error)
	Rules() entities.Rules
}

// BoardStorage remembers the latest game board sent to each user.
type BoardStorage interface {
	Swap(userID, chatID int64, messageID int) (storage.BoardMessage, bool)
}

// Sender is the part of the Bot API the handler talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Handler struct {
	bot         Sender
	updates     func(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	logger      *zap.Logger
	userService UserService
	gameService GameService
	boards      BoardStorage
	throttle    *throttle
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithRateLimit caps how many updates per second a single user may send.
// A non-positive rate disables the limit.
func WithRateLimit(perSecond float64, burst int) HandlerOption {
	return func(h *Handler) {
		if perSecond <= 0 {
			h.throttle = nil
			return
		}
		h.throttle = newThrottle(perSecond, max(burst, 1))
	}
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	logger *zap.Logger,
	userService UserService,
	gameService GameService,
	boards BoardStorage,
	opts ...HandlerOption,
) *Handler {
	h := newHandler(bot, logger, userService, gameService, boards)
	for _, opt := range opts {
		opt(h)
	}
	h.updates = bot.GetUpdatesChan
	return h
}

func newHandler(
	bot Sender,
	logger *zap.Logger,
	userService UserService,
	gameService GameService,
	boards BoardStorage,
) *Handler {
	return &Handler{
		bot:         bot,
		logger:      logger,
		userService: userService,
		gameService: gameService,
		boards:      boards,
	}
}

// Commands is the command menu registered with Telegram.
func Commands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Запустить бота"},
		{Command: "new", Description: "Новая игра"},
		{Command: "game", Description: "Текущая игра"},
		{Command: "history", Description: "Мои игры"},
		{Command: "balance", Description: "Мой баланс"},
		{Command: "help", Description: "Помощь"},
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.updates(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cb := update.CallbackQuery; cb != nil {
		h.logger.Debug("callback received", zap.String("data", cb.Data))
		if cb.From != nil && !h.throttle.allow(cb.From.ID) {
			h.answerCallback(cb.ID, msgTooFast)
			return
		}
		h.handleCallback(ctx, cb)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	if !h.throttle.allow(update.Message.From.ID) {
		h.logger.Debug("message throttled", zap.Int64("user_id", update.Message.From.ID))
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	from := update.Message.From
	chatID := update.Message.Chat.ID
	if !h.ensureUser(ctx, from, chatID) {
		h.sendError(chatID, msgInternalError)
		return
	}

	if !update.Message.IsCommand() {
		h.send(newMessage(chatID, md(msgUseButtons)))
		return
	}

	switch update.Message.Command() {
	case "start":
		msg := newMessage(chatID, md(msgWelcome))
		msg.ReplyMarkup = buildStartKeyboard()
		h.send(msg)

	case "help":
		h.send(newMessage(chatID, md(msgHelp)))

	case "new":
		_ = h.withErrorHandling(h.handleNewGame(from.ID))(ctx, chatID)

	case "game":
		_ = h.withErrorHandling(h.handleCurrentGame(from.ID))(ctx, chatID)

	case "history":
		_ = h.withErrorHandling(h.handleHistory(from.ID))(ctx, chatID)

	case "balance":
		_ = h.withErrorHandling(h.handleBalance(from.ID))(ctx, chatID)

	default:
		h.send(newMessage(chatID, md(msgUnknownCommand)))
	}
}

func (h *Handler) ensureUser(ctx context.Context, from *tgbotapi.User, chatID int64) bool {
	if err := h.userService.EnsureUser(ctx, from.ID, chatID, displayName(from)); err != nil {
		h.logger.Error("failed to ensure user",
			zap.Int64("user_id", from.ID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}

func (h *Handler) sendError(chatID int64, text string) {
	h.send(newMessage(chatID, md(text)))
}

func (h *Handler) send(c tgbotapi.Chattable) (tgbotapi.Message, bool) {
	sent, err := h.bot.Send(c)
	if err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
		return sent, false
	}
	return sent, true
}
