package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

var helpLabels = map[entities.HelpType]string{
	entities.HelpFiftyFifty: "✂️ 50/50",
	entities.HelpFriendCall: "📞 Звонок другу",
	entities.HelpAudience:   "👥 Помощь зала",
}

// buildGameKeyboard builds the keyboard for the current question: one button per
// visible answer, the helps not used on this question and the cash-out button.
func buildGameKeyboard(game *entities.Game) *tgbotapi.InlineKeyboardMarkup {
	gq := game.CurrentGameQuestion()
	if game.Finished() || gq == nil {
		return buildResultKeyboard()
	}

	var rows [][]tgbotapi.InlineKeyboardButton

	var row []tgbotapi.InlineKeyboardButton
	for _, k := range gq.VisibleKeys() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(k.Upper(), buildAnswerCallback(game.ID, k)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	var helps []tgbotapi.InlineKeyboardButton
	for _, t := range entities.HelpTypes {
		if gq.Helps.Used(t) {
			continue
		}
		helps = append(helps, tgbotapi.NewInlineKeyboardButtonData(helpLabels[t], buildHelpCallback(game.ID, t)))
	}
	if len(helps) > 0 {
		rows = append(rows, helps)
	}

	if game.CurrentLevel > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Забрать деньги", buildCashOutCallback(game.ID)),
		))
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// buildResultKeyboard builds keyboard for a finished game.
func buildResultKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Новая игра", buildNewGameCallback()),
			tgbotapi.NewInlineKeyboardButtonData("📜 История", buildHistoryCallback()),
		),
	)
	return &kb
}

func buildStartKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Начать игру", buildNewGameCallback()),
		),
	)
}

// buildContinueKeyboard points to a game already in progress.
func buildContinueKeyboard(gameID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Продолжить игру", buildShowGameCallback(gameID)),
		),
	)
}
