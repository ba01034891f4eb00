// messages.go contains message templates and formatting helpers for Telegram.

package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// User-facing notices.
const (
	msgWelcome          = "Добро пожаловать в игру «Кто хочет стать миллионером»!\n\nОтветьте на 15 вопросов подряд, чтобы выиграть миллион. Несгораемые суммы сохраняются даже после ошибки, а заработанное можно забрать в любой момент."
	msgHelp             = "Команды:\n\n/new — начать новую игру\n/game — текущая игра\n/history — ваши последние игры\n/balance — ваш баланс\n/help — эта справка\n\nПодсказки: «50/50» убирает два неверных варианта, «Звонок другу» даёт совет, «Помощь зала» показывает голосование."
	msgUnknownCommand   = "Неизвестная команда. Наберите /help, чтобы увидеть список команд."
	msgNoCurrentGame    = "У вас нет активной игры. Начните новую командой /new."
	msgGameInProgress   = "У вас уже есть незаконченная игра. Продолжайте её!"
	msgGameFinished     = "Эта игра уже закончена."
	msgGameNotFound     = "Игра не найдена."
	msgHelpAlreadyUsed  = "Эта подсказка уже использована на этом вопросе."
	msgNoQuestions      = "Не удалось подобрать вопросы для игры. Попробуйте позже."
	msgInvalidAction    = "Некорректное действие."
	msgNoHistory        = "Вы ещё не сыграли ни одной игры. Начните командой /new."
	msgInternalError    = "Что‑то пошло не так. Попробуйте позже."
	msgUseButtons       = "Выбирайте ответы кнопками под вопросом. Текущая игра: /game."
	msgCorrectAnswer    = "Правильно!"
	msgHelpApplied      = "Подсказка применена."
	msgCashOutConfirmed = "Деньги забраны."
	msgTooFast          = "Слишком часто. Подождите немного."
)

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

func italic(s string) string {
	return "_" + md(s) + "_"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newEdit creates an edit with MarkdownV2 parse mode.
func newEdit(chatID int64, msgID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	return edit
}

// formatMoney renders an amount with digit grouping, e.g. "125 000 ₽".
func formatMoney(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteRune(' ')
		}
		sb.WriteRune(r)
	}
	sb.WriteString(" ₽")
	return sb.String()
}
