package telegram

import (
	"fmt"
	"strings"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

var statusTitles = map[entities.Status]string{
	entities.StatusInProgress: "в игре",
	entities.StatusWon:        "победа",
	entities.StatusFail:       "проигрыш",
	entities.StatusTimeout:    "время вышло",
	entities.StatusCashedOut:  "забрал деньги",
}

var helpNames = map[entities.HelpType]string{
	entities.HelpFiftyFifty: "50/50",
	entities.HelpFriendCall: "звонок другу",
	entities.HelpAudience:   "помощь зала",
}

// renderGame renders an in-progress game as its current question, or the
// result screen once the game is over.
func renderGame(game *entities.Game, rules entities.Rules) string {
	if game.Finished() {
		return renderResult(game, rules)
	}

	gq := game.CurrentGameQuestion()
	if gq == nil {
		return md(msgInternalError)
	}

	scores := rules.Scores
	var sb strings.Builder

	sb.WriteString(bold(fmt.Sprintf("Вопрос %d из %d", game.CurrentLevel+1, scores.Levels())))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("💵 Вопрос стоит: %s", formatMoney(scores.PrizeForLevel(game.CurrentLevel)))))
	if scores.IsFireproof(game.CurrentLevel) {
		sb.WriteString(md(" (несгораемая сумма)"))
	}
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("🏦 Несгораемая сумма: %s", formatMoney(scores.FireproofFloor(game.PreviousLevel())))))
	sb.WriteString("\n\n")

	sb.WriteString(md(gq.Text()))
	sb.WriteString("\n\n")

	for _, opt := range gq.CurrentDisplayOptions() {
		sb.WriteString(bold(opt.Key.Upper() + ":"))
		sb.WriteString(" ")
		sb.WriteString(md(opt.Text))
		sb.WriteString("\n")
	}

	if helps := renderHelps(gq); helps != "" {
		sb.WriteString("\n")
		sb.WriteString(helps)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// renderHelps renders the advisory help results of a position.
func renderHelps(gq *entities.GameQuestion) string {
	var sb strings.Builder

	if hint, ok := gq.Helps.BiasedHint(); ok {
		sb.WriteString(md("📞 " + hint.Suggestion()))
		sb.WriteString("\n")
	}

	if poll, ok := gq.Helps.WeightedPoll(); ok {
		sb.WriteString(md("👥 Зал проголосовал:"))
		sb.WriteString("\n")
		for _, k := range gq.VisibleKeys() {
			share := poll.Shares[k]
			sb.WriteString(md(fmt.Sprintf("%s: %s %d%%", k.Upper(), pollBar(share), share)))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func pollBar(share int) string {
	const width = 10
	filled := (share*width + 50) / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// renderResult renders the final screen of a finished game.
func renderResult(game *entities.Game, rules entities.Rules) string {
	var sb strings.Builder

	switch game.Status(rules) {
	case entities.StatusWon:
		sb.WriteString(bold("🏆 Поздравляем! Вы ответили на все вопросы!"))
	case entities.StatusCashedOut:
		sb.WriteString(bold("💰 Вы забрали деньги."))
	case entities.StatusTimeout:
		sb.WriteString(bold("⏰ Время вышло."))
		sb.WriteString(revealAnswer(game.CurrentGameQuestion()))
	case entities.StatusFail:
		sb.WriteString(bold("❌ Неверный ответ."))
		sb.WriteString(revealAnswer(game.CurrentGameQuestion()))
	default:
		return renderGame(game, rules)
	}

	sb.WriteString("\n\n")
	sb.WriteString(md(fmt.Sprintf("Пройдено вопросов: %d из %d", game.CurrentLevel, rules.Scores.Levels())))
	sb.WriteString("\n")
	sb.WriteString(md("Ваш выигрыш: "))
	sb.WriteString(bold(formatMoney(game.Prize)))

	return sb.String()
}

func revealAnswer(gq *entities.GameQuestion) string {
	if gq == nil {
		return ""
	}
	k := gq.CorrectAnswerKey()
	return "\n" + md(fmt.Sprintf("Правильный ответ: %s: %s", k.Upper(), gq.Variants()[k]))
}

// renderHistory renders the user's recent games, newest first.
func renderHistory(games []*entities.Game, rules entities.Rules) string {
	if len(games) == 0 {
		return md(msgNoHistory)
	}

	var sb strings.Builder
	sb.WriteString(bold("📜 Ваши последние игры"))
	sb.WriteString("\n\n")

	for _, g := range games {
		line := fmt.Sprintf("#%d • %s • %s • уровень %d • %s",
			g.ID,
			g.CreatedAt.Format("02.01.2006 15:04"),
			statusTitles[g.Status(rules)],
			g.CurrentLevel,
			formatMoney(g.Prize),
		)
		sb.WriteString(md(line))

		if used := usedHelpNames(g); used != "" {
			sb.WriteString("\n  ")
			sb.WriteString(italic("подсказки: " + used))
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func usedHelpNames(g *entities.Game) string {
	used := g.HelpsUsed()
	var names []string
	for _, t := range entities.HelpTypes {
		if used[t] {
			names = append(names, helpNames[t])
		}
	}
	return strings.Join(names, ", ")
}

func renderBalance(user *entities.User) string {
	return md("💼 Ваш баланс: ") + bold(formatMoney(user.Balance))
}
