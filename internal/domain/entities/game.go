package entities

import (
	"errors"
	"time"
)

// DefaultTimeLimit is how long a game may last before an answer times it out.
const DefaultTimeLimit = 35 * time.Minute

// Status is the derived state of a game.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusFail       Status = "fail"
	StatusTimeout    Status = "timeout"
	StatusCashedOut  Status = "money"
)

// Terminal reports whether the status ends the game.
func (s Status) Terminal() bool {
	return s != StatusInProgress
}

// Rules groups the parameters a game is played under.
type Rules struct {
	Scores    ScoreTable
	TimeLimit time.Duration
}

// DefaultRules returns the standard prize ladder and time limit.
func DefaultRules() Rules {
	return Rules{
		Scores:    DefaultScoreTable(),
		TimeLimit: DefaultTimeLimit,
	}
}

var errNoCurrentQuestion = errors.New("game has no question at the current level")

// Game is a single playthrough of the prize ladder by one user.
type Game struct {
	ID           int64
	UserID       int64
	CurrentLevel int        // 0-based index of the question being played
	IsFailed     bool       // set on a wrong answer or a timeout
	Prize        int64      // amount credited when the game finished
	CreatedAt    time.Time  // start of the game clock
	FinishedAt   *time.Time // nil while the game is in progress
	Questions    []*GameQuestion
}

// NewGame creates a game at level 0 with one position per level, in level order.
func NewGame(userID int64, questions []*GameQuestion, now time.Time) *Game {
	return &Game{
		UserID:    userID,
		CreatedAt: now,
		Questions: questions,
	}
}

// Finished reports whether the game reached a terminal state.
func (g *Game) Finished() bool {
	return g.FinishedAt != nil
}

// Status derives the game status from its stored fields.
func (g *Game) Status(rules Rules) Status {
	switch {
	case !g.Finished():
		return StatusInProgress
	case g.IsFailed && g.FinishedAt.Sub(g.CreatedAt) > rules.TimeLimit:
		return StatusTimeout
	case g.IsFailed:
		return StatusFail
	case g.CurrentLevel > rules.Scores.LastLevel():
		return StatusWon
	default:
		return StatusCashedOut
	}
}

// PreviousLevel is the last fully cleared level, -1 when nothing was cleared.
func (g *Game) PreviousLevel() int {
	return g.CurrentLevel - 1
}

// CurrentGameQuestion returns the position being played, or nil past the last level.
func (g *Game) CurrentGameQuestion() *GameQuestion {
	return g.questionAt(g.CurrentLevel)
}

// PreviousGameQuestion returns the last answered position, or nil at level 0.
func (g *Game) PreviousGameQuestion() *GameQuestion {
	return g.questionAt(g.PreviousLevel())
}

func (g *Game) questionAt(level int) *GameQuestion {
	if level < 0 || level >= len(g.Questions) {
		return nil
	}
	return g.Questions[level]
}

// Expired reports whether more than limit has passed since the game started.
func (g *Game) Expired(now time.Time, limit time.Duration) bool {
	return now.Sub(g.CreatedAt) > limit
}

// HelpsUsed reports which help types were applied on any position.
func (g *Game) HelpsUsed() map[HelpType]bool {
	used := make(map[HelpType]bool, len(HelpTypes))
	for _, gq := range g.Questions {
		for t := range gq.Helps {
			used[t] = true
		}
	}
	return used
}

// Answer evaluates key against the current question. A game past its time limit
// times out regardless of the answer. It returns whether the answer was accepted
// as correct.
func (g *Game) Answer(key DisplayKey, now time.Time, rules Rules) (bool, error) {
	if g.Finished() {
		return false, ErrGameAlreadyFinished
	}

	if g.Expired(now, rules.TimeLimit) {
		g.fail(now, rules)
		return false, nil
	}

	gq := g.CurrentGameQuestion()
	if gq == nil {
		return false, errNoCurrentQuestion
	}

	if !gq.AnswerCorrect(key) {
		g.fail(now, rules)
		return false, nil
	}

	g.CurrentLevel++
	if g.CurrentLevel > rules.Scores.LastLevel() {
		g.finish(now, rules.Scores.TopPrize())
	}

	return true, nil
}

// CashOut ends the game banking the full prize of the last cleared level.
func (g *Game) CashOut(now time.Time, rules Rules) error {
	if g.Finished() {
		return ErrGameAlreadyFinished
	}

	g.finish(now, rules.Scores.PrizeForLevel(g.PreviousLevel()))
	return nil
}

// TimeOut ends an expired game with the fireproof prize. It reports false and
// leaves the game untouched when the time limit has not passed yet.
func (g *Game) TimeOut(now time.Time, rules Rules) (bool, error) {
	if g.Finished() {
		return false, ErrGameAlreadyFinished
	}
	if !g.Expired(now, rules.TimeLimit) {
		return false, nil
	}

	g.fail(now, rules)
	return true, nil
}

func (g *Game) fail(now time.Time, rules Rules) {
	g.IsFailed = true
	g.finish(now, rules.Scores.FireproofFloor(g.PreviousLevel()))
}

func (g *Game) finish(now time.Time, prize int64) {
	g.FinishedAt = &now
	g.Prize = prize
}

// Clone returns a deep copy of the game.
func (g *Game) Clone() *Game {
	out := *g
	if g.FinishedAt != nil {
		t := *g.FinishedAt
		out.FinishedAt = &t
	}
	out.Questions = make([]*GameQuestion, len(g.Questions))
	for i, gq := range g.Questions {
		c := *gq
		c.Helps = gq.Helps.Clone()
		out.Questions[i] = &c
	}
	return &out
}
