package service_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
	"github.com/aliskhannn/millionaire-bot/internal/repository"
	"github.com/aliskhannn/millionaire-bot/internal/service"
	"github.com/aliskhannn/millionaire-bot/internal/storage"
)

const player = int64(42)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu       sync.Mutex
	created  int
	finished map[entities.Status]int
	helps    []entities.HelpType
}

func (r *recorder) GameCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
}

func (r *recorder) GameFinished(s entities.Status, _ int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished == nil {
		r.finished = map[entities.Status]int{}
	}
	r.finished[s]++
}

func (r *recorder) HelpUsed(t entities.HelpType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.helps = append(r.helps, t)
}

type env struct {
	games    *service.GameService
	users    *service.UserService
	store    *storage.MemoryStore
	clock    *clock
	observer *recorder
}

func newEnv(t *testing.T, levels int) *env {
	t.Helper()

	var questions []entities.Question
	for level := range levels {
		for i := range 3 {
			questions = append(questions, entities.Question{
				Level:   level,
				Text:    fmt.Sprintf("question %d.%d", level, i),
				Answers: [4]string{"right", "wrong 1", "wrong 2", "wrong 3"},
			})
		}
	}
	bank, err := repository.NewQuestionRepositoryFrom(questions)
	if err != nil {
		t.Fatal(err)
	}

	e := &env{
		store:    storage.NewMemoryStore(),
		clock:    &clock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)},
		observer: &recorder{},
	}
	e.games = service.NewGameService(
		e.store,
		service.NewQuestionSelector(bank, rand.New(rand.NewSource(11))),
		service.NewHelpEngine(service.DefaultHelpConfig(), rand.New(rand.NewSource(12))),
		entities.DefaultRules(),
		zap.NewNop(),
		service.WithClock(e.clock.Now),
		service.WithObserver(e.observer),
	)
	e.users = service.NewUserService(e.store)

	if err := e.users.EnsureUser(context.Background(), player, 1, "Игрок"); err != nil {
		t.Fatal(err)
	}
	return e
}

func (e *env) start(t *testing.T) *entities.Game {
	t.Helper()
	g, err := e.games.CreateGameForUser(context.Background(), player)
	if err != nil {
		t.Fatalf("CreateGameForUser: %v", err)
	}
	return g
}

func (e *env) answerCorrectly(t *testing.T, g *entities.Game, n int) *entities.Game {
	t.Helper()
	for range n {
		key := g.CurrentGameQuestion().CorrectAnswerKey()
		next, err := e.games.AnswerCurrentQuestion(context.Background(), player, g.ID, key)
		if err != nil {
			t.Fatalf("answer at level %d: %v", g.CurrentLevel, err)
		}
		g = next
	}
	return g
}

func (e *env) balance(t *testing.T) int64 {
	t.Helper()
	u, err := e.users.GetUser(context.Background(), player)
	if err != nil {
		t.Fatal(err)
	}
	return u.Balance
}

func wrongKey(gq *entities.GameQuestion) entities.DisplayKey {
	for _, k := range gq.VisibleKeys() {
		if k != gq.CorrectAnswerKey() {
			return k
		}
	}
	panic("no wrong key visible")
}

func TestCreateGame(t *testing.T) {
	e := newEnv(t, 15)
	g := e.start(t)

	if g.ID == 0 || g.UserID != player || g.CurrentLevel != 0 {
		t.Fatalf("game = %+v", g)
	}
	if len(g.Questions) != 15 {
		t.Fatalf("positions = %d", len(g.Questions))
	}
	for i, gq := range g.Questions {
		if gq.ID == 0 || gq.GameID != g.ID || gq.Level() != i {
			t.Fatalf("position %d = %+v", i, gq)
		}
	}
	if e.observer.created != 1 {
		t.Fatalf("created events = %d", e.observer.created)
	}
}

func TestCreateGameWhileInProgress(t *testing.T) {
	e := newEnv(t, 15)
	g := e.start(t)

	_, err := e.games.CreateGameForUser(context.Background(), player)

	var inProgress *entities.GameInProgressError
	if !errors.As(err, &inProgress) || inProgress.GameID != g.ID {
		t.Fatalf("err = %v, want in-progress error for game %d", err, g.ID)
	}
	if !errors.Is(err, entities.ErrGameAlreadyInProgress) {
		t.Fatal("in-progress error does not match ErrGameAlreadyInProgress")
	}
}

func TestCreateGameAfterFinish(t *testing.T) {
	e := newEnv(t, 15)
	g := e.start(t)
	if _, err := e.games.CashOut(context.Background(), player, g.ID); err != nil {
		t.Fatal(err)
	}

	next := e.start(t)
	if next.ID == g.ID {
		t.Fatal("new game reused the finished one")
	}
}

func TestCreateGameConcurrently(t *testing.T) {
	e := newEnv(t, 15)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		blocked int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.games.CreateGameForUser(context.Background(), player)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, entities.ErrGameAlreadyInProgress):
				blocked++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || blocked != 7 {
		t.Fatalf("created = %d blocked = %d", created, blocked)
	}
}

func TestCreateGameInsufficientQuestions(t *testing.T) {
	e := newEnv(t, 10)

	_, err := e.games.CreateGameForUser(context.Background(), player)
	if !errors.Is(err, entities.ErrInsufficientQuestions) {
		t.Fatalf("err = %v, want ErrInsufficientQuestions", err)
	}
	if _, err := e.games.CurrentGame(context.Background(), player); !errors.Is(err, entities.ErrGameNotFound) {
		t.Fatalf("a game was left behind: %v", err)
	}
}

func TestCreateGameUnknownUser(t *testing.T) {
	e := newEnv(t, 15)
	if _, err := e.games.CreateGameForUser(context.Background(), 999); !errors.Is(err, entities.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestWrongAnswerCreditsFloor(t *testing.T) {
	e := newEnv(t, 15)
	g := e.answerCorrectly(t, e.start(t), 10)

	g, err := e.games.AnswerCurrentQuestion(context.Background(), player, g.ID, wrongKey(g.CurrentGameQuestion()))
	if err != nil {
		t.Fatal(err)
	}

	rules := e.games.Rules()
	if g.Status(rules) != entities.StatusFail || g.Prize != 32_000 {
		t.Fatalf("status = %s prize = %d", g.Status(rules), g.Prize)
	}
	if b := e.balance(t); b != 32_000 {
		t.Fatalf("balance = %d", b)
	}
	if e.observer.finished[entities.StatusFail] != 1 {
		t.Fatalf("finished events = %v", e.observer.finished)
	}

	_, err = e.games.AnswerCurrentQuestion(context.Background(), player, g.ID, entities.KeyA)
	if !errors.Is(err, entities.ErrGameAlreadyFinished) {
		t.Fatalf("answer after finish: %v", err)
	}
	if b := e.balance(t); b != 32_000 {
		t.Fatalf("balance changed after finish: %d", b)
	}
}

func TestWinCreditsTopPrize(t *testing.T) {
	e := newEnv(t, 15)
	g := e.answerCorrectly(t, e.start(t), 15)

	if g.Status(e.games.Rules()) != entities.StatusWon || g.Prize != 1_000_000 {
		t.Fatalf("status = %s prize = %d", g.Status(e.games.Rules()), g.Prize)
	}
	if b := e.balance(t); b != 1_000_000 {
		t.Fatalf("balance = %d", b)
	}
}

func TestCashOutCreditsLastClearedLevel(t *testing.T) {
	e := newEnv(t, 15)
	g := e.answerCorrectly(t, e.start(t), 3)

	g, err := e.games.CashOut(context.Background(), player, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if g.Status(e.games.Rules()) != entities.StatusCashedOut || g.Prize != 300 {
		t.Fatalf("status = %s prize = %d", g.Status(e.games.Rules()), g.Prize)
	}
	if b := e.balance(t); b != 300 {
		t.Fatalf("balance = %d", b)
	}
}

func TestConcurrentCashOutCreditsOnce(t *testing.T) {
	e := newEnv(t, 15)
	g := e.answerCorrectly(t, e.start(t), 5)

	const callers = 6
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.games.CashOut(context.Background(), player, g.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, entities.ErrGameAlreadyFinished):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if ok != 1 {
		t.Fatalf("%d cash outs succeeded", ok)
	}
	if b := e.balance(t); b != 1_000 {
		t.Fatalf("balance = %d, want 1000", b)
	}
}

func TestForeignGameIsNotFound(t *testing.T) {
	e := newEnv(t, 15)
	g := e.start(t)
	stranger := player + 1

	if _, err := e.games.GetGame(context.Background(), stranger, g.ID); !errors.Is(err, entities.ErrGameNotFound) {
		t.Fatalf("GetGame: %v", err)
	}
	if _, err := e.games.CashOut(context.Background(), stranger, g.ID); !errors.Is(err, entities.ErrGameNotFound) {
		t.Fatalf("CashOut: %v", err)
	}
	if _, _, err := e.games.ApplyHelp(context.Background(), stranger, g.ID, entities.HelpAudience); !errors.Is(err, entities.ErrGameNotFound) {
		t.Fatalf("ApplyHelp: %v", err)
	}

	own, err := e.games.GetGame(context.Background(), player, g.ID)
	if err != nil || own.Finished() {
		t.Fatalf("owner's game changed: %v", err)
	}
}

func TestUnknownGame(t *testing.T) {
	e := newEnv(t, 15)
	if _, err := e.games.AnswerCurrentQuestion(context.Background(), player, 12345, entities.KeyA); !errors.Is(err, entities.ErrGameNotFound) {
		t.Fatalf("err = %v, want ErrGameNotFound", err)
	}
}

func TestApplyHelpIsStored(t *testing.T) {
	e := newEnv(t, 15)
	g := e.start(t)

	g, res, err := e.games.ApplyHelp(context.Background(), player, g.ID, entities.HelpFiftyFifty)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.(entities.OptionReduction).Keys) != 2 {
		t.Fatalf("result = %+v", res)
	}

	stored, err := e.games.GetGame(context.Background(), player, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.CurrentGameQuestion().Helps.Used(entities.HelpFiftyFifty) {
		t.Fatal("help was not persisted")
	}
	if len(stored.CurrentGameQuestion().VisibleKeys()) != 2 {
		t.Fatal("stored position does not reflect the reduction")
	}

	_, _, err = e.games.ApplyHelp(context.Background(), player, g.ID, entities.HelpFiftyFifty)
	if !errors.Is(err, entities.ErrHelpAlreadyUsed) {
		t.Fatalf("second 50/50: %v", err)
	}

	// Helps are tracked per position, so the next question offers it again.
	g = e.answerCorrectly(t, stored, 1)
	if _, _, err := e.games.ApplyHelp(context.Background(), player, g.ID, entities.HelpFiftyFifty); err != nil {
		t.Fatalf("50/50 on the next question: %v", err)
	}
	if len(e.observer.helps) != 2 {
		t.Fatalf("help events = %v", e.observer.helps)
	}
}

func TestApplyHelpOnFinishedGame(t *testing.T) {
	e := newEnv(t, 15)
	g := e.start(t)
	if _, err := e.games.CashOut(context.Background(), player, g.ID); err != nil {
		t.Fatal(err)
	}

	_, _, err := e.games.ApplyHelp(context.Background(), player, g.ID, entities.HelpFriendCall)
	if !errors.Is(err, entities.ErrGameAlreadyFinished) {
		t.Fatalf("err = %v, want ErrGameAlreadyFinished", err)
	}
}

func TestLateAnswerTimesOut(t *testing.T) {
	e := newEnv(t, 15)
	g := e.answerCorrectly(t, e.start(t), 7)
	e.clock.Advance(e.games.Rules().TimeLimit + time.Minute)

	g, err := e.games.AnswerCurrentQuestion(context.Background(), player, g.ID, g.CurrentGameQuestion().CorrectAnswerKey())
	if err != nil {
		t.Fatal(err)
	}
	if g.Status(e.games.Rules()) != entities.StatusTimeout || g.Prize != 1_000 {
		t.Fatalf("status = %s prize = %d", g.Status(e.games.Rules()), g.Prize)
	}
	if b := e.balance(t); b != 1_000 {
		t.Fatalf("balance = %d", b)
	}
}

func TestExpireTimedOut(t *testing.T) {
	e := newEnv(t, 15)
	g := e.answerCorrectly(t, e.start(t), 5)

	n, err := e.games.ExpireTimedOut(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("fresh game expired: n=%d err=%v", n, err)
	}

	e.clock.Advance(e.games.Rules().TimeLimit + time.Second)

	n, err = e.games.ExpireTimedOut(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("ExpireTimedOut: n=%d err=%v", n, err)
	}

	got, err := e.games.GetGame(context.Background(), player, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status(e.games.Rules()) != entities.StatusTimeout || got.Prize != 1_000 {
		t.Fatalf("status = %s prize = %d", got.Status(e.games.Rules()), got.Prize)
	}
	if b := e.balance(t); b != 1_000 {
		t.Fatalf("balance = %d", b)
	}

	n, err = e.games.ExpireTimedOut(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("second sweep: n=%d err=%v", n, err)
	}
	if b := e.balance(t); b != 1_000 {
		t.Fatalf("balance after second sweep = %d", b)
	}
}

func TestListGamesNewestFirst(t *testing.T) {
	e := newEnv(t, 15)

	var ids []int64
	for range 3 {
		g := e.start(t)
		ids = append(ids, g.ID)
		if _, err := e.games.CashOut(context.Background(), player, g.ID); err != nil {
			t.Fatal(err)
		}
		e.clock.Advance(time.Minute)
	}

	games, err := e.games.ListGames(context.Background(), player, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 2 || games[0].ID != ids[2] || games[1].ID != ids[1] {
		t.Fatalf("games = %v", games)
	}
}
