package service

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

func newPosition(p entities.Permutation) *entities.GameQuestion {
	return entities.NewGameQuestion(entities.Question{
		ID:      1,
		Text:    "q",
		Answers: [4]string{"right", "w1", "w2", "w3"},
	}, p)
}

func TestFiftyFiftyKeepsCorrectAndOneWrong(t *testing.T) {
	e := NewHelpEngine(DefaultHelpConfig(), rand.New(rand.NewSource(1)))

	for i := range 200 {
		gq := newPosition(entities.NewPermutation(rand.New(rand.NewSource(int64(i)))))
		res, err := e.ApplyHelp(gq, entities.HelpFiftyFifty)
		if err != nil {
			t.Fatal(err)
		}

		keys := res.(entities.OptionReduction).Keys
		if len(keys) != 2 {
			t.Fatalf("kept %d keys", len(keys))
		}
		if !slices.Contains(keys, gq.CorrectAnswerKey()) {
			t.Fatalf("correct key %s dropped: %v", gq.CorrectAnswerKey(), keys)
		}
		if !slices.Equal(gq.VisibleKeys(), keys) {
			t.Fatalf("visible keys %v differ from reduction %v", gq.VisibleKeys(), keys)
		}

		_, err = e.ApplyHelp(gq, entities.HelpFiftyFifty)
		if !errors.Is(err, entities.ErrHelpAlreadyUsed) {
			t.Fatalf("second 50/50: %v", err)
		}
	}
}

func TestFriendCallBias(t *testing.T) {
	e := NewHelpEngine(DefaultHelpConfig(), rand.New(rand.NewSource(42)))

	const trials = 20000
	correct := 0
	for range trials {
		gq := newPosition(entities.Permutation{3, 1, 4, 2})
		res, err := e.ApplyHelp(gq, entities.HelpFriendCall)
		if err != nil {
			t.Fatal(err)
		}
		hint := res.(entities.BiasedHint)
		if hint.Friend == "" {
			t.Fatal("hint has no friend")
		}
		if hint.Key == gq.CorrectAnswerKey() {
			correct++
		}
	}

	freq := float64(correct) / trials
	if freq < 0.88 || freq > 0.92 {
		t.Fatalf("friend named the correct key in %.3f of calls, want about 0.9", freq)
	}
}

func TestFriendCallStaysWithinReduction(t *testing.T) {
	cfg := DefaultHelpConfig()
	cfg.HintCorrectWeight = 0.01
	e := NewHelpEngine(cfg, rand.New(rand.NewSource(5)))

	for range 500 {
		gq := newPosition(entities.Permutation{1, 2, 3, 4})
		if _, err := e.ApplyHelp(gq, entities.HelpFiftyFifty); err != nil {
			t.Fatal(err)
		}
		res, err := e.ApplyHelp(gq, entities.HelpFriendCall)
		if err != nil {
			t.Fatal(err)
		}
		if k := res.(entities.BiasedHint).Key; !slices.Contains(gq.VisibleKeys(), k) {
			t.Fatalf("friend suggested hidden key %s", k)
		}
	}
}

func TestAudiencePoll(t *testing.T) {
	e := NewHelpEngine(DefaultHelpConfig(), rand.New(rand.NewSource(8)))

	const trials = 5000
	var correctTotal, wrongTotal int
	for range trials {
		gq := newPosition(entities.Permutation{2, 3, 1, 4})
		res, err := e.ApplyHelp(gq, entities.HelpAudience)
		if err != nil {
			t.Fatal(err)
		}
		shares := res.(entities.WeightedPoll).Shares

		sum := 0
		for _, k := range entities.DisplayKeys {
			s, ok := shares[k]
			if !ok || s < 0 {
				t.Fatalf("bad share for %s: %v", k, shares)
			}
			sum += s
		}
		if sum != 100 {
			t.Fatalf("shares sum to %d: %v", sum, shares)
		}

		c := shares[entities.KeyC]
		if c < 45 || c > 90 {
			t.Fatalf("correct share %d outside [45, 90]", c)
		}
		correctTotal += c
		wrongTotal += shares[entities.KeyA]
	}

	if correctTotal <= wrongTotal*2 {
		t.Fatalf("correct key not favoured: correct %d vs wrong %d", correctTotal, wrongTotal)
	}
}

func TestAudienceAfterFiftyFifty(t *testing.T) {
	e := NewHelpEngine(DefaultHelpConfig(), rand.New(rand.NewSource(13)))

	for range 300 {
		gq := newPosition(entities.Permutation{4, 1, 2, 3})
		if _, err := e.ApplyHelp(gq, entities.HelpFiftyFifty); err != nil {
			t.Fatal(err)
		}
		res, err := e.ApplyHelp(gq, entities.HelpAudience)
		if err != nil {
			t.Fatal(err)
		}
		shares := res.(entities.WeightedPoll).Shares

		visible := gq.VisibleKeys()
		sum := 0
		for _, k := range entities.DisplayKeys {
			if !slices.Contains(visible, k) && shares[k] != 0 {
				t.Fatalf("hidden key %s got %d%%", k, shares[k])
			}
			sum += shares[k]
		}
		if sum != 100 {
			t.Fatalf("shares sum to %d", sum)
		}
	}
}

func TestApplyUnknownHelp(t *testing.T) {
	e := NewHelpEngine(DefaultHelpConfig(), rand.New(rand.NewSource(1)))
	gq := newPosition(entities.Permutation{1, 2, 3, 4})

	if _, err := e.ApplyHelp(gq, "phone_a_robot"); !errors.Is(err, entities.ErrUnknownHelpType) {
		t.Fatalf("err = %v, want ErrUnknownHelpType", err)
	}
	if len(gq.Helps) != 0 {
		t.Fatal("failed help left a record")
	}
}

func TestHelpConfigValidate(t *testing.T) {
	bad := []HelpConfig{
		{HintCorrectWeight: 0, PollCorrectMin: 45, PollCorrectMax: 90, Friends: []string{"a"}},
		{HintCorrectWeight: 0.9, PollCorrectMin: 95, PollCorrectMax: 90, Friends: []string{"a"}},
		{HintCorrectWeight: 0.9, PollCorrectMin: 45, PollCorrectMax: 101, Friends: []string{"a"}},
		{HintCorrectWeight: 0.9, PollCorrectMin: 45, PollCorrectMax: 90},
	}
	for _, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate(%+v) should fail", cfg)
		}
	}
	if err := DefaultHelpConfig().Validate(); err != nil {
		t.Fatal(err)
	}
}
