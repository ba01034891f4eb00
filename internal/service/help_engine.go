package service

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

// HelpConfig tunes how strongly the advisory helps lean towards the correct answer.
type HelpConfig struct {
	HintCorrectWeight float64  // probability that the friend names the correct key
	PollCorrectMin    int      // lowest audience share of the correct key, percent
	PollCorrectMax    int      // highest audience share of the correct key, percent
	Friends           []string // names the friend call is attributed to
}

// DefaultHelpConfig returns the standard help tuning.
func DefaultHelpConfig() HelpConfig {
	return HelpConfig{
		HintCorrectWeight: 0.9,
		PollCorrectMin:    45,
		PollCorrectMax:    90,
		Friends:           []string{"Вася Пупкин", "Маша Иванова", "Пётр Сидоров", "Оля Смирнова"},
	}
}

// Validate checks the tuning values are usable.
func (c HelpConfig) Validate() error {
	if c.HintCorrectWeight <= 0 || c.HintCorrectWeight > 1 {
		return fmt.Errorf("hint correct weight must be in (0, 1], got %v", c.HintCorrectWeight)
	}
	if c.PollCorrectMin < 0 || c.PollCorrectMax > 100 || c.PollCorrectMin > c.PollCorrectMax {
		return fmt.Errorf("poll correct share range [%d, %d] is invalid", c.PollCorrectMin, c.PollCorrectMax)
	}
	if len(c.Friends) == 0 {
		return errors.New("at least one friend name is required")
	}
	return nil
}

// HelpEngine computes help results for a game position.
type HelpEngine struct {
	cfg HelpConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewHelpEngine creates a new HelpEngine. A nil rng is seeded from the clock.
func NewHelpEngine(cfg HelpConfig, rng *rand.Rand) *HelpEngine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if len(cfg.Friends) == 0 {
		cfg.Friends = DefaultHelpConfig().Friends
	}
	return &HelpEngine{
		cfg: cfg,
		rng: rng,
	}
}

// ApplyHelp computes the help result and records it on the position.
// A help type can be applied once per position.
func (e *HelpEngine) ApplyHelp(gq *entities.GameQuestion, t entities.HelpType) (entities.HelpResult, error) {
	if gq.Helps == nil {
		gq.Helps = entities.HelpRecord{}
	}
	if gq.Helps.Used(t) {
		return nil, fmt.Errorf("%w: %s", entities.ErrHelpAlreadyUsed, t)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var res entities.HelpResult
	switch t {
	case entities.HelpFiftyFifty:
		res = e.fiftyFifty(gq)
	case entities.HelpFriendCall:
		res = e.friendCall(gq)
	case entities.HelpAudience:
		res = e.audience(gq)
	default:
		return nil, fmt.Errorf("%w: %q", entities.ErrUnknownHelpType, t)
	}

	if err := gq.Helps.Add(res); err != nil {
		return nil, err
	}
	return res, nil
}

// fiftyFifty keeps the correct key and one random incorrect key.
func (e *HelpEngine) fiftyFifty(gq *entities.GameQuestion) entities.OptionReduction {
	correct, wrong := splitKeys(gq)
	keep := []entities.DisplayKey{correct}
	if len(wrong) > 0 {
		keep = append(keep, wrong[e.rng.Intn(len(wrong))])
	}

	keys := make([]entities.DisplayKey, 0, len(keep))
	for _, k := range entities.DisplayKeys {
		if slices.Contains(keep, k) {
			keys = append(keys, k)
		}
	}
	return entities.OptionReduction{Keys: keys}
}

// friendCall names the correct key with probability HintCorrectWeight,
// otherwise one of the other visible keys.
func (e *HelpEngine) friendCall(gq *entities.GameQuestion) entities.BiasedHint {
	correct, wrong := splitKeys(gq)

	key := correct
	if len(wrong) > 0 && e.rng.Float64() >= e.cfg.HintCorrectWeight {
		key = wrong[e.rng.Intn(len(wrong))]
	}

	return entities.BiasedHint{
		Friend: e.cfg.Friends[e.rng.Intn(len(e.cfg.Friends))],
		Key:    key,
	}
}

// audience gives the correct key a share drawn from the configured range and
// splits the rest randomly over the other visible keys. Hidden keys get 0.
func (e *HelpEngine) audience(gq *entities.GameQuestion) entities.WeightedPoll {
	correct, wrong := splitKeys(gq)

	shares := make(map[entities.DisplayKey]int, entities.AnswerCount)
	for _, k := range entities.DisplayKeys {
		shares[k] = 0
	}

	if len(wrong) == 0 {
		shares[correct] = 100
		return entities.WeightedPoll{Shares: shares}
	}

	correctShare := e.cfg.PollCorrectMin + e.rng.Intn(e.cfg.PollCorrectMax-e.cfg.PollCorrectMin+1)
	shares[correct] = correctShare

	for i, part := range e.splitRemainder(100-correctShare, len(wrong)) {
		shares[wrong[i]] = part
	}

	return entities.WeightedPoll{Shares: shares}
}

// splitRemainder divides total into n random non-negative parts.
func (e *HelpEngine) splitRemainder(total, n int) []int {
	cuts := make([]int, 0, n+1)
	cuts = append(cuts, 0)
	for i := 0; i < n-1; i++ {
		cuts = append(cuts, e.rng.Intn(total+1))
	}
	cuts = append(cuts, total)
	slices.Sort(cuts)

	parts := make([]int, n)
	for i := range parts {
		parts[i] = cuts[i+1] - cuts[i]
	}
	return parts
}

// splitKeys returns the correct key and the visible incorrect keys.
func splitKeys(gq *entities.GameQuestion) (entities.DisplayKey, []entities.DisplayKey) {
	correct := gq.CorrectAnswerKey()
	var wrong []entities.DisplayKey
	for _, k := range gq.VisibleKeys() {
		if k != correct {
			wrong = append(wrong, k)
		}
	}
	return correct, wrong
}
