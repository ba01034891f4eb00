package entities

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
)

// DisplayKey is the label a player selects an answer by.
type DisplayKey string

const (
	KeyA DisplayKey = "a"
	KeyB DisplayKey = "b"
	KeyC DisplayKey = "c"
	KeyD DisplayKey = "d"
)

// DisplayKeys lists the display keys in presentation order.
var DisplayKeys = [AnswerCount]DisplayKey{KeyA, KeyB, KeyC, KeyD}

// correctSlot is the storage slot holding the correct answer.
const correctSlot = 1

// ParseDisplayKey parses a user supplied key, case-insensitively.
func ParseDisplayKey(s string) (DisplayKey, error) {
	k := DisplayKey(strings.ToLower(strings.TrimSpace(s)))
	if keyIndex(k) < 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidDisplayKey, s)
	}
	return k, nil
}

// Upper returns the key as shown to players ("A".."D").
func (k DisplayKey) Upper() string {
	return strings.ToUpper(string(k))
}

func keyIndex(k DisplayKey) int {
	for i, dk := range DisplayKeys {
		if dk == k {
			return i
		}
	}
	return -1
}

// Permutation maps display keys to answer slots: Permutation[i] is the slot (1-4)
// shown under DisplayKeys[i]. It is fixed when the game is created.
type Permutation [AnswerCount]int

// NewPermutation returns a uniformly random permutation drawn from rng.
func NewPermutation(rng *rand.Rand) Permutation {
	var p Permutation
	for i, v := range rng.Perm(AnswerCount) {
		p[i] = v + 1
	}
	return p
}

// Validate checks that the permutation is a bijection onto slots 1-4.
func (p Permutation) Validate() error {
	var seen [AnswerCount + 1]bool
	for _, slot := range p {
		if slot < 1 || slot > AnswerCount || seen[slot] {
			return fmt.Errorf("invalid answer permutation %v", p)
		}
		seen[slot] = true
	}
	return nil
}

// Slot returns the answer slot mapped to the key.
func (p Permutation) Slot(k DisplayKey) (int, bool) {
	i := keyIndex(k)
	if i < 0 {
		return 0, false
	}
	return p[i], true
}

// CorrectKey returns the display key mapped to the correct slot.
func (p Permutation) CorrectKey() DisplayKey {
	for i, slot := range p {
		if slot == correctSlot {
			return DisplayKeys[i]
		}
	}
	return ""
}

// GameQuestion is one position of a game: a question with its answer permutation
// and the helps used on it.
type GameQuestion struct {
	ID          int64
	GameID      int64
	Question    Question
	Permutation Permutation
	Helps       HelpRecord
}

// NewGameQuestion creates a position for q with the given permutation.
func NewGameQuestion(q Question, p Permutation) *GameQuestion {
	return &GameQuestion{
		Question:    q,
		Permutation: p,
		Helps:       HelpRecord{},
	}
}

func (gq *GameQuestion) Level() int {
	return gq.Question.Level
}

func (gq *GameQuestion) Text() string {
	return gq.Question.Text
}

// CorrectAnswerKey returns the display key of the correct answer.
func (gq *GameQuestion) CorrectAnswerKey() DisplayKey {
	return gq.Permutation.CorrectKey()
}

// AnswerCorrect reports whether the key selects the correct answer.
func (gq *GameQuestion) AnswerCorrect(k DisplayKey) bool {
	return k != "" && k == gq.CorrectAnswerKey()
}

// Variants returns the answer text under every display key.
func (gq *GameQuestion) Variants() map[DisplayKey]string {
	out := make(map[DisplayKey]string, AnswerCount)
	for i, k := range DisplayKeys {
		out[k] = gq.Question.Answer(gq.Permutation[i])
	}
	return out
}

// VisibleKeys returns the keys still selectable after any option reduction, in display order.
func (gq *GameQuestion) VisibleKeys() []DisplayKey {
	if r, ok := gq.Helps.OptionReduction(); ok {
		keys := make([]DisplayKey, 0, len(r.Keys))
		for _, k := range DisplayKeys {
			if r.Contains(k) {
				keys = append(keys, k)
			}
		}
		return keys
	}
	return slices.Clone(DisplayKeys[:])
}

// DisplayOption is a selectable key paired with its answer text.
type DisplayOption struct {
	Key  DisplayKey
	Text string
}

// CurrentDisplayOptions returns the visible keys paired with their answer text.
func (gq *GameQuestion) CurrentDisplayOptions() []DisplayOption {
	keys := gq.VisibleKeys()
	out := make([]DisplayOption, 0, len(keys))
	for _, k := range keys {
		slot, _ := gq.Permutation.Slot(k)
		out = append(out, DisplayOption{Key: k, Text: gq.Question.Answer(slot)})
	}
	return out
}
