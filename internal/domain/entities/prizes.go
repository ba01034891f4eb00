package entities

import (
	"fmt"
	"slices"
)

// DefaultPrizes is the prize ladder indexed by level.
var DefaultPrizes = []int64{
	100, 200, 300, 500, 1_000,
	2_000, 4_000, 8_000, 16_000, 32_000,
	64_000, 125_000, 250_000, 500_000, 1_000_000,
}

// DefaultFireproofLevels are the levels whose prize is kept after a later failure.
var DefaultFireproofLevels = []int{4, 9, 14}

// ScoreTable maps levels to prize amounts and marks the fireproof floors.
type ScoreTable struct {
	prizes    []int64
	fireproof []int // sorted ascending
}

// NewScoreTable builds a score table. Prizes must be positive and strictly increasing,
// and every fireproof level must be a valid level.
func NewScoreTable(prizes []int64, fireproofLevels []int) (ScoreTable, error) {
	if len(prizes) == 0 {
		return ScoreTable{}, fmt.Errorf("%w: no prizes", ErrInvalidScoreTable)
	}

	for i, p := range prizes {
		if p <= 0 {
			return ScoreTable{}, fmt.Errorf("%w: prize at level %d is not positive", ErrInvalidScoreTable, i)
		}
		if i > 0 && p <= prizes[i-1] {
			return ScoreTable{}, fmt.Errorf("%w: prize at level %d does not increase", ErrInvalidScoreTable, i)
		}
	}

	fireproof := slices.Clone(fireproofLevels)
	slices.Sort(fireproof)
	fireproof = slices.Compact(fireproof)
	for _, l := range fireproof {
		if l < 0 || l >= len(prizes) {
			return ScoreTable{}, fmt.Errorf("%w: fireproof level %d out of range", ErrInvalidScoreTable, l)
		}
	}

	return ScoreTable{
		prizes:    slices.Clone(prizes),
		fireproof: fireproof,
	}, nil
}

// DefaultScoreTable returns the standard fifteen-level table.
func DefaultScoreTable() ScoreTable {
	t, err := NewScoreTable(DefaultPrizes, DefaultFireproofLevels)
	if err != nil {
		panic(err)
	}
	return t
}

// Levels returns the number of levels in the table.
func (t ScoreTable) Levels() int {
	return len(t.prizes)
}

// LastLevel returns the highest valid level.
func (t ScoreTable) LastLevel() int {
	return len(t.prizes) - 1
}

// LevelRange returns all levels in ascending order.
func (t ScoreTable) LevelRange() []int {
	levels := make([]int, len(t.prizes))
	for i := range levels {
		levels[i] = i
	}
	return levels
}

// PrizeForLevel returns the prize for clearing the given level, or 0 outside the table.
func (t ScoreTable) PrizeForLevel(level int) int64 {
	if level < 0 || level >= len(t.prizes) {
		return 0
	}
	return t.prizes[level]
}

// TopPrize returns the prize for clearing the last level.
func (t ScoreTable) TopPrize() int64 {
	return t.PrizeForLevel(t.LastLevel())
}

// FireproofFloor returns the largest fireproof prize at or below level, or 0 if none.
func (t ScoreTable) FireproofFloor(level int) int64 {
	var floor int64
	for _, l := range t.fireproof {
		if l > level {
			break
		}
		floor = t.prizes[l]
	}
	return floor
}

// IsFireproof reports whether the level is a fireproof floor.
func (t ScoreTable) IsFireproof(level int) bool {
	_, found := slices.BinarySearch(t.fireproof, level)
	return found
}
