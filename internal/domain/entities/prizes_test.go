package entities

import (
	"errors"
	"testing"
)

func TestDefaultScoreTable(t *testing.T) {
	st := DefaultScoreTable()

	if st.Levels() != 15 || st.LastLevel() != 14 {
		t.Fatalf("levels = %d, last = %d", st.Levels(), st.LastLevel())
	}
	if st.TopPrize() != 1_000_000 {
		t.Fatalf("top prize = %d", st.TopPrize())
	}

	tests := []struct {
		level     int
		prize     int64
		floor     int64
		fireproof bool
	}{
		{-1, 0, 0, false},
		{0, 100, 0, false},
		{3, 500, 0, false},
		{4, 1_000, 1_000, true},
		{8, 16_000, 1_000, false},
		{9, 32_000, 32_000, true},
		{13, 500_000, 32_000, false},
		{14, 1_000_000, 1_000_000, true},
		{15, 0, 1_000_000, false},
	}

	for _, tt := range tests {
		if got := st.PrizeForLevel(tt.level); got != tt.prize {
			t.Errorf("PrizeForLevel(%d) = %d, want %d", tt.level, got, tt.prize)
		}
		if got := st.FireproofFloor(tt.level); got != tt.floor {
			t.Errorf("FireproofFloor(%d) = %d, want %d", tt.level, got, tt.floor)
		}
		if got := st.IsFireproof(tt.level); got != tt.fireproof {
			t.Errorf("IsFireproof(%d) = %v, want %v", tt.level, got, tt.fireproof)
		}
	}
}

func TestNewScoreTableValidation(t *testing.T) {
	tests := map[string]struct {
		prizes    []int64
		fireproof []int
	}{
		"empty":          {nil, nil},
		"zero prize":     {[]int64{0, 10}, nil},
		"not increasing": {[]int64{10, 10}, nil},
		"floor too high": {[]int64{10, 20}, []int{2}},
		"negative floor": {[]int64{10, 20}, []int{-1}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewScoreTable(tt.prizes, tt.fireproof)
			if !errors.Is(err, ErrInvalidScoreTable) {
				t.Fatalf("err = %v, want ErrInvalidScoreTable", err)
			}
		})
	}
}

func TestNewScoreTableNormalizesFloors(t *testing.T) {
	st, err := NewScoreTable([]int64{1, 2, 3, 4}, []int{3, 1, 1})
	if err != nil {
		t.Fatalf("NewScoreTable: %v", err)
	}
	if st.FireproofFloor(2) != 2 || st.FireproofFloor(3) != 4 {
		t.Fatalf("floors = %d, %d", st.FireproofFloor(2), st.FireproofFloor(3))
	}
}
