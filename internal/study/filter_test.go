package study

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/conorfennell/flashlearn/internal/domain"
)

func sampleCards() []domain.Card {
	return []domain.Card{
		{ID: "1", Question: "2+2?", Answer: "4", Category: "Math", Difficulty: domain.Easy},
		{ID: "2", Question: "Capital of France?", Answer: "Paris", Category: "Geography", Difficulty: domain.Easy},
		{ID: "3", Question: "sqrt(144)?", Answer: "12", Category: "Math", Difficulty: domain.Medium, Hint: "A dozen."},
		{ID: "4", Question: "Derivative of x^2?", Answer: "2x", Category: "Math", Difficulty: domain.Hard},
		{ID: "5", Question: "Longest river?", Answer: "Nile", Category: "Geography", Difficulty: domain.Medium},
	}
}

func TestParseFilter(t *testing.T) {
	testCases := []struct {
		name       string
		category   string
		difficulty string
		count      int
		expected   Filter
		wantErr    error
	}{
		{name: "empty selects all", count: 10, expected: Filter{Category: AllCategories, Difficulty: AllLevels, Count: 10}},
		{name: "sentinels kept", category: AllCategories, difficulty: AllLevels, count: 5, expected: Filter{Category: AllCategories, Difficulty: AllLevels, Count: 5}},
		{name: "difficulty canonicalised", category: " Math ", difficulty: "hard", count: 15, expected: Filter{Category: "Math", Difficulty: "Hard", Count: 15}},
		{name: "zero count", count: 0, wantErr: ErrInvalidCount},
		{name: "unknown difficulty", difficulty: "Impossible", count: 5, wantErr: domain.ErrInvalidDifficulty},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseFilter(tc.category, tc.difficulty, tc.count)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Expected error %v, but got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFilter returned an unexpected error: %v", err)
			}
			if f != tc.expected {
				t.Errorf("Expected %+v, but got %+v", tc.expected, f)
			}
		})
	}
}

func TestFilterApply(t *testing.T) {
	testCases := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{name: "all", filter: DefaultFilter(), expected: []string{"1", "2", "3", "4", "5"}},
		{name: "category", filter: Filter{Category: "Math"}, expected: []string{"1", "3", "4"}},
		{name: "difficulty", filter: Filter{Difficulty: "Medium"}, expected: []string{"3", "5"}},
		{name: "both", filter: Filter{Category: "Geography", Difficulty: "Easy"}, expected: []string{"2"}},
		{name: "nothing", filter: Filter{Category: "History"}, expected: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(tc.filter.Apply(sampleCards()))
			if !equalIDs(got, tc.expected) {
				t.Errorf("Expected %v, but got %v", tc.expected, got)
			}
		})
	}
}

func TestFilterApplyDropsDuplicateIDs(t *testing.T) {
	cards := append(sampleCards(), domain.Card{ID: "1", Question: "dup", Answer: "dup"})
	got := DefaultFilter().Apply(cards)
	if len(got) != 5 {
		t.Fatalf("Expected 5 unique cards, but got %d", len(got))
	}
	if got[0].Question != "2+2?" {
		t.Errorf("Expected the first occurrence to win, but got %q", got[0].Question)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	cards := sampleCards()
	shuffled := Shuffle(cards, rand.New(rand.NewPCG(1, 2)))

	if len(shuffled) != len(cards) {
		t.Fatalf("Expected %d cards, but got %d", len(cards), len(shuffled))
	}
	seen := make(map[string]int)
	for _, c := range shuffled {
		seen[c.ID]++
	}
	for _, c := range cards {
		if seen[c.ID] != 1 {
			t.Errorf("Expected card %s exactly once, but got %d", c.ID, seen[c.ID])
		}
	}
	if !equalIDs(ids(cards), []string{"1", "2", "3", "4", "5"}) {
		t.Error("Expected Shuffle to leave its input untouched")
	}
}

func TestShuffleDeterministicWithSeed(t *testing.T) {
	a := ids(Shuffle(sampleCards(), rand.New(rand.NewPCG(7, 7))))
	b := ids(Shuffle(sampleCards(), rand.New(rand.NewPCG(7, 7))))
	if !equalIDs(a, b) {
		t.Errorf("Expected equal seeds to give equal orders, got %v and %v", a, b)
	}
}

func TestFormatElapsed(t *testing.T) {
	testCases := map[int]string{0: "00:00", 9: "00:09", 65: "01:05", 600: "10:00", 3599: "59:59"}
	for seconds, expected := range testCases {
		if got := FormatElapsed(seconds); got != expected {
			t.Errorf("FormatElapsed(%d): expected %q, but got %q", seconds, expected, got)
		}
	}
}

func ids(cards []domain.Card) []string {
	var out []string
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
