package study

import (
	"fmt"
	"strings"

	"github.com/conorfennell/flashlearn/internal/domain"
)

const (
	AllCategories = "All Categories"
	AllLevels     = "All Levels"
	DefaultCount  = 10
)

// CountOptions is the menu of deck sizes offered to users.
var CountOptions = []int{5, 10, 15, 20}

// Filter narrows the active cards before a session starts.
type Filter struct {
	Category   string
	Difficulty string
	Count      int
}

// DefaultFilter matches every card and asks for DefaultCount of them.
func DefaultFilter() Filter {
	return Filter{Category: AllCategories, Difficulty: AllLevels, Count: DefaultCount}
}

// ParseFilter builds a normalised filter from user input. Empty category
// or difficulty select everything.
func ParseFilter(category, difficulty string, count int) (Filter, error) {
	f := Filter{Category: strings.TrimSpace(category), Difficulty: strings.TrimSpace(difficulty), Count: count}.normalize()
	if f.Difficulty != AllLevels {
		d, err := domain.ParseDifficulty(f.Difficulty)
		if err != nil {
			return Filter{}, err
		}
		f.Difficulty = string(d)
	}
	if f.Count < 1 {
		return Filter{}, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	return f, nil
}

func (f Filter) normalize() Filter {
	if f.Category == "" {
		f.Category = AllCategories
	}
	if f.Difficulty == "" {
		f.Difficulty = AllLevels
	}
	return f
}

// Match reports whether card passes the category and difficulty parts of
// the filter.
func (f Filter) Match(card domain.Card) bool {
	f = f.normalize()
	if f.Category != AllCategories && card.Category != f.Category {
		return false
	}
	if f.Difficulty != AllLevels && string(card.Difficulty) != f.Difficulty {
		return false
	}
	return true
}

// Apply returns the matching cards in their original order. Repeated IDs
// keep only their first occurrence.
func (f Filter) Apply(cards []domain.Card) []domain.Card {
	var out []domain.Card
	seen := make(map[string]bool, len(cards))
	for _, c := range cards {
		if !f.Match(c) || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

func (f Filter) String() string {
	f = f.normalize()
	return fmt.Sprintf("%s / %s / %d", f.Category, f.Difficulty, f.Count)
}
