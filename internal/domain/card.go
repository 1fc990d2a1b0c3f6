package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDifficulty = errors.New("unknown difficulty")

// Difficulty is the optional rating attached to a card.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Difficulties lists the valid ratings in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty maps a label onto a Difficulty, ignoring case.
func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Difficulties {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrInvalidDifficulty, s)
}

// Card represents a single question-answer study unit.
// Category, Difficulty and Hint are optional; an empty value means
// uncategorized, unrated or no hint respectively.
type Card struct {
	ID         string     `json:"id" yaml:"id"`
	Question   string     `json:"question" yaml:"question" validate:"required"`
	Answer     string     `json:"answer" yaml:"answer" validate:"required"`
	Category   string     `json:"category,omitempty" yaml:"category,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty" yaml:"difficulty,omitempty" validate:"omitempty,oneof=Easy Medium Hard"`
	Hint       string     `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// HasHint reports whether the card carries supplementary text.
func (c Card) HasHint() bool {
	return strings.TrimSpace(c.Hint) != ""
}
