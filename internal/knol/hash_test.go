package knol

import (
	"strings"
	"testing"

	"github.com/conorfennell/flashlearn/internal/domain"
)

func TestNormalize(t *testing.T) {
	card := domain.Card{
		Question: "  What is an API? \r\n",
		Answer:   "Application Programming Interface",
		Category: "Programming Concepts",
		Hint:     "It allows different software to communicate.",
	}
	expected := "what is an api?\napplication programming interface\nprogramming concepts\nit allows different software to communicate."
	normalized := Normalize(card)

	if normalized != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, normalized)
	}
}

func TestHash(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		card := domain.Card{
			Question: "Q",
			Answer:   "A",
			Category: "C",
			Hint:     "H",
		}
		// Hash for "q\na\nc\nh"
		expectedHash := "6cb40c0394358e16fb64347ee1bffc654c57b6a2fb6e2363fc10bdfd9758ae40"
		hash := Hash(card)

		if hash != expectedHash {
			t.Errorf("Expected hash '%s', but got '%s'", expectedHash, hash)
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		card1 := domain.Card{Question: "  what is go? ", Answer: "A programming language."}
		card2 := domain.Card{Question: "What Is Go?", Answer: "A programming language."}
		if Hash(card1) != Hash(card2) {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("different cards have different hashes", func(t *testing.T) {
		card1 := domain.Card{Question: "Card 1"}
		card2 := domain.Card{Question: "Card 2"}
		if Hash(card1) == Hash(card2) {
			t.Error("Expected hashes for different cards to be different")
		}
	})
}

func TestID(t *testing.T) {
	card := domain.Card{Question: "Q", Answer: "A"}

	t.Run("known value", func(t *testing.T) {
		// Hash prefix for Hash(card)+"\n0"
		if got := ID("imported", card, 0); got != "imported-b63f0ddade31" {
			t.Errorf("Expected 'imported-b63f0ddade31', but got '%s'", got)
		}
	})

	t.Run("stable across calls", func(t *testing.T) {
		if ID("imported", card, 3) != ID("imported", card, 3) {
			t.Error("Expected identical input to produce identical IDs")
		}
	})

	t.Run("position distinguishes duplicates", func(t *testing.T) {
		if ID("imported", card, 0) == ID("imported", card, 1) {
			t.Error("Expected duplicate cards at different positions to get different IDs")
		}
	})

	t.Run("prefix", func(t *testing.T) {
		id := ID("imported", card, 0)
		if !strings.HasPrefix(id, "imported-") || len(id) != len("imported-")+idLength {
			t.Errorf("Unexpected ID shape %q", id)
		}
	})
}
