package study

import (
	"math/rand/v2"

	"github.com/conorfennell/flashlearn/internal/domain"
)

// Shuffle returns a uniformly random permutation of cards without touching
// the input. A nil rng uses the global source.
func Shuffle(cards []domain.Card, rng *rand.Rand) []domain.Card {
	shuffled := make([]domain.Card, len(cards))
	copy(shuffled, cards)

	swap := func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	if rng == nil {
		rand.Shuffle(len(shuffled), swap)
	} else {
		rng.Shuffle(len(shuffled), swap)
	}
	return shuffled
}
