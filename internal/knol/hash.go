package knol

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/conorfennell/flashlearn/internal/domain"
)

// idLength is the number of hex characters of the hash kept in an ID.
const idLength = 12

// Normalize concatenates the card's content after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for each field
// before joining them.
func Normalize(card domain.Card) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	q := normalizePart(card.Question)
	a := normalizePart(card.Answer)
	c := normalizePart(card.Category)
	h := normalizePart(card.Hint)

	// Fields are newline-separated so "question"+"answer" never collides
	// with "questionanswer".
	return strings.Join([]string{q, a, c, h}, "\n")
}

// Hash takes a card, normalizes it, and returns its SHA-256 hash as a hex string.
func Hash(card domain.Card) string {
	normalized := Normalize(card)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}

// ID derives a stable card identifier from the card's content and its
// position in the batch it arrived in. The same file imported twice yields
// the same IDs; identical lines within one file still get distinct IDs.
func ID(prefix string, card domain.Card, position int) string {
	salted := Hash(card) + "\n" + strconv.Itoa(position)
	sum := sha256.Sum256([]byte(salted))
	return prefix + "-" + fmt.Sprintf("%x", sum)[:idLength]
}
