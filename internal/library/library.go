// Package library holds the active card set: the built-in deck, or the
// custom cards a user imported or generated, persisted in a Store.
package library

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/storage"
)

// CustomCardsKey is the store key holding the custom card set.
const CustomCardsKey = "flashlearn-custom-cards"

//go:embed defaults.yaml
var defaultsYAML []byte

// Defaults returns a fresh copy of the built-in deck.
func Defaults() []domain.Card {
	var cards []domain.Card
	if err := yaml.Unmarshal(defaultsYAML, &cards); err != nil {
		panic("library: embedded defaults are invalid: " + err.Error())
	}
	return cards
}

// Library is the card repository. All methods are safe for concurrent use.
type Library struct {
	store  storage.Store
	logger *slog.Logger

	mu     sync.RWMutex
	active []domain.Card
	custom bool
}

// Open loads the active set from store. Stored content that cannot be
// used is discarded in favour of the defaults; Open never fails because
// of it.
func Open(store storage.Store, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	l := &Library{store: store, logger: logger}
	l.active, l.custom = l.load()
	return l
}

func (l *Library) load() ([]domain.Card, bool) {
	raw, ok, err := l.store.Get(CustomCardsKey)
	if err != nil {
		l.logger.Warn("Failed to read custom cards, using defaults", "error", err)
		return Defaults(), false
	}
	if !ok {
		return Defaults(), false
	}

	var cards []domain.Card
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		l.logger.Warn("Failed to parse custom cards, using defaults", "error", err)
		return Defaults(), false
	}
	if len(cards) == 0 {
		l.logger.Warn("Stored custom cards are empty, discarding")
		if err := l.store.Remove(CustomCardsKey); err != nil {
			l.logger.Warn("Failed to remove empty custom cards", "error", err)
		}
		return Defaults(), false
	}
	return cards, true
}

// Active returns a copy of the active card set.
func (l *Library) Active() []domain.Card {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.active)
}

// Custom reports whether the active set came from imported or generated
// cards rather than the built-in deck.
func (l *Library) Custom() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.custom
}

// Categories lists the distinct non-empty categories of the active set in
// first-seen order.
func (l *Library) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []string
	seen := make(map[string]bool)
	for _, c := range l.active {
		if c.Category == "" || seen[c.Category] {
			continue
		}
		seen[c.Category] = true
		out = append(out, c.Category)
	}
	return out
}

// SetActive replaces the custom set with cards and persists it. The
// in-memory set only changes once the store accepted the write.
func (l *Library) SetActive(cards []domain.Card) error {
	if len(cards) == 0 {
		return fmt.Errorf("refusing to store an empty card set")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commit(slices.Clone(cards))
}

// Append adds cards after the stored custom set. When only the built-in
// deck is active the custom set starts empty, so defaults are not copied.
func (l *Library) Append(cards []domain.Card) error {
	if len(cards) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var next []domain.Card
	if l.custom {
		next = slices.Clone(l.active)
	}
	next = append(next, cards...)
	return l.commit(next)
}

func (l *Library) commit(cards []domain.Card) error {
	data, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("failed to encode cards: %w", err)
	}
	if err := l.store.Set(CustomCardsKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist cards: %w", err)
	}
	l.active = cards
	l.custom = true
	return nil
}

// ResetToDefault drops the custom set. The in-memory set is restored even
// if removing the stored copy fails; that failure is returned.
func (l *Library) ResetToDefault() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.active = Defaults()
	l.custom = false
	if err := l.store.Remove(CustomCardsKey); err != nil {
		return fmt.Errorf("failed to remove custom cards: %w", err)
	}
	return nil
}
