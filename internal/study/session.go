package study

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/conorfennell/flashlearn/internal/domain"
)

var (
	ErrNoCards           = errors.New("no cards available for the selected category and difficulty")
	ErrInvalidCount      = errors.New("question count must be at least 1")
	ErrNoActiveSession   = errors.New("no active session")
	ErrJudgementInFlight = errors.New("a judgement is already in progress")
	ErrInvalidVerdict    = errors.New("invalid verdict")
)

// Verdict is the user's judgement of the current card.
type Verdict int

const (
	Know Verdict = iota + 1
	DontKnow
)

func (v Verdict) String() string {
	switch v {
	case Know:
		return "know"
	case DontKnow:
		return "dont_know"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// ParseVerdict accepts "know" and "dont_know" (also "dontknow" and
// "dont-know").
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "know":
		return Know, nil
	case "dont_know", "dontknow", "dont-know":
		return DontKnow, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidVerdict, s)
}

// Session is one run through a deck. It holds no timers; the Controller
// drives Tick.
type Session struct {
	ID               string
	Filter           Filter
	InitialCardCount int

	deck        []domain.Card
	known       map[string]struct{}
	dontKnow    map[string]struct{}
	encountered map[string]struct{}
	elapsed     int
	active      bool
}

// NewSession filters cards, shuffles the result with rng and bounds it to
// f.Count. It returns ErrNoCards when nothing matches.
func NewSession(cards []domain.Card, f Filter, rng *rand.Rand) (*Session, error) {
	f = f.normalize()
	if f.Count < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, f.Count)
	}

	filtered := f.Apply(cards)
	if len(filtered) == 0 {
		return nil, ErrNoCards
	}

	deck := Shuffle(filtered, rng)
	if len(deck) > f.Count {
		deck = deck[:f.Count]
	}

	return &Session{
		Filter:           f,
		InitialCardCount: len(deck),
		deck:             deck,
		known:            make(map[string]struct{}),
		dontKnow:         make(map[string]struct{}),
		encountered:      make(map[string]struct{}),
		active:           true,
	}, nil
}

// Active reports whether the session still accepts judgements.
func (s *Session) Active() bool { return s.active }

// Current returns the card at the front of the deck.
func (s *Session) Current() (domain.Card, bool) {
	if len(s.deck) == 0 {
		return domain.Card{}, false
	}
	return s.deck[0], true
}

// Deck returns a copy of the remaining cards, front first.
func (s *Session) Deck() []domain.Card { return slices.Clone(s.deck) }

// Remaining is the number of cards left in the deck.
func (s *Session) Remaining() int { return len(s.deck) }

// Done is the number of cards that have left the deck.
func (s *Session) Done() int { return s.InitialCardCount - len(s.deck) }

// Elapsed is the number of seconds ticked while the session was active.
func (s *Session) Elapsed() int { return s.elapsed }

// Judge applies v to the front card. Only a card's first judgement counts
// towards the known / needed-review totals. Know removes the card;
// DontKnow moves it to the back, except for the last card, which is
// dropped and ends the session.
func (s *Session) Judge(v Verdict) error {
	if v != Know && v != DontKnow {
		return fmt.Errorf("%w: %d", ErrInvalidVerdict, int(v))
	}
	if !s.active || len(s.deck) == 0 {
		return ErrNoActiveSession
	}

	card := s.deck[0]
	if _, seen := s.encountered[card.ID]; !seen {
		s.encountered[card.ID] = struct{}{}
		if v == Know {
			s.known[card.ID] = struct{}{}
		} else {
			s.dontKnow[card.ID] = struct{}{}
		}
	}

	switch {
	case v == Know, len(s.deck) == 1:
		s.deck = s.deck[1:]
	default:
		next := make([]domain.Card, 0, len(s.deck))
		next = append(next, s.deck[1:]...)
		s.deck = append(next, card)
	}

	if len(s.deck) == 0 {
		s.active = false
	}
	return nil
}

// Tick adds one second while the session is active and reports whether it
// did.
func (s *Session) Tick() bool {
	if !s.active || len(s.deck) == 0 {
		return false
	}
	s.elapsed++
	return true
}

// Summary is the outcome of a session.
type Summary struct {
	Filter         Filter
	Questions      int
	KnownFirstTry  int
	NeededReview   int
	ElapsedSeconds int
}

// Summary reports the first-encounter totals so far.
func (s *Session) Summary() Summary {
	return Summary{
		Filter:         s.Filter,
		Questions:      s.InitialCardCount,
		KnownFirstTry:  len(s.known),
		NeededReview:   len(s.dontKnow),
		ElapsedSeconds: s.elapsed,
	}
}

// KnownFirstTry reports whether id was known on its first judgement.
func (s *Session) KnownFirstTry(id string) bool {
	_, ok := s.known[id]
	return ok
}

// NeededReview reports whether id was not known on its first judgement.
func (s *Session) NeededReview(id string) bool {
	_, ok := s.dontKnow[id]
	return ok
}

// FormatElapsed renders seconds as MM:SS.
func FormatElapsed(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
