package study

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/conorfennell/flashlearn/internal/clock"
	"github.com/conorfennell/flashlearn/internal/domain"
)

// DefaultKnowDelay is how long a Know judgement holds the lock before the
// card leaves the deck.
const DefaultKnowDelay = 700 * time.Millisecond

const tickInterval = time.Second

// Repository is the card source a Controller studies from.
type Repository interface {
	Active() []domain.Card
	ResetToDefault() error
}

// Event tells a listener what changed.
type Event int

const (
	EventStarted Event = iota + 1
	EventTick
	EventLocked
	EventJudged
	EventCompleted
	EventReset
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventTick:
		return "tick"
	case EventLocked:
		return "locked"
	case EventJudged:
		return "judged"
	case EventCompleted:
		return "completed"
	case EventReset:
		return "reset"
	}
	return "unknown"
}

// Phase is the controller's position in the session lifecycle.
type Phase int

const (
	PhaseIdle     Phase = iota // no session
	PhaseActive                // cards remain
	PhaseComplete              // deck emptied, summary available
)

// Snapshot is a read-only view of the controller for presentation layers.
type Snapshot struct {
	Phase       Phase
	SessionID   string
	Filter      Filter
	Card        domain.Card
	HasCard     bool
	Flipped     bool
	HintVisible bool
	Locked      bool
	Done        int
	Total       int
	Elapsed     int
	Summary     Summary
}

// Progress is the fraction of the deck finished, between 0 and 1.
func (s Snapshot) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Done) / float64(s.Total)
}

// Controller owns the current session and its timers. It is safe for
// concurrent use; timer callbacks and listener notifications happen on
// clock goroutines.
type Controller struct {
	repo      Repository
	clock     clock.Clock
	rng       *rand.Rand
	knowDelay time.Duration
	logger    *slog.Logger

	mu          sync.Mutex
	listener    func(Event)
	session     *Session
	flipped     bool
	hintVisible bool
	locked      bool
	generation  uint64
	tickTimer   *clock.Timer
	commitTimer *clock.Timer
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the real clock.
func WithClock(c clock.Clock) Option { return func(ctl *Controller) { ctl.clock = c } }

// WithRand sets the shuffle source.
func WithRand(r *rand.Rand) Option { return func(ctl *Controller) { ctl.rng = r } }

// WithKnowDelay sets the judgement lock duration. Zero commits Know
// judgements immediately.
func WithKnowDelay(d time.Duration) Option { return func(ctl *Controller) { ctl.knowDelay = d } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(ctl *Controller) { ctl.logger = l } }

// NewController returns an idle controller studying cards from repo.
func NewController(repo Repository, opts ...Option) *Controller {
	c := &Controller{
		repo:      repo,
		clock:     clock.Real(),
		knowDelay: DefaultKnowDelay,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetListener registers fn to be called after every state change. fn runs
// without the controller lock held, so it may call back into the
// controller.
func (c *Controller) SetListener(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = fn
}

// Start begins a new session over the repository's active cards. On
// ErrNoCards the current session, if any, is left as it was.
func (c *Controller) Start(f Filter) error {
	s, err := NewSession(c.repo.Active(), f, c.rng)
	if err != nil {
		c.logger.Info("Session not started", "filter", f.String(), "error", err)
		return err
	}
	id, err := gonanoid.New()
	if err != nil {
		return err
	}
	s.ID = id

	c.mu.Lock()
	c.stopClock()
	c.session = s
	c.flipped = false
	c.hintVisible = false
	c.startClock()
	listener := c.listener
	c.mu.Unlock()

	c.logger.Info("Session started", "session", s.ID, "filter", s.Filter.String(), "cards", s.InitialCardCount)
	notify(listener, EventStarted)
	return nil
}

// Judge records v for the current card. A Know judgement locks the
// controller for the know delay and commits afterwards; DontKnow commits
// at once.
func (c *Controller) Judge(v Verdict) error {
	if v != Know && v != DontKnow {
		return ErrInvalidVerdict
	}

	c.mu.Lock()
	if c.session == nil || !c.session.Active() {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	if c.locked {
		c.mu.Unlock()
		return ErrJudgementInFlight
	}

	if v == Know && c.knowDelay > 0 {
		c.locked = true
		c.hintVisible = false
		generation := c.generation
		c.commitTimer = c.clock.AfterFunc(c.knowDelay, func() { c.commitKnow(generation) })
		listener := c.listener
		c.mu.Unlock()
		notify(listener, EventLocked)
		return nil
	}

	event := c.applyLocked(v)
	listener := c.listener
	c.mu.Unlock()
	notify(listener, event)
	return nil
}

func (c *Controller) commitKnow(generation uint64) {
	c.mu.Lock()
	if generation != c.generation || !c.locked {
		c.mu.Unlock()
		return
	}
	c.locked = false
	c.commitTimer = nil
	event := c.applyLocked(Know)
	listener := c.listener
	c.mu.Unlock()
	notify(listener, event)
}

// applyLocked mutates the deck. Callers hold c.mu and have checked that
// the session is active.
func (c *Controller) applyLocked(v Verdict) Event {
	s := c.session
	if err := s.Judge(v); err != nil {
		c.logger.Warn("Judgement rejected", "session", s.ID, "verdict", v.String(), "error", err)
		return EventJudged
	}
	c.flipped = false
	c.hintVisible = false

	if !s.Active() {
		c.stopClock()
		sum := s.Summary()
		c.logger.Info("Session complete",
			"session", s.ID,
			"questions", sum.Questions,
			"known_first_try", sum.KnownFirstTry,
			"needed_review", sum.NeededReview,
			"elapsed", FormatElapsed(sum.ElapsedSeconds),
		)
		return EventCompleted
	}
	return EventJudged
}

// Flip turns the current card over. It is rejected while a Know
// judgement is in flight.
func (c *Controller) Flip() error {
	c.mu.Lock()
	if c.session == nil || !c.session.Active() {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	if c.locked {
		c.mu.Unlock()
		return ErrJudgementInFlight
	}
	c.flipped = !c.flipped
	c.hintVisible = false
	listener := c.listener
	c.mu.Unlock()
	notify(listener, EventJudged)
	return nil
}

// ToggleHint shows or hides the hint of the current card. Cards without a
// hint, flipped cards and locked cards keep the hint hidden.
func (c *Controller) ToggleHint() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.locked || c.flipped {
		return false
	}
	card, ok := c.session.Current()
	if !ok || !card.HasHint() {
		return false
	}
	c.hintVisible = !c.hintVisible
	return c.hintVisible
}

// Reset ends any session and restores the repository's default cards.
// The controller state is always cleared; a repository error is returned
// after the fact.
func (c *Controller) Reset() error {
	c.mu.Lock()
	c.stopClock()
	c.session = nil
	c.flipped = false
	c.hintVisible = false
	err := c.repo.ResetToDefault()
	listener := c.listener
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("Failed to persist reset", "error", err)
	}
	c.logger.Info("Study state reset to defaults")
	notify(listener, EventReset)
	return err
}

// Snapshot returns the current state for rendering.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Snapshot{Phase: PhaseIdle}
	}
	s := c.session
	snap := Snapshot{
		Phase:       PhaseActive,
		SessionID:   s.ID,
		Filter:      s.Filter,
		Flipped:     c.flipped,
		HintVisible: c.hintVisible,
		Locked:      c.locked,
		Done:        s.Done(),
		Total:       s.InitialCardCount,
		Elapsed:     s.Elapsed(),
		Summary:     s.Summary(),
	}
	snap.Card, snap.HasCard = s.Current()
	if !s.Active() {
		snap.Phase = PhaseComplete
	}
	return snap
}

// Summary returns the outcome of the current session. ok is false when
// there is no session or it has not completed.
func (c *Controller) Summary() (sum Summary, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.Active() {
		return Summary{}, false
	}
	return c.session.Summary(), true
}

// startClock arms the one-second tick for the current session. Callers
// hold c.mu.
func (c *Controller) startClock() {
	generation := c.generation
	c.tickTimer = c.clock.AfterFunc(tickInterval, func() { c.tick(generation) })
}

// stopClock cancels every timer owned by the current session and makes
// any callback already in flight a no-op. Every transition that
// deactivates a session goes through here. Callers hold c.mu.
func (c *Controller) stopClock() {
	c.generation++
	c.tickTimer.Stop()
	c.tickTimer = nil
	c.commitTimer.Stop()
	c.commitTimer = nil
	c.locked = false
}

func (c *Controller) tick(generation uint64) {
	c.mu.Lock()
	if generation != c.generation || c.session == nil || !c.session.Tick() {
		c.mu.Unlock()
		return
	}
	c.startClock()
	listener := c.listener
	c.mu.Unlock()
	notify(listener, EventTick)
}

func notify(listener func(Event), e Event) {
	if listener != nil {
		listener(e)
	}
}
