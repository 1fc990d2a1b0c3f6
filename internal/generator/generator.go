// Package generator produces decks of cards from a topic.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/conorfennell/flashlearn/internal/clock"
	"github.com/conorfennell/flashlearn/internal/domain"
)

// DefaultDelay mimics the latency of a remote generator.
const DefaultDelay = time.Second

// Category is assigned to every generated card.
const Category = "Generated"

var ErrInvalidRequest = errors.New("invalid generation request")

// Request describes the deck to generate.
type Request struct {
	Topic      string            `validate:"required"`
	Difficulty domain.Difficulty `validate:"required,oneof=Easy Medium Hard"`
	Count      int               `validate:"oneof=5 10 15 20"`
}

// Generator turns a Request into cards.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]domain.Card, error)
}

// Mock generates placeholder cards after a fixed delay.
type Mock struct {
	clock    clock.Clock
	delay    time.Duration
	validate *validator.Validate
}

// NewMock returns a Mock that waits delay on clk before answering.
func NewMock(clk clock.Clock, delay time.Duration) *Mock {
	if clk == nil {
		clk = clock.Real()
	}
	return &Mock{
		clock:    clk,
		delay:    delay,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (m *Mock) Generate(ctx context.Context, req Request) ([]domain.Card, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if err := m.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.clock.After(m.delay):
	}

	cards := make([]domain.Card, 0, req.Count)
	for i := 1; i <= req.Count; i++ {
		cards = append(cards, domain.Card{
			ID:         "generated-" + uuid.NewString(),
			Question:   fmt.Sprintf("Sample question %d about %s?", i, req.Topic),
			Answer:     fmt.Sprintf("Sample answer %d about %s", i, req.Topic),
			Category:   Category,
			Difficulty: req.Difficulty,
		})
	}
	return cards, nil
}
