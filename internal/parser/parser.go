package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/knol"
)

const (
	separator = ","
	quote     = `"`
	idPrefix  = "imported"
)

// ErrEmpty is returned when the input holds no non-blank lines.
var ErrEmpty = errors.New("file is empty or contains no flashcard data")

// LineError describes the line that aborted an import. Line counts
// non-blank lines from 1.
type LineError struct {
	Line   int
	Reason string
	Text   string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %s: %q", e.Line, e.Reason, e.Text)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads question,answer lines from an io.Reader. The first bad line
// aborts the whole batch: either every card is returned or none is.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.Card
	lineNo := 0

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNo++

		card, err := parseLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		card.ID = knol.ID(idPrefix, card, lineNo-1)
		cards = append(cards, card)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, ErrEmpty
	}
	return cards, nil
}

func parseLine(line string, lineNo int) (domain.Card, error) {
	question, answer, found := strings.Cut(line, separator)
	if !found {
		return domain.Card{}, &LineError{Line: lineNo, Reason: "does not have enough columns (question,answer)", Text: line}
	}

	card := domain.Card{
		Question: unquote(question),
		Answer:   unquote(answer),
	}
	if err := validate.Struct(card); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.Card{}, &LineError{Line: lineNo, Reason: "has empty " + strings.ToLower(verrs[0].Field()), Text: line}
		}
		return domain.Card{}, fmt.Errorf("validating line %d: %w", lineNo, err)
	}
	return card, nil
}

// unquote trims the field, then drops one leading and one trailing quote
// independently of each other.
func unquote(field string) string {
	s := strings.TrimSpace(field)
	s = strings.TrimPrefix(s, quote)
	s = strings.TrimSuffix(s, quote)
	return s
}
