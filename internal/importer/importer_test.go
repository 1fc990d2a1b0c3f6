package importer

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/parser"
)

type recordingTarget struct {
	cards []domain.Card
	calls int
	err   error
}

func (r *recordingTarget) SetActive(cards []domain.Card) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.cards = cards
	return nil
}

type fakeCheckout struct{ root string }

func (f fakeCheckout) Checkout(string) (string, error) { return f.root, nil }

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	target := &recordingTarget{}
	im := New(target, nil, discard)

	path := writeFile(t, dir, "deck.csv", "What is Go?,A language\n\n\"Q2\",\"A, with comma\"\n")
	cards, err := im.ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile returned an unexpected error: %v", err)
	}
	if len(cards) != 2 || len(target.cards) != 2 {
		t.Fatalf("Expected 2 cards committed, but got %d / %d", len(cards), len(target.cards))
	}
	if target.cards[1].Question != "Q2" || target.cards[1].Answer != "A, with comma" {
		t.Errorf("Unexpected second card: %+v", target.cards[1])
	}
}

func TestImportRejectsWrongType(t *testing.T) {
	dir := t.TempDir()
	target := &recordingTarget{}
	im := New(target, nil, discard)

	path := writeFile(t, dir, "deck.txt", "Q,A\n")
	if _, err := im.ImportFile(path); !errors.Is(err, ErrInvalidFileType) {
		t.Errorf("Expected ErrInvalidFileType, but got %v", err)
	}
	if _, err := im.ImportReader("deck.csv", "application/pdf", strings.NewReader("Q,A")); !errors.Is(err, ErrInvalidFileType) {
		t.Errorf("Expected ErrInvalidFileType for a pdf upload, but got %v", err)
	}
	if target.calls != 0 {
		t.Errorf("Expected nothing committed, but got %d calls", target.calls)
	}
}

func TestImportReaderContentType(t *testing.T) {
	target := &recordingTarget{}
	im := New(target, nil, discard)

	if _, err := im.ImportReader("upload", "text/csv; charset=utf-8", strings.NewReader("Q,A")); err != nil {
		t.Errorf("Expected a text/csv upload to be accepted, but got %v", err)
	}
	if _, err := im.ImportReader("deck.CSV", "", strings.NewReader("Q,A")); err != nil {
		t.Errorf("Expected the extension to decide without a content type, but got %v", err)
	}
}

func TestImportWholeBatchRejected(t *testing.T) {
	target := &recordingTarget{}
	im := New(target, nil, discard)

	_, err := im.ImportReader("deck.csv", "text/csv", strings.NewReader("\"Q1,A1\"\n\"Q2\"\n"))
	var lineErr *parser.LineError
	if !errors.As(err, &lineErr) {
		t.Fatalf("Expected a LineError, but got %v", err)
	}
	if lineErr.Line != 2 {
		t.Errorf("Expected line 2, but got %d", lineErr.Line)
	}
	if target.calls != 0 {
		t.Error("Expected nothing committed for a rejected batch")
	}

	if _, err := im.ImportReader("empty.csv", "text/csv", strings.NewReader("\n  \n")); !errors.Is(err, parser.ErrEmpty) {
		t.Errorf("Expected ErrEmpty, but got %v", err)
	}
}

func TestImportTargetError(t *testing.T) {
	target := &recordingTarget{err: errors.New("store down")}
	im := New(target, nil, discard)
	if _, err := im.ImportReader("deck.csv", "text/csv", strings.NewReader("Q,A")); err == nil {
		t.Error("Expected the target error to be returned")
	}
}

func TestImportGit(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "decks"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "decks"), "go.csv", "Q,A\nQ2,A2\n")

	target := &recordingTarget{}
	im := New(target, fakeCheckout{root: root}, discard)

	cards, err := im.ImportGit("https://example.com/cards.git", "decks/go.csv")
	if err != nil {
		t.Fatalf("ImportGit returned an unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Errorf("Expected 2 cards, but got %d", len(cards))
	}

	if _, err := im.ImportGit("https://example.com/cards.git", "../outside.csv"); err == nil {
		t.Error("Expected a path outside the repository to be rejected")
	}
	if _, err := New(target, nil, discard).ImportGit("https://example.com/cards.git", "go.csv"); err == nil {
		t.Error("Expected an error without a git source")
	}
}
