// Package importer replaces the active card set with cards read from CSV
// files, uploads or git repositories.
package importer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/gitsource"
	"github.com/conorfennell/flashlearn/internal/parser"
)

const csvType = "text/csv"

var ErrInvalidFileType = errors.New("invalid file type, please upload a .csv file")

func init() {
	// Not every system mime table knows about .csv.
	if err := mime.AddExtensionType(".csv", csvType); err != nil {
		panic(err)
	}
}

// Target receives the imported cards.
type Target interface {
	SetActive(cards []domain.Card) error
}

// Checkouter fetches a repository and returns its local path.
type Checkouter interface {
	Checkout(repoURL string) (string, error)
}

// Importer parses card files and commits them to a Target. A batch is
// committed only when every line parses.
type Importer struct {
	target Target
	git    Checkouter
	logger *slog.Logger
}

// New returns an Importer writing to target. git may be nil when
// repository imports are not needed.
func New(target Target, git Checkouter, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{target: target, git: git, logger: logger}
}

// ImportFile imports the CSV file at path.
func (im *Importer) ImportFile(path string) ([]domain.Card, error) {
	if !isCSV(path, "") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, filepath.Base(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return im.ImportReader(filepath.Base(path), csvType, f)
}

// ImportReader imports an uploaded file. contentType is checked first;
// when it is empty the extension of name decides.
func (im *Importer) ImportReader(name, contentType string, r io.Reader) ([]domain.Card, error) {
	if !isCSV(name, contentType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, name)
	}
	cards, err := parser.Parse(r)
	if err != nil {
		im.logger.Warn("Import rejected", "file", name, "error", err)
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if err := im.target.SetActive(cards); err != nil {
		return nil, fmt.Errorf("failed to save imported cards: %w", err)
	}
	im.logger.Info("Cards imported", "file", name, "cards", len(cards))
	return cards, nil
}

// ImportGit checks out repoURL and imports the CSV at path inside it.
func (im *Importer) ImportGit(repoURL, path string) ([]domain.Card, error) {
	if im.git == nil {
		return nil, errors.New("git imports are not configured")
	}
	root, err := im.git.Checkout(repoURL)
	if err != nil {
		return nil, err
	}
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("path %q escapes the repository", path)
	}
	return im.ImportFile(filepath.Join(root, clean))
}

func isCSV(name, contentType string) bool {
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == csvType
}

var _ Checkouter = (*gitsource.Syncer)(nil)
