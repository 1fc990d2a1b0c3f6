// Package gitsource keeps local checkouts of remote card repositories.
package gitsource

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Syncer clones or pulls repositories below a cache directory.
type Syncer struct {
	CacheDir string
	Progress io.Writer
	Logger   *slog.Logger
}

// Checkout makes sure an up-to-date copy of repoURL exists under the
// cache directory and returns its path.
func (s *Syncer) Checkout(repoURL string) (string, error) {
	localPath, err := LocalPath(s.CacheDir, repoURL)
	if err != nil {
		return "", err
	}
	if err := s.sync(repoURL, localPath); err != nil {
		return "", err
	}
	return localPath, nil
}

// sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does.
func (s *Syncer) sync(repoURL, localPath string) error {
	logger := s.logger()
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		logger.Info("Cloning repository", "url", repoURL, "path", localPath)
		_, err := git.PlainClone(localPath, false, &git.CloneOptions{
			URL:      repoURL,
			Progress: s.Progress,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", repoURL, err)
		}
	case err == nil:
		logger.Info("Pulling latest changes", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}
		err = worktree.Pull(&git.PullOptions{RemoteName: "origin", Progress: s.Progress})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}
	return nil
}

func (s *Syncer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// LocalPath maps an http(s) or scp-style git URL onto
// <baseDir>/<host>/<repo path>.
func LocalPath(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http" || parsed.Scheme == "file") {
		repoPath := strings.TrimSuffix(strings.Trim(parsed.Path, "/"), ".git")
		host := parsed.Host
		if host == "" {
			host = "local"
		}
		if repoPath == "" || strings.Contains(repoPath, "..") {
			return "", fmt.Errorf("could not parse git URL: %s", repoURL)
		}
		return filepath.Join(baseDir, host, filepath.FromSlash(repoPath)), nil
	}

	// git@host:owner/repo.git
	userHost, repoPath, ok := strings.Cut(repoURL, ":")
	if ok && strings.Contains(userHost, "@") {
		_, host, _ := strings.Cut(userHost, "@")
		repoPath = strings.TrimSuffix(strings.Trim(repoPath, "/"), ".git")
		if host != "" && repoPath != "" && !strings.Contains(repoPath, "..") {
			return filepath.Join(baseDir, host, filepath.FromSlash(repoPath)), nil
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
