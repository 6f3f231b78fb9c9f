// Package vcs commits vault changes made by a sync pass to git.
package vcs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// Committer stages and commits everything under a vault directory.
type Committer struct {
	VaultPath   string
	AuthorName  string
	AuthorEmail string
	// Push sends the commit to the default remote afterwards.
	Push bool
	// SSHKeyPath is used for pushing; empty means ~/.ssh/id_rsa when present.
	SSHKeyPath string
	Logger     *slog.Logger
	Now        func() time.Time
}

// Commit records pending changes. A vault outside any repository, or one
// with nothing to commit, is not an error.
func (c *Committer) Commit(message string) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repo, err := git.PlainOpenWithOptions(c.VaultPath, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		logger.Debug("vcs: vault is not a git repository", slog.String("path", c.VaultPath))
		return nil
	}
	if err != nil {
		return fmt.Errorf("vcs: open repo: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("vcs: worktree: %w", err)
	}

	scope, err := c.scope(wt.Filesystem.Root())
	if err != nil {
		return err
	}
	if _, err := wt.Add(scope); err != nil {
		return fmt.Errorf("vcs: add %s: %w", scope, err)
	}

	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("vcs: status: %w", err)
	}
	if !hasStaged(status) {
		logger.Debug("vcs: nothing to commit")
		return nil
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  orDefault(c.AuthorName, "granola-sync"),
			Email: orDefault(c.AuthorEmail, "granola-sync@localhost.localdomain"),
			When:  now(),
		},
	})
	if err != nil {
		return fmt.Errorf("vcs: commit: %w", err)
	}
	logger.Info("vcs: committed", slog.String("hash", hash.String()))

	if c.Push {
		return c.push(repo, logger)
	}
	return nil
}

// scope is the vault directory relative to the worktree root.
func (c *Committer) scope(root string) (string, error) {
	abs, err := filepath.Abs(c.VaultPath)
	if err != nil {
		return "", fmt.Errorf("vcs: resolve vault: %w", err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("vcs: vault outside worktree: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

func (c *Committer) push(repo *git.Repository, logger *slog.Logger) error {
	opts := &git.PushOptions{}
	keyPath := c.SSHKeyPath
	if keyPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			keyPath = filepath.Join(home, ".ssh", "id_rsa")
		}
	}
	if keyPath != "" {
		if keys, err := ssh.NewPublicKeysFromFile("git", keyPath, ""); err == nil {
			opts.Auth = keys
		} else {
			logger.Debug("vcs: no ssh key, pushing without explicit auth", slog.String("error", err.Error()))
		}
	}

	err := repo.Push(opts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("vcs: push: %w", err)
	}
	return nil
}

func hasStaged(status git.Status) bool {
	for _, fs := range status {
		if fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
