package publish

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"
)

// CommitMessage is used for every data commit
const CommitMessage = "data update"

// GitOptions configures the output repository push
type GitOptions struct {
	RepoDir     string
	Remote      string
	Branch      string
	AuthorName  string
	AuthorEmail string
	Token       string // Optional, sent as HTTP basic auth
}

// GitPusher commits published files and pushes them upstream
type GitPusher struct {
	opts   GitOptions
	logger *zap.Logger
}

// NewGitPusher creates a pusher for the repository at opts.RepoDir
func NewGitPusher(opts GitOptions, logger *zap.Logger) *GitPusher {
	if opts.Remote == "" {
		opts.Remote = git.DefaultRemoteName
	}
	if opts.Branch == "" {
		opts.Branch = "master"
	}
	return &GitPusher{opts: opts, logger: logger.Named("git")}
}

// Push adds paths, commits them and pushes the branch. Nothing to commit or
// an up to date remote is not an error.
func (g *GitPusher) Push(ctx context.Context, paths []string) error {
	repo, err := git.PlainOpen(g.opts.RepoDir)
	if err != nil {
		return fmt.Errorf("opening repository %s: %w", g.opts.RepoDir, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	for _, p := range paths {
		rel, err := g.relative(p)
		if err != nil {
			return err
		}
		if _, err := wt.Add(rel); err != nil {
			return fmt.Errorf("adding %s: %w", rel, err)
		}
	}

	hash, err := wt.Commit(CommitMessage, &git.CommitOptions{
		Author: &object.Signature{
			Name:  g.opts.AuthorName,
			Email: g.opts.AuthorEmail,
			When:  time.Now(),
		},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		g.logger.Info("Nothing to commit")
		return nil
	}
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	g.logger.Info("Committed data update", zap.String("commit", hash.String()), zap.Int("files", len(paths)))

	ref := fmt.Sprintf("refs/heads/%s:refs/heads/%s", g.opts.Branch, g.opts.Branch)
	pushOpts := &git.PushOptions{
		RemoteName: g.opts.Remote,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(ref)},
	}
	if g.opts.Token != "" {
		pushOpts.Auth = &githttp.BasicAuth{Username: "linelist", Password: g.opts.Token}
	}

	err = repo.PushContext(ctx, pushOpts)
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		g.logger.Info("Remote already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("pushing to %s: %w", g.opts.Remote, err)
	}
	g.logger.Info("Pushed data update", zap.String("remote", g.opts.Remote), zap.String("branch", g.opts.Branch))
	return nil
}

func (g *GitPusher) relative(path string) (string, error) {
	absRepo, err := filepath.Abs(g.opts.RepoDir)
	if err != nil {
		return "", fmt.Errorf("resolving repository path: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	rel, err := filepath.Rel(absRepo, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside repository %s", path, g.opts.RepoDir)
	}
	return filepath.ToSlash(rel), nil
}
