// internal/git/repo.go
package git

import (
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repo is the version history of the workspace directory. The repository
// is fully owned by the app: every applied model batch and manual save is
// committed so the operator has an inspectable undo trail.
type Repo struct {
	path string
	repo *gogit.Repository
}

// CommitInfo describes one history entry.
type CommitInfo struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	When    time.Time `json:"when"`
}

// FileStatus represents the status of a single file
type FileStatus struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

// OpenOrInit opens the git repository at path, initializing it on first use.
func OpenOrInit(path string) (*Repo, error) {
	repo, err := gogit.PlainOpen(path)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		repo, err = gogit.PlainInit(path, false)
	}
	if err != nil {
		return nil, fmt.Errorf("open workspace repository: %w", err)
	}
	return &Repo{path: path, repo: repo}, nil
}

// CommitAll stages every change and commits it with the given message.
// A clean worktree returns an empty hash and no error.
func (r *Repo) CommitAll(message string) (string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("get worktree: %w", err)
	}

	if err := worktree.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("stage changes: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("get status: %w", err)
	}
	if status.IsClean() {
		return "", nil
	}

	hash, err := worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "webweave",
			Email: "webweave@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return hash.String(), nil
}

// Log returns up to limit history entries, newest first.
func (r *Repo) Log(limit int) ([]CommitInfo, error) {
	iter, err := r.repo.Log(&gogit.LogOptions{})
	if err != nil {
		// An empty repository has no HEAD reference yet.
		return nil, nil
	}
	defer iter.Close()

	var commits []CommitInfo
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, CommitInfo{
			Hash:    c.Hash.String(),
			Message: c.Message,
			When:    c.Author.When,
		})
		if limit > 0 && len(commits) >= limit {
			return errStopIteration
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopIteration) {
		return nil, fmt.Errorf("walk log: %w", err)
	}
	return commits, nil
}

var errStopIteration = errors.New("stop iteration")

// Status returns the current per-file worktree status.
func (r *Repo) Status() ([]FileStatus, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	var files []FileStatus
	for path, fileStatus := range status {
		if fileStatus.Worktree == gogit.Untracked {
			files = append(files, FileStatus{Path: path, Status: "untracked"})
		} else if fileStatus.Worktree != gogit.Unmodified {
			files = append(files, FileStatus{Path: path, Status: mapStatusCode(fileStatus.Worktree)})
		} else if fileStatus.Staging != gogit.Unmodified {
			files = append(files, FileStatus{Path: path, Status: mapStatusCode(fileStatus.Staging)})
		}
	}
	return files, nil
}

// mapStatusCode converts go-git status codes to human-readable strings
func mapStatusCode(code gogit.StatusCode) string {
	switch code {
	case gogit.Unmodified:
		return "unmodified"
	case gogit.Untracked:
		return "untracked"
	case gogit.Modified:
		return "modified"
	case gogit.Added:
		return "added"
	case gogit.Deleted:
		return "deleted"
	case gogit.Renamed:
		return "renamed"
	case gogit.Copied:
		return "copied"
	default:
		return "unknown"
	}
}
