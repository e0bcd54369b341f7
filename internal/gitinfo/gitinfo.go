// Package gitinfo resolves last-modified timestamps for content files from
// the surrounding git repository, when one exists.
package gitinfo

import (
	"errors"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
)

// Resolver answers last-modified queries against a repository's history.
type Resolver struct {
	repo *git.Repository
	root string
}

// Open locates the repository containing dir. A missing repository is not an
// error; callers receive a nil resolver and fall back to file mtimes.
func Open(dir string) (*Resolver, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	return &Resolver{repo: repo, root: wt.Filesystem.Root()}, nil
}

// LastModified returns the committer time of the most recent commit touching
// path. ok is false when the file has no history (untracked or new).
func (r *Resolver) LastModified(path string) (time.Time, bool) {
	if r == nil {
		return time.Time{}, false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return time.Time{}, false
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return time.Time{}, false
	}
	rel = filepath.ToSlash(rel)

	iter, err := r.repo.Log(&git.LogOptions{
		FileName: &rel,
		Order:    git.LogOrderCommitterTime,
	})
	if err != nil {
		return time.Time{}, false
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		return time.Time{}, false
	}
	return commit.Committer.When, true
}
