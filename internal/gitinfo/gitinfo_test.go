package gitinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenNoRepository(t *testing.T) {
	r, err := Open(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, r)

	// Nil resolver is safe to query.
	_, ok := r.LastModified("anything.md")
	assert.False(t, ok)
}

func TestLastModified(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	postPath := filepath.Join(dir, "content", "hello.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(postPath), 0o755))
	require.NoError(t, os.WriteFile(postPath, []byte("# Hello"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("content/hello.md")
	require.NoError(t, err)

	when := time.Date(2014, time.March, 7, 12, 0, 0, 0, time.UTC)
	_, err = wt.Commit("add hello", &git.CommitOptions{
		Author:    &object.Signature{Name: "Test", Email: "test@example.com", When: when},
		Committer: &object.Signature{Name: "Test", Email: "test@example.com", When: when},
	})
	require.NoError(t, err)

	r, err := Open(filepath.Join(dir, "content"))
	require.NoError(t, err)
	require.NotNil(t, r)

	got, ok := r.LastModified(postPath)
	require.True(t, ok)
	assert.True(t, got.Equal(when))

	// Untracked files have no history.
	untracked := filepath.Join(dir, "content", "new.md")
	require.NoError(t, os.WriteFile(untracked, []byte("# New"), 0o644))
	_, ok = r.LastModified(untracked)
	assert.False(t, ok)
}
