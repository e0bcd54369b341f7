package preview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caspervonb/blogsmith/internal/config"
	"github.com/caspervonb/blogsmith/internal/site"
)

const testPost = `---
title: Hello World
date: 2014-03-05
---
Body text.
`

func testServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()

	contentDir := filepath.Join(root, "content")
	require.NoError(t, os.MkdirAll(contentDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(contentDir, "hello-world.md"), []byte(testPost), 0o644))

	cfg := config.NewDefault()
	cfg.Site.Title = "Preview Test"
	cfg.Content.Dir = contentDir
	cfg.Content.StaticDir = filepath.Join(root, "static")
	cfg.Content.TemplatesDir = filepath.Join(root, "templates")

	g, err := site.NewGenerator(cfg, filepath.Join(root, "public"))
	require.NoError(t, err)

	s := New(g, 0)
	_, err = g.Build(context.Background())
	require.NoError(t, err)
	return s
}

func TestHandlerServesSite(t *testing.T) {
	s := testServer(t)
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/2014/03/hello-world/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/nope/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerHealthz(t *testing.T) {
	s := testServer(t)
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandlerMetricsDisabledByDefault(t *testing.T) {
	s := testServer(t)
	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	// Falls through to the file server, which has no such file.
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerMetricsEnabled(t *testing.T) {
	s := testServer(t).EnableMetrics()

	// A build must flow through the recorder before scraping.
	_, err := s.generator.Build(context.Background())
	require.NoError(t, err)

	ts := httptest.NewServer(s.handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRelevantEvent(t *testing.T) {
	assert.True(t, relevantEvent(fsnotify.Event{Name: "content/post.md", Op: fsnotify.Write}))
	assert.True(t, relevantEvent(fsnotify.Event{Name: "content/new", Op: fsnotify.Create}))
	assert.False(t, relevantEvent(fsnotify.Event{Name: "content/post.md", Op: fsnotify.Chmod}))
	assert.False(t, relevantEvent(fsnotify.Event{Name: "content/.post.md.swp", Op: fsnotify.Write}))
}

func TestWatchTreeMissingDir(t *testing.T) {
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	assert.NoError(t, watchTree(watcher, filepath.Join(t.TempDir(), "absent")))
}

func TestWatchTreeAddsSubdirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, watchTree(watcher, root))
	assert.Len(t, watcher.WatchList(), 3)
}
