package site

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caspervonb/blogsmith/internal/config"
	"github.com/caspervonb/blogsmith/internal/permalink"
)

const helloWorldPost = `---
title: Hello World
date: 2014-03-05
tags: [go, blogging]
---
First paragraph serves as the excerpt.

The rest of the post.
`

const secondPost = `---
title: Second Post
date: 2015-06-10
---
Above the fold.
<!--more-->
Below the fold.
`

const draftPost = `---
title: Work In Progress
date: 2015-01-01
draft: true
---
Not ready yet.
`

func writeFixtureSite(t *testing.T) (*config.Config, string) {
	t.Helper()
	root := t.TempDir()

	contentDir := filepath.Join(root, "content")
	require.NoError(t, os.MkdirAll(contentDir, 0o755))
	for name, body := range map[string]string{
		"hello-world.md": helloWorldPost,
		"second-post.md": secondPost,
		"draft.md":       draftPost,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(contentDir, name), []byte(body), 0o644))
	}

	staticDir := filepath.Join(root, "static")
	require.NoError(t, os.MkdirAll(filepath.Join(staticDir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "css", "style.css"), []byte("body{}"), 0o644))

	cfg := config.NewDefault()
	cfg.Site.Title = "Example Blog"
	cfg.Site.BaseURL = "https://blog.example.com"
	cfg.Content.Dir = contentDir
	cfg.Content.StaticDir = staticDir
	cfg.Content.TemplatesDir = filepath.Join(root, "templates")
	cfg.Feed.Enabled = true
	cfg.Redirects = map[string]string{
		"/old-post/": "/2014/03/hello-world/",
	}
	cfg.Output.Clean = true

	return cfg, filepath.Join(root, "public")
}

func readOutput(t *testing.T, outputDir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outputDir, filepath.FromSlash(rel)))
	require.NoError(t, err, "expected output file %s", rel)
	return string(data)
}

func TestBuildGeneratesSite(t *testing.T) {
	cfg, outputDir := writeFixtureSite(t)
	g, err := NewGenerator(cfg, outputDir)
	require.NoError(t, err)

	report, err := g.Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, OutcomeSuccess, report.Outcome)
	assert.Equal(t, 2, report.Posts)
	assert.Equal(t, 1, report.DraftsSkipped)
	assert.Equal(t, 1, report.Redirects)
	assert.Positive(t, report.Assets)

	// Post pages land at their permalink locations.
	hello := readOutput(t, outputDir, "2014/03/hello-world/index.html")
	assert.Contains(t, hello, "Hello World")
	assert.Contains(t, hello, "<p>First paragraph serves as the excerpt.</p>")

	// Home page lists posts newest first.
	home := readOutput(t, outputDir, "index.html")
	newer := strings.Index(home, "Second Post")
	older := strings.Index(home, "Hello World")
	require.GreaterOrEqual(t, newer, 0)
	require.GreaterOrEqual(t, older, 0)
	assert.Less(t, newer, older, "posts must appear in descending date order")

	// Excerpt honors the explicit separator.
	assert.Contains(t, home, "Above the fold.")
	assert.NotContains(t, home, "Below the fold.")

	// Archive and tag pages exist.
	archive := readOutput(t, outputDir, "archive/index.html")
	assert.Contains(t, archive, "2015")
	assert.Contains(t, archive, "2014")
	tagPage := readOutput(t, outputDir, "tags/go/index.html")
	assert.Contains(t, tagPage, "Hello World")

	// Feed carries absolute links, newest entry first.
	feedXML := readOutput(t, outputDir, "feed.xml")
	assert.Contains(t, feedXML, "<rss")
	assert.Contains(t, feedXML, "https://blog.example.com/2015/06/second-post/")
	assert.Less(t,
		strings.Index(feedXML, "Second Post"),
		strings.Index(feedXML, "Hello World"))

	// Redirect page points at the replacement.
	redirect := readOutput(t, outputDir, "old-post/index.html")
	assert.Contains(t, redirect, `http-equiv="refresh"`)
	assert.Contains(t, redirect, "/2014/03/hello-world/")

	// Static assets copied through.
	assert.Equal(t, "body{}", readOutput(t, outputDir, "css/style.css"))

	// Build report persisted with stage timings.
	var persisted BuildReport
	require.NoError(t, json.Unmarshal([]byte(readOutput(t, outputDir, ReportFileName)), &persisted))
	assert.Equal(t, OutcomeSuccess, persisted.Outcome)
	assert.NotEmpty(t, persisted.ID)
	assert.Contains(t, persisted.StageDurationMS, string(StageRenderMarkdown))

	// Staging directory must be gone after finalize.
	_, err = os.Stat(outputDir + stagingSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestBuildPermalinksMatchConfiguredShape(t *testing.T) {
	cfg, outputDir := writeFixtureSite(t)
	g, err := NewGenerator(cfg, outputDir)
	require.NoError(t, err)

	_, err = g.Build(context.Background())
	require.NoError(t, err)

	shape, err := permalink.ShapeRegexp(cfg.Permalink.Pattern)
	require.NoError(t, err)
	for _, link := range []string{"/2014/03/hello-world/", "/2015/06/second-post/"} {
		assert.Regexp(t, shape, link)
		_, err := os.Stat(filepath.Join(outputDir, filepath.FromSlash(permalink.OutputPath(link))))
		assert.NoError(t, err)
	}
}

func TestBuildDuplicatePermalinkFails(t *testing.T) {
	cfg, outputDir := writeFixtureSite(t)
	clash := `---
title: Clashing Post
date: 2014-03-05
slug: hello-world
---
Same date, same slug.
`
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Content.Dir, "clash.md"), []byte(clash), 0o644))

	g, err := NewGenerator(cfg, outputDir)
	require.NoError(t, err)

	report, err := g.Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateSlug)
	require.NotNil(t, report)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, "fatal", report.StageErrorKinds[string(StagePermalinks)])

	// Failed builds never touch the output directory.
	_, statErr := os.Stat(outputDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuildBrokenFrontMatterFails(t *testing.T) {
	cfg, outputDir := writeFixtureSite(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.Content.Dir, "broken.md"),
		[]byte("---\ntitle: [unterminated\n---\nbody\n"), 0o644))

	g, err := NewGenerator(cfg, outputDir)
	require.NoError(t, err)

	report, err := g.Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.Equal(t, OutcomeFailed, report.Outcome)
}

func TestBuildMissingDateFails(t *testing.T) {
	cfg, outputDir := writeFixtureSite(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.Content.Dir, "undated.md"),
		[]byte("---\ntitle: No Date\n---\nbody\n"), 0o644))

	g, err := NewGenerator(cfg, outputDir)
	require.NoError(t, err)

	_, err = g.Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadFailed)
}

func TestBuildEmptyContentWarns(t *testing.T) {
	cfg, outputDir := writeFixtureSite(t)
	cfg.Content.Dir = t.TempDir()
	cfg.Redirects = nil

	g, err := NewGenerator(cfg, outputDir)
	require.NoError(t, err)

	report, err := g.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeWarning, report.Outcome)
	assert.Equal(t, 0, report.Posts)

	// An empty blog still gets a home page.
	home := readOutput(t, outputDir, "index.html")
	assert.Contains(t, home, "Example Blog")
}

func TestBuildWithDraftsIncluded(t *testing.T) {
	cfg, outputDir := writeFixtureSite(t)
	g, err := NewGenerator(cfg, outputDir)
	require.NoError(t, err)
	g.SetDrafts(true)

	report, err := g.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Posts)
	assert.Equal(t, 0, report.DraftsSkipped)

	// Slug comes from the file name (draft.md), not the title.
	assert.FileExists(t, filepath.Join(outputDir, "2015", "01", "draft", "index.html"))
	page := readOutput(t, outputDir, "2015/01/draft/index.html")
	assert.Contains(t, page, "Work In Progress")
}

func TestBuildIncrementalUsesCache(t *testing.T) {
	cfg, outputDir := writeFixtureSite(t)
	cachePath := filepath.Join(t.TempDir(), "cache.db")

	g, err := NewGenerator(cfg, outputDir)
	require.NoError(t, err)
	g.SetIncremental(cachePath)

	first, err := g.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, first.CacheHits)

	second, err := g.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.CacheHits)

	// Cached rendering must not change the output.
	home := readOutput(t, outputDir, "index.html")
	assert.Contains(t, home, "Above the fold.")
}

func TestBuildCanceledContext(t *testing.T) {
	cfg, outputDir := writeFixtureSite(t)
	g, err := NewGenerator(cfg, outputDir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := g.Build(ctx)
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, OutcomeCanceled, report.Outcome)
}

func TestBuildRedirectDoesNotClobberPage(t *testing.T) {
	cfg, outputDir := writeFixtureSite(t)
	cfg.Redirects = map[string]string{
		// Collides with the generated hello-world page.
		"/2014/03/hello-world/": "/2015/06/second-post/",
	}

	g, err := NewGenerator(cfg, outputDir)
	require.NoError(t, err)

	report, err := g.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Redirects)

	hello := readOutput(t, outputDir, "2014/03/hello-world/index.html")
	assert.Contains(t, hello, "Hello World")
	assert.NotContains(t, hello, `http-equiv="refresh"`)
}

func TestBuildMergeModePreservesExistingFiles(t *testing.T) {
	cfg, outputDir := writeFixtureSite(t)
	cfg.Output.Clean = false

	require.NoError(t, os.MkdirAll(outputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "CNAME"), []byte("blog.example.com"), 0o644))

	g, err := NewGenerator(cfg, outputDir)
	require.NoError(t, err)

	_, err = g.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "blog.example.com", readOutput(t, outputDir, "CNAME"))
	assert.FileExists(t, filepath.Join(outputDir, "index.html"))
}
