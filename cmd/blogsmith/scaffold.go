package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/caspervonb/blogsmith/internal/config"
	"github.com/caspervonb/blogsmith/internal/content"
	"github.com/caspervonb/blogsmith/internal/permalink"
)

const examplePost = `---
title: Hello World
date: %s
tags: [meta]
---
Welcome to your new blog. This post lives in the content directory;
everything above the second ` + "`---`" + ` is front-matter.

<!--more-->

Text above the separator becomes the excerpt on index pages.
`

// exampleStylesheet backs the /css/style.css link in the default base
// template so a fresh site passes its own check.
const exampleStylesheet = `body {
  max-width: 44rem;
  margin: 0 auto;
  padding: 0 1rem;
  font-family: Georgia, serif;
  line-height: 1.6;
}

.site-header {
  display: flex;
  justify-content: space-between;
  padding: 1rem 0;
}

.site-title {
  font-weight: bold;
  text-decoration: none;
}

time {
  color: #666;
}
`

// runInit scaffolds a configuration file, the content layout, and an
// example post.
func runInit(configPath string, force bool) error {
	if err := config.Init(configPath, force); err != nil {
		return err
	}

	for _, dir := range []string{
		config.DefaultContentDir,
		config.DefaultStaticDir,
		config.DefaultTemplatesDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	postPath := filepath.Join(config.DefaultContentDir, "hello-world.md")
	if _, err := os.Stat(postPath); err == nil && !force {
		slog.Info("Example post already exists, skipping", "path", postPath)
	} else {
		body := fmt.Sprintf(examplePost, time.Now().Format("2006-01-02"))
		if err := os.WriteFile(postPath, []byte(body), 0o644); err != nil {
			return fmt.Errorf("write example post: %w", err)
		}
	}

	// The base template links /css/style.css; ship one.
	cssPath := filepath.Join(config.DefaultStaticDir, "css", "style.css")
	if _, err := os.Stat(cssPath); err == nil && !force {
		slog.Info("Stylesheet already exists, skipping", "path", cssPath)
	} else {
		if err := os.MkdirAll(filepath.Dir(cssPath), 0o755); err != nil {
			return fmt.Errorf("create css directory: %w", err)
		}
		if err := os.WriteFile(cssPath, []byte(exampleStylesheet), 0o644); err != nil {
			return fmt.Errorf("write stylesheet: %w", err)
		}
	}

	slog.Info("Blog scaffolded", "config", configPath)
	return nil
}

// runNew scaffolds a post file named after the slugged title.
func runNew(cfg *config.Config, title string) error {
	slug, err := permalink.Slugify(title)
	if err != nil {
		return err
	}

	meta := content.Metadata{
		Title: title,
		Date:  time.Now().Truncate(time.Second),
		Draft: true,
	}
	fm, err := yaml.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("marshal front-matter: %w", err)
	}

	path := filepath.Join(cfg.Content.Dir, slug+".md")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("post already exists: %s", path)
	}

	body := fmt.Sprintf("---\n%s---\n\nWrite here.\n", fm)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write post: %w", err)
	}

	slog.Info("Post created", "path", path, "slug", slug)
	return nil
}
