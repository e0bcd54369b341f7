package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/caspervonb/blogsmith/internal/logfields"
	"github.com/caspervonb/blogsmith/internal/permalink"
)

var (
	// ErrMissingDate indicates a post without a date; posts must sort.
	ErrMissingDate = errors.New("post is missing a date in its front-matter")
)

// Metadata is the typed front-matter schema of a post.
type Metadata struct {
	Title    string         `yaml:"title"`
	Date     time.Time      `yaml:"date"`
	Template string         `yaml:"template,omitempty"`
	Slug     string         `yaml:"slug,omitempty"`
	Draft    bool           `yaml:"draft,omitempty"`
	Tags     []string       `yaml:"tags,omitempty"`
	Custom   map[string]any `yaml:",inline"`
}

// Post is a markdown document flowing through the build pipeline.
type Post struct {
	Source    File
	Slug      string
	Meta      Metadata
	Body      []byte // markdown body with front-matter removed
	HTML      template.HTML
	Excerpt   template.HTML
	Permalink string
	LastMod   time.Time
}

// LoadPost reads the file and decodes its front-matter into a Post.
// A missing title is derived from the file name; a missing date is an error.
func LoadPost(f File) (*Post, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read post %s: %w", f.Path, err)
	}

	var meta Metadata
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return nil, fmt.Errorf("parse front-matter of %s: %w", f.RelativePath, err)
	}

	if meta.Date.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrMissingDate, f.RelativePath)
	}
	if meta.Title == "" {
		meta.Title = titleFromName(f.Name)
	}

	slugSource := meta.Slug
	if slugSource == "" {
		slugSource = f.Name
	}
	slug, err := permalink.Slugify(slugSource)
	if err != nil {
		return nil, fmt.Errorf("derive slug for %s: %w", f.RelativePath, err)
	}

	slog.Debug("Post loaded", logfields.Post(f.RelativePath), logfields.Slug(slug))
	return &Post{
		Source: f,
		Slug:   slug,
		Meta:   meta,
		Body:   body,
	}, nil
}

// SortPosts orders posts by date descending; equal dates tie-break by slug
// ascending so output is deterministic.
func SortPosts(posts []*Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Meta.Date.Equal(posts[j].Meta.Date) {
			return posts[i].Slug < posts[j].Slug
		}
		return posts[i].Meta.Date.After(posts[j].Meta.Date)
	})
}

// FilterDrafts returns posts with drafts removed unless includeDrafts is set.
func FilterDrafts(posts []*Post, includeDrafts bool) []*Post {
	if includeDrafts {
		return posts
	}
	out := make([]*Post, 0, len(posts))
	for _, p := range posts {
		if !p.Meta.Draft {
			out = append(out, p)
		}
	}
	return out
}

// Year returns the post's publication year (archive grouping).
func (p *Post) Year() int { return p.Meta.Date.Year() }

// Updated reports whether the post was revised after publication. A day of
// slack absorbs mtime noise from fresh checkouts and same-day edits.
func (p *Post) Updated() bool {
	return !p.LastMod.IsZero() && p.LastMod.Sub(p.Meta.Date) > 24*time.Hour
}

// titleFromName converts kebab or snake file names to Title Case:
// getting-started -> Getting Started.
func titleFromName(name string) string {
	base := strings.ReplaceAll(name, "_", "-")
	parts := strings.Split(base, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return strings.Join(parts, " ")
}
