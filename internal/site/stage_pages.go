package site

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/caspervonb/blogsmith/internal/content"
	"github.com/caspervonb/blogsmith/internal/feed"
	"github.com/caspervonb/blogsmith/internal/logfields"
	"github.com/caspervonb/blogsmith/internal/permalink"
	"github.com/caspervonb/blogsmith/internal/redirects"
	"github.com/caspervonb/blogsmith/internal/templates"
)

// siteData maps configuration to the template-facing site metadata.
func siteData(g *Generator) templates.Site {
	return templates.Site{
		Title:       g.config.Site.Title,
		Description: g.config.Site.Description,
		Author:      g.config.Site.Author,
		BaseURL:     g.config.Site.BaseURL,
	}
}

// writePage writes data under the staging root at the output-relative path
// rel and registers it so later stages cannot clobber it.
func (bs *BuildState) writePage(rel string, data []byte) error {
	if err := bs.writeRaw(rel, data); err != nil {
		return err
	}
	bs.Report.Pages++
	return nil
}

func (bs *BuildState) writeRaw(rel string, data []byte) error {
	dst := filepath.Join(bs.Generator.buildRoot(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	bs.written[rel] = struct{}{}
	return nil
}

// stageRenderPages applies each post's template and writes the page at its
// permalink location.
func stageRenderPages(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	site := siteData(g)
	for _, p := range bs.Posts {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageRenderPages, ctx.Err())
		default:
		}

		name := p.Meta.Template
		if name == "" {
			name = "post"
		}
		out, err := g.engine.Render(name, templates.PageData{
			Site:  site,
			Title: p.Meta.Title,
			Post:  p,
		})
		if err != nil {
			return newFatalStageError(StageRenderPages, fmt.Errorf("post %s: %w", p.Source.RelativePath, err))
		}
		if err := bs.writePage(permalink.OutputPath(p.Permalink), out); err != nil {
			return newFatalStageError(StageRenderPages, err)
		}
		slog.Debug("Page rendered", logfields.Post(p.Source.RelativePath), logfields.Template(name))
	}
	slog.Info("Pages rendered", logfields.Count(len(bs.Posts)))
	return nil
}

// stageIndexes writes the home page, the archive grouped by year, and one
// listing page per tag.
func stageIndexes(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	site := siteData(g)

	// Home page: most recent posts.
	limit := g.config.Content.PostsPerIndex
	if limit <= 0 || limit > len(bs.Posts) {
		limit = len(bs.Posts)
	}
	home, err := g.engine.Render("index", templates.PageData{
		Site:  site,
		Title: site.Title,
		Posts: bs.Posts[:limit],
	})
	if err != nil {
		return newFatalStageError(StageIndexes, fmt.Errorf("home page: %w", err))
	}
	if err := bs.writePage("index.html", home); err != nil {
		return newFatalStageError(StageIndexes, err)
	}

	// Archive: posts grouped by year, newest year first. Posts are already
	// sorted descending, so groups come out ordered.
	var years []templates.YearGroup
	for _, p := range bs.Posts {
		y := p.Meta.Date.Year()
		if n := len(years); n > 0 && years[n-1].Year == y {
			years[n-1].Posts = append(years[n-1].Posts, p)
			continue
		}
		years = append(years, templates.YearGroup{Year: y, Posts: []*content.Post{p}})
	}
	archive, err := g.engine.Render("archive", templates.PageData{
		Site:  site,
		Title: "Archive",
		Years: years,
	})
	if err != nil {
		return newFatalStageError(StageIndexes, fmt.Errorf("archive page: %w", err))
	}
	if err := bs.writePage("archive/index.html", archive); err != nil {
		return newFatalStageError(StageIndexes, err)
	}

	// Tag pages. Display name is the first spelling seen; the slug decides
	// identity so "Go" and "go" land on one page.
	type tagGroup struct {
		name  string
		posts []*content.Post
	}
	tags := map[string]*tagGroup{}
	for _, p := range bs.Posts {
		for _, tag := range p.Meta.Tags {
			s, err := permalink.Slugify(tag)
			if err != nil {
				return newFatalStageError(StageIndexes, fmt.Errorf("tag %q in %s: %w", tag, p.Source.RelativePath, err))
			}
			if _, ok := tags[s]; !ok {
				tags[s] = &tagGroup{name: tag}
			}
			tags[s].posts = append(tags[s].posts, p)
		}
	}
	slugs := make([]string, 0, len(tags))
	for s := range tags {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	for _, s := range slugs {
		grp := tags[s]
		page, err := g.engine.Render("tag", templates.PageData{
			Site:  site,
			Title: grp.name,
			Tag:   grp.name,
			Posts: grp.posts,
		})
		if err != nil {
			return newFatalStageError(StageIndexes, fmt.Errorf("tag page %s: %w", s, err))
		}
		if err := bs.writePage(filepath.ToSlash(filepath.Join("tags", s, "index.html")), page); err != nil {
			return newFatalStageError(StageIndexes, err)
		}
		slog.Debug("Tag page written", logfields.Tag(grp.name), logfields.Count(len(grp.posts)))
	}
	return nil
}

// stageFeed writes the RSS feed when enabled.
func stageFeed(_ context.Context, bs *BuildState) error {
	cfg := bs.Generator.config
	if !cfg.Feed.Enabled {
		return nil
	}

	out, err := feed.Generate(feed.Options{
		Title:       cfg.Site.Title,
		Description: cfg.Site.Description,
		BaseURL:     cfg.Site.BaseURL,
		Limit:       cfg.Feed.Limit,
	}, bs.Posts)
	if err != nil {
		return newFatalStageError(StageFeed, err)
	}

	rel := strings.TrimPrefix(path.Clean("/"+cfg.Feed.Path), "/")
	if err := bs.writeRaw(rel, out); err != nil {
		return newFatalStageError(StageFeed, err)
	}
	slog.Info("Feed written", logfields.Path(rel), logfields.Count(min(cfg.Feed.Limit, len(bs.Posts))))
	return nil
}

// stageRedirects writes a meta-refresh page for every table entry. A source
// that collides with a generated page is skipped with a warning; real pages
// always win over redirects.
func stageRedirects(_ context.Context, bs *BuildState) error {
	table := redirects.FromConfig(bs.Generator.config.Redirects)
	if len(table) == 0 {
		return nil
	}
	if err := table.Validate(); err != nil {
		return newFatalStageError(StageRedirects, err)
	}

	for _, src := range table.Sources() {
		target, _ := table.Resolve(src)
		rel := redirects.OutputPath(src)
		if _, exists := bs.written[rel]; exists {
			slog.Warn("Redirect source collides with generated page, skipping",
				logfields.Path(src), logfields.URL(target))
			continue
		}
		page, err := redirects.Page(target)
		if err != nil {
			return newFatalStageError(StageRedirects, err)
		}
		if err := bs.writeRaw(rel, page); err != nil {
			return newFatalStageError(StageRedirects, err)
		}
		bs.Report.Redirects++
	}
	slog.Info("Redirect pages written", logfields.Count(bs.Report.Redirects))
	return nil
}

// stageCopyStatic copies the static directory tree and any non-markdown
// assets discovered alongside content into the output.
func stageCopyStatic(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	copied := 0

	staticDir := g.config.Content.StaticDir
	if staticDir != "" {
		if _, err := os.Stat(staticDir); err == nil {
			err := filepath.WalkDir(staticDir, func(path string, entry os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				if entry.IsDir() {
					return nil
				}
				rel, err := filepath.Rel(staticDir, path)
				if err != nil {
					return err
				}
				if err := copyFile(path, filepath.Join(g.buildRoot(), rel)); err != nil {
					return err
				}
				copied++
				return nil
			})
			if err != nil {
				if ctx.Err() != nil {
					return newCanceledStageError(StageCopyStatic, ctx.Err())
				}
				return newFatalStageError(StageCopyStatic, fmt.Errorf("copy static directory: %w", err))
			}
		}
	}

	// Assets living next to posts keep their content-relative path.
	for _, asset := range bs.Assets {
		if err := copyFile(asset.Path, filepath.Join(g.buildRoot(), filepath.FromSlash(asset.RelativePath))); err != nil {
			return newFatalStageError(StageCopyStatic, fmt.Errorf("copy asset %s: %w", asset.RelativePath, err))
		}
		copied++
	}

	bs.Report.Assets = copied
	return nil
}
