package site

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"

	"github.com/caspervonb/blogsmith/internal/cache"
	"github.com/caspervonb/blogsmith/internal/content"
	"github.com/caspervonb/blogsmith/internal/gitinfo"
	"github.com/caspervonb/blogsmith/internal/logfields"
)

// stageRenderMarkdown converts post bodies to HTML, consulting the render
// cache when incremental builds are enabled.
func stageRenderMarkdown(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	rendered := 0
	for _, p := range bs.Posts {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageRenderMarkdown, ctx.Err())
		default:
		}

		sum := cache.Checksum(p.Body)
		bs.checksums[p.Source.RelativePath] = sum

		if bs.cache != nil {
			entry, ok, err := bs.cache.Get(p.Source.RelativePath, sum)
			if err != nil {
				slog.Warn("Render cache lookup failed", logfields.File(p.Source.RelativePath), logfields.Error(err))
			} else if ok {
				p.HTML = template.HTML(entry.HTML)
				p.Excerpt = template.HTML(entry.Excerpt)
				bs.Report.CacheHits++
				continue
			}
		}

		out, err := g.renderer.Render(p.Body)
		if err != nil {
			return newFatalStageError(StageRenderMarkdown, fmt.Errorf("post %s: %w", p.Source.RelativePath, err))
		}
		p.HTML = template.HTML(out)
		bs.rendered[p.Source.RelativePath] = true
		rendered++
	}
	g.recorder.AddPostsRendered(rendered)
	return nil
}

// stagePermalinks derives each post's permalink and rejects collisions.
func stagePermalinks(_ context.Context, bs *BuildState) error {
	seen := make(map[string]string, len(bs.Posts))
	for _, p := range bs.Posts {
		p.Permalink = bs.Generator.formatter.Format(p.Meta.Date, p.Slug)
		if other, ok := seen[p.Permalink]; ok {
			return newFatalStageError(StagePermalinks,
				fmt.Errorf("%w: %s shared by %s and %s", ErrDuplicateSlug, p.Permalink, other, p.Source.RelativePath))
		}
		seen[p.Permalink] = p.Source.RelativePath
	}
	return nil
}

// stageExcerpts extracts excerpts for freshly rendered posts and stores
// completed entries into the render cache.
func stageExcerpts(ctx context.Context, bs *BuildState) error {
	g := bs.Generator
	sep := g.config.Content.ExcerptSeparator
	for _, p := range bs.Posts {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageExcerpts, ctx.Err())
		default:
		}
		if !bs.rendered[p.Source.RelativePath] {
			continue // cache hit carried its excerpt
		}

		out, err := g.renderer.Excerpt(p.Body, sep)
		if err != nil {
			return newFatalStageError(StageExcerpts, fmt.Errorf("post %s: %w", p.Source.RelativePath, err))
		}
		p.Excerpt = template.HTML(out)

		if bs.cache != nil {
			sum := bs.checksums[p.Source.RelativePath]
			if err := bs.cache.Put(p.Source.RelativePath, sum, []byte(p.HTML), []byte(p.Excerpt)); err != nil {
				slog.Warn("Render cache store failed", logfields.File(p.Source.RelativePath), logfields.Error(err))
			}
		}
	}
	return nil
}

// stageLastMod resolves last-modified times from git history, falling back
// to file mtimes and finally the publication date.
func stageLastMod(_ context.Context, bs *BuildState) error {
	resolver, err := gitinfo.Open(bs.Generator.config.Content.Dir)
	resolveLastMod(resolver, bs.Posts)
	if err != nil {
		// Posts already carry mtime/date fallbacks; the broken repository
		// is worth surfacing but must not fail the build.
		return newWarnStageError(StageLastMod, fmt.Errorf("open git repository: %w", err))
	}
	return nil
}

// resolveLastMod fills LastMod for every post. A nil resolver skips git
// history and goes straight to file mtimes, then the publication date.
func resolveLastMod(resolver *gitinfo.Resolver, posts []*content.Post) {
	for _, p := range posts {
		if when, ok := resolver.LastModified(p.Source.Path); ok {
			p.LastMod = when
			continue
		}
		if fi, err := os.Stat(p.Source.Path); err == nil {
			p.LastMod = fi.ModTime()
			continue
		}
		p.LastMod = p.Meta.Date
	}
}
