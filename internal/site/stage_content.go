package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caspervonb/blogsmith/internal/content"
	"github.com/caspervonb/blogsmith/internal/logfields"
)

// Sentinel errors used for stage classification and tests.
var (
	ErrNoContent     = errors.New("no content found")
	ErrLoadFailed    = errors.New("loading posts failed")
	ErrDuplicateSlug = errors.New("duplicate permalink")
)

func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	return os.MkdirAll(bs.Generator.buildRoot(), 0o755)
}

// stageDiscoverContent walks the content directory for posts and assets.
func stageDiscoverContent(_ context.Context, bs *BuildState) error {
	discovery := content.NewDiscovery(bs.Generator.config.Content.Dir)
	files, err := discovery.Discover()
	if err != nil {
		return newFatalStageError(StageDiscoverContent, err)
	}
	for _, f := range files {
		if f.IsAsset {
			bs.Assets = append(bs.Assets, f)
		} else {
			bs.Files = append(bs.Files, f)
		}
	}
	if len(bs.Files) == 0 {
		// Empty input reflects an empty blog, not a broken one.
		return newWarnStageError(StageDiscoverContent, fmt.Errorf("%w in %s", ErrNoContent, bs.Generator.config.Content.Dir))
	}
	return nil
}

// stageLoadPosts parses front-matter, filters drafts, and sorts posts.
// A post that fails to parse halts the build; "front-matter parses" is the
// contract every content file must meet.
func stageLoadPosts(ctx context.Context, bs *BuildState) error {
	posts := make([]*content.Post, 0, len(bs.Files))
	for _, f := range bs.Files {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageLoadPosts, ctx.Err())
		default:
		}

		post, err := content.LoadPost(f)
		if err != nil {
			return newFatalStageError(StageLoadPosts, fmt.Errorf("%w: %w", ErrLoadFailed, err))
		}
		posts = append(posts, post)
	}

	published := content.FilterDrafts(posts, bs.Generator.drafts)
	bs.Report.DraftsSkipped = len(posts) - len(published)
	content.SortPosts(published)
	bs.Posts = published
	bs.Report.Posts = len(published)

	slog.Info("Posts loaded",
		logfields.Count(len(published)),
		slog.Int("drafts_skipped", bs.Report.DraftsSkipped))
	return nil
}
