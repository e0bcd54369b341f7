// Package site orchestrates the build pipeline: collect posts, render
// markdown, derive permalinks, extract excerpts, apply templates, apply
// redirects, and write the output directory.
package site

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/caspervonb/blogsmith/internal/cache"
	"github.com/caspervonb/blogsmith/internal/config"
	berrors "github.com/caspervonb/blogsmith/internal/errors"
	"github.com/caspervonb/blogsmith/internal/logfields"
	"github.com/caspervonb/blogsmith/internal/markdown"
	"github.com/caspervonb/blogsmith/internal/metrics"
	"github.com/caspervonb/blogsmith/internal/permalink"
	"github.com/caspervonb/blogsmith/internal/templates"
)

// Generator handles site generation
type Generator struct {
	config    *config.Config
	outputDir string // final output dir
	stageDir  string // ephemeral staging dir for current build

	renderer  *markdown.Renderer
	formatter *permalink.Formatter
	engine    *templates.Engine
	recorder  metrics.Recorder

	incremental bool
	cachePath   string
	drafts      bool
}

// NewGenerator creates a new site generator. The template engine and
// permalink formatter are constructed eagerly so configuration problems
// surface before any output is touched.
func NewGenerator(cfg *config.Config, outputDir string) (*Generator, error) {
	formatter, err := permalink.NewFormatter(cfg.Permalink.Pattern)
	if err != nil {
		return nil, berrors.Wrap(err, berrors.CategoryValidation, berrors.SeverityFatal, "invalid permalink pattern")
	}
	engine, err := templates.NewEngine(cfg.Content.TemplatesDir, cfg.Site.DateFormat)
	if err != nil {
		return nil, berrors.Wrap(err, berrors.CategoryTemplate, berrors.SeverityFatal, "failed to load templates")
	}
	return &Generator{
		config:    cfg,
		outputDir: filepath.Clean(outputDir),
		renderer:  markdown.NewRenderer(),
		formatter: formatter,
		engine:    engine,
		recorder:  metrics.NoopRecorder{},
		drafts:    cfg.Content.Drafts,
	}, nil
}

// Config exposes the underlying configuration (read-only usage).
func (g *Generator) Config() *config.Config { return g.config }

// OutputDir returns the final output directory.
func (g *Generator) OutputDir() string { return g.outputDir }

// SetRecorder injects a metrics recorder (optional). Returns the generator for chaining.
func (g *Generator) SetRecorder(r metrics.Recorder) *Generator {
	if r == nil {
		g.recorder = metrics.NoopRecorder{}
		return g
	}
	g.recorder = r
	return g
}

// SetIncremental enables the render cache stored at cachePath.
func (g *Generator) SetIncremental(cachePath string) *Generator {
	g.incremental = true
	g.cachePath = cachePath
	return g
}

// SetDrafts includes draft posts in the build.
func (g *Generator) SetDrafts(include bool) *Generator {
	g.drafts = include
	return g
}

// Build generates the complete site, honoring ctx for cancellation. The
// report is returned even when the build fails; on success the staged output
// atomically replaces the output directory.
func (g *Generator) Build(ctx context.Context) (*BuildReport, error) {
	slog.Info("Starting site build",
		logfields.Output(g.outputDir),
		slog.Bool("incremental", g.incremental),
		slog.Bool("drafts", g.drafts))

	if err := g.beginStaging(); err != nil {
		return nil, err
	}

	report := newBuildReport()
	bs := newBuildState(g, report)

	renderCache, err := g.openCache()
	if err != nil {
		g.abortStaging()
		return nil, err
	}
	if renderCache != nil {
		bs.cache = renderCache
		defer func() {
			if err := renderCache.Close(); err != nil {
				slog.Warn("Failed to close render cache", logfields.Error(err))
			}
		}()
	}

	stages := NewPipeline().
		Add(StagePrepareOutput, stagePrepareOutput).
		Add(StageDiscoverContent, stageDiscoverContent).
		Add(StageLoadPosts, stageLoadPosts).
		Add(StageRenderMarkdown, stageRenderMarkdown).
		Add(StagePermalinks, stagePermalinks).
		Add(StageExcerpts, stageExcerpts).
		Add(StageLastMod, stageLastMod).
		Add(StageRenderPages, stageRenderPages).
		Add(StageIndexes, stageIndexes).
		Add(StageFeed, stageFeed).
		Add(StageRedirects, stageRedirects).
		Add(StageCopyStatic, stageCopyStatic).
		Build()

	if err := runStages(ctx, bs, stages); err != nil {
		report.deriveOutcome()
		report.finish()
		g.abortStaging()
		g.recordBuild(report)
		return report, err
	}

	report.deriveOutcome()
	report.finish()

	if err := g.finalizeStaging(); err != nil {
		report.Outcome = OutcomeFailed
		g.recordBuild(report)
		return report, err
	}
	if err := report.Persist(g.outputDir); err != nil {
		slog.Warn("Failed to persist build report", logfields.Error(err))
	}
	g.recordBuild(report)

	slog.Info("Site build completed",
		logfields.Output(g.outputDir),
		slog.Int("posts", report.Posts),
		slog.Int("pages", report.Pages),
		slog.Int("redirects", report.Redirects),
		slog.String("outcome", string(report.Outcome)))
	return report, nil
}

func (g *Generator) recordBuild(report *BuildReport) {
	g.recorder.ObserveBuildDuration(report.Duration())
	g.recorder.IncBuildOutcome(string(report.Outcome))
}

// openCache opens the render cache when incremental builds are enabled.
func (g *Generator) openCache() (*cache.Cache, error) {
	if !g.incremental {
		return nil, nil
	}
	path := g.cachePath
	if path == "" {
		path = filepath.Join(filepath.Dir(g.outputDir), ".blogsmith-cache.db")
	}
	return cache.Open(path)
}
