package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caspervonb/blogsmith/internal/cache"
	"github.com/caspervonb/blogsmith/internal/content"
	"github.com/caspervonb/blogsmith/internal/logfields"
	"github.com/caspervonb/blogsmith/internal/metrics"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// BuildState carries mutable state and metrics across stages.
type BuildState struct {
	Generator *Generator
	Files     []content.File
	Posts     []*content.Post
	Assets    []content.File
	Report    *BuildReport

	// cache is non-nil when incremental builds are enabled.
	cache *cache.Cache

	// written tracks output-relative paths produced so far; later stages
	// (redirects) must not clobber generated pages.
	written map[string]struct{}
	// checksums maps post source path to its body checksum (cache keys).
	checksums map[string]string
	// rendered marks posts whose HTML was produced this run (cache store).
	rendered map[string]bool
}

func newBuildState(g *Generator, report *BuildReport) *BuildState {
	return &BuildState{
		Generator: g,
		Report:    report,
		written:   make(map[string]struct{}),
		checksums: make(map[string]string),
		rendered:  make(map[string]bool),
	}
}

// runStages executes stages in order, recording timing and stopping on first fatal error.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	rec := bs.Generator.recorder
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			bs.Report.StageErrorKinds[string(st.Name)] = string(se.Kind)
			bs.Report.recordError(se)
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[string(st.Name)] = dur
		rec.ObserveStageDuration(string(st.Name), dur)
		slog.Debug("Stage completed", logfields.Stage(string(st.Name)), slog.Duration("duration", dur))

		if err == nil {
			rec.IncStageResult(string(st.Name), metrics.ResultSuccess)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			// Wrap unknown errors as fatal by default.
			se = newFatalStageError(st.Name, err)
		}
		bs.Report.StageErrorKinds[string(st.Name)] = string(se.Kind)
		switch se.Kind {
		case StageErrorWarning:
			bs.Report.recordWarning(se)
			rec.IncStageResult(string(st.Name), metrics.ResultWarning)
			continue // proceed to next stage
		case StageErrorCanceled:
			bs.Report.recordError(se)
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return se
		default:
			bs.Report.recordError(se)
			rec.IncStageResult(string(st.Name), metrics.ResultFatal)
			return se
		}
	}
	return nil
}
