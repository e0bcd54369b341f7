package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// reportSchemaVersion is bumped whenever the serialized shape changes.
const reportSchemaVersion = 1

// ReportFileName is the build report persisted inside the output directory.
const ReportFileName = "build-report.json"

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// BuildReport captures high-level metrics about a site generation run.
type BuildReport struct {
	ID            string    `json:"id"`
	SchemaVersion int       `json:"schema_version"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`

	Posts         int `json:"posts"`          // posts published
	DraftsSkipped int `json:"drafts_skipped"` // drafts excluded from the build
	Pages         int `json:"pages"`          // HTML documents written
	Assets        int `json:"assets"`         // static files copied
	Redirects     int `json:"redirects"`      // redirect pages written
	CacheHits     int `json:"cache_hits"`     // posts served from the render cache

	StageDurations  map[string]time.Duration `json:"-"`
	StageDurationMS map[string]float64       `json:"stage_duration_ms"`
	StageErrorKinds map[string]string        `json:"stage_error_kinds,omitempty"`

	Errors   []string     `json:"errors,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
	Outcome  BuildOutcome `json:"outcome"`
}

func newBuildReport() *BuildReport {
	return &BuildReport{
		ID:              uuid.NewString(),
		SchemaVersion:   reportSchemaVersion,
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[string]string),
	}
}

func (r *BuildReport) recordError(err error)   { r.Errors = append(r.Errors, err.Error()) }
func (r *BuildReport) recordWarning(err error) { r.Warnings = append(r.Warnings, err.Error()) }

// deriveOutcome computes the final outcome from recorded errors and warnings.
func (r *BuildReport) deriveOutcome() {
	switch {
	case len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
		for _, kind := range r.StageErrorKinds {
			if kind == string(StageErrorCanceled) {
				r.Outcome = OutcomeCanceled
			}
		}
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// finish stamps the end time and freezes durations into serializable form.
func (r *BuildReport) finish() {
	r.End = time.Now()
	r.StageDurationMS = make(map[string]float64, len(r.StageDurations))
	for name, d := range r.StageDurations {
		r.StageDurationMS[name] = float64(d.Microseconds()) / 1000.0
	}
}

// Duration returns the wall time of the build.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

// Persist writes the report as JSON inside the output directory (best effort
// for callers; errors are returned but typically only logged).
func (r *BuildReport) Persist(outputDir string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal build report: %w", err)
	}
	path := filepath.Join(outputDir, ReportFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write build report %s: %w", path, err)
	}
	return nil
}
