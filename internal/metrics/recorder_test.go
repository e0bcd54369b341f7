package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("render_markdown", time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("render_markdown", ResultSuccess)
	r.IncBuildOutcome("success")
	r.AddPostsRendered(3)
}

func TestPrometheusRecorderExposesMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration("render_markdown", 50*time.Millisecond)
	pr.ObserveBuildDuration(time.Second)
	pr.IncStageResult("render_markdown", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.AddPostsRendered(7)

	rec := httptest.NewRecorder()
	pr.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, body, "blogsmith_build_duration_seconds")
	assert.Contains(t, body, `blogsmith_stage_results_total{result="success",stage="render_markdown"} 1`)
	assert.Contains(t, body, `blogsmith_build_outcomes_total{outcome="success"} 1`)
	assert.Contains(t, body, "blogsmith_posts_rendered_total 7")
}
