package site

// StageName is a strongly-typed identifier for a build stage. All canonical
// stages are declared as constants here for compile-time safety.
type StageName string

// Canonical stage names, in execution order.
const (
	StagePrepareOutput   StageName = "prepare_output"
	StageDiscoverContent StageName = "discover_content"
	StageLoadPosts       StageName = "load_posts"
	StageRenderMarkdown  StageName = "render_markdown"
	StagePermalinks      StageName = "permalinks"
	StageExcerpts        StageName = "excerpts"
	StageLastMod         StageName = "lastmod"
	StageRenderPages     StageName = "render_pages"
	StageIndexes         StageName = "indexes"
	StageFeed            StageName = "feed"
	StageRedirects       StageName = "redirects"
	StageCopyStatic      StageName = "copy_static"
)

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline assembles an ordered stage list.
type Pipeline struct {
	stages []StageDef
}

// NewPipeline returns an empty pipeline builder.
func NewPipeline() *Pipeline { return &Pipeline{} }

// Add appends a stage and returns the pipeline for chaining.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.stages = append(p.stages, StageDef{Name: name, Fn: fn})
	return p
}

// Build returns the ordered stage definitions.
func (p *Pipeline) Build() []StageDef { return p.stages }
