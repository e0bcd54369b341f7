package config

// Default values applied after unmarshal and for in-memory configs (preview).
const (
	DefaultContentDir       = "content"
	DefaultStaticDir        = "static"
	DefaultTemplatesDir     = "templates"
	DefaultExcerptSeparator = "<!--more-->"
	DefaultPostsPerIndex    = 10
	DefaultPermalinkPattern = "/:year/:month/:slug/"
	DefaultDateFormat       = "January 2, 2006"
	DefaultFeedPath         = "/feed.xml"
	DefaultFeedLimit        = 20
	DefaultOutputDirectory  = "./public"
	DefaultPreviewPort      = 8080
)

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "A Blog"
	}
	if c.Site.DateFormat == "" {
		c.Site.DateFormat = DefaultDateFormat
	}
	if c.Content.Dir == "" {
		c.Content.Dir = DefaultContentDir
	}
	if c.Content.StaticDir == "" {
		c.Content.StaticDir = DefaultStaticDir
	}
	if c.Content.TemplatesDir == "" {
		c.Content.TemplatesDir = DefaultTemplatesDir
	}
	if c.Content.ExcerptSeparator == "" {
		c.Content.ExcerptSeparator = DefaultExcerptSeparator
	}
	if c.Content.PostsPerIndex <= 0 {
		c.Content.PostsPerIndex = DefaultPostsPerIndex
	}
	if c.Permalink.Pattern == "" {
		c.Permalink.Pattern = DefaultPermalinkPattern
	}
	if c.Feed.Path == "" {
		c.Feed.Path = DefaultFeedPath
	}
	if c.Feed.Limit <= 0 {
		c.Feed.Limit = DefaultFeedLimit
	}
	if c.Output.Directory == "" {
		c.Output.Directory = DefaultOutputDirectory
		c.Output.Clean = true
	}
	if c.Preview.Port == 0 {
		c.Preview.Port = DefaultPreviewPort
	}
}

// NewDefault returns a config with all defaults applied, suitable for
// in-memory use (preview of a directory without a config file).
func NewDefault() *Config {
	c := &Config{}
	c.applyDefaults()
	c.Output.Clean = true
	return c
}
