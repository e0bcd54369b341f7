package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	berrors "github.com/caspervonb/blogsmith/internal/errors"
)

// Config represents the blog configuration
type Config struct {
	Site      SiteConfig        `yaml:"site"`
	Content   ContentConfig     `yaml:"content"`
	Permalink PermalinkConfig   `yaml:"permalink"`
	Feed      FeedConfig        `yaml:"feed"`
	Redirects map[string]string `yaml:"redirects,omitempty"`
	Output    OutputConfig      `yaml:"output"`
	Preview   PreviewConfig     `yaml:"preview"`
}

// SiteConfig carries site-wide metadata rendered into templates and the feed.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Author      string `yaml:"author,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	DateFormat  string `yaml:"date_format,omitempty"` // Go reference layout used by templates
}

// ContentConfig locates source material on disk.
type ContentConfig struct {
	Dir              string `yaml:"dir"`
	StaticDir        string `yaml:"static_dir,omitempty"`
	TemplatesDir     string `yaml:"templates_dir,omitempty"`
	ExcerptSeparator string `yaml:"excerpt_separator,omitempty"`
	PostsPerIndex    int    `yaml:"posts_per_index,omitempty"`
	Drafts           bool   `yaml:"drafts,omitempty"` // include draft posts
}

// PermalinkConfig controls the URL shape of rendered posts.
type PermalinkConfig struct {
	Pattern string `yaml:"pattern"` // e.g. /:year/:month/:slug/
}

// FeedConfig controls RSS feed generation.
type FeedConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
	Limit   int    `yaml:"limit,omitempty"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// PreviewConfig configures the local preview server.
type PreviewConfig struct {
	Port    int  `yaml:"port,omitempty"`
	Metrics bool `yaml:"metrics,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if present; absence is fine.
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
			}
			break
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, berrors.New(berrors.CategoryConfig, berrors.SeverityFatal,
			fmt.Sprintf("configuration file not found: %s", configPath))
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, berrors.Wrap(err, berrors.CategoryConfig, berrors.SeverityFatal, "failed to read config file")
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, berrors.Wrap(err, berrors.CategoryConfig, berrors.SeverityFatal, "failed to unmarshal config")
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, berrors.Wrap(err, berrors.CategoryValidation, berrors.SeverityFatal, "invalid configuration").
			WithContext("path", configPath)
	}

	return &config, nil
}
