package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Site: SiteConfig{
			Title:       "My Blog",
			Description: "Notes on programming and other things",
			Author:      "Jane Doe",
			BaseURL:     "https://example.com",
		},
		Content: ContentConfig{
			Dir:              DefaultContentDir,
			StaticDir:        DefaultStaticDir,
			TemplatesDir:     DefaultTemplatesDir,
			ExcerptSeparator: DefaultExcerptSeparator,
			PostsPerIndex:    DefaultPostsPerIndex,
		},
		Permalink: PermalinkConfig{
			Pattern: DefaultPermalinkPattern,
		},
		Feed: FeedConfig{
			Enabled: true,
			Path:    DefaultFeedPath,
			Limit:   DefaultFeedLimit,
		},
		Output: OutputConfig{
			Directory: DefaultOutputDirectory,
			Clean:     true,
		},
		Preview: PreviewConfig{
			Port: DefaultPreviewPort,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
