package config

import (
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	berrors "github.com/caspervonb/blogsmith/internal/errors"
	"github.com/caspervonb/blogsmith/internal/permalink"
	"github.com/caspervonb/blogsmith/internal/redirects"
)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Site, validation.By(validateSite)),
		validation.Field(&c.Content, validation.By(validateContent)),
		validation.Field(&c.Permalink, validation.By(validatePermalink)),
		validation.Field(&c.Redirects, validation.By(validateRedirects)),
	)
}

func validateSite(value any) error {
	site, ok := value.(SiteConfig)
	if !ok {
		return berrors.ValidationError("unexpected site config type")
	}
	if err := validation.ValidateStruct(&site,
		validation.Field(&site.Title, validation.Required),
	); err != nil {
		return err
	}
	if site.BaseURL != "" {
		u, err := url.Parse(site.BaseURL)
		if err != nil {
			return berrors.ValidationError("base_url must be a valid URL")
		}
		if u.Scheme == "" || u.Host == "" {
			return berrors.ValidationError("base_url must be absolute (scheme and host)")
		}
	}
	return nil
}

func validateContent(value any) error {
	content, ok := value.(ContentConfig)
	if !ok {
		return berrors.ValidationError("unexpected content config type")
	}
	return validation.ValidateStruct(&content,
		validation.Field(&content.Dir, validation.Required),
		validation.Field(&content.PostsPerIndex, validation.Min(1)),
	)
}

func validatePermalink(value any) error {
	p, ok := value.(PermalinkConfig)
	if !ok {
		return berrors.ValidationError("unexpected permalink config type")
	}
	return permalink.ValidatePattern(p.Pattern)
}

func validateRedirects(value any) error {
	m, ok := value.(map[string]string)
	if !ok {
		return berrors.ValidationError("unexpected redirects type")
	}
	if len(m) == 0 {
		return nil
	}
	return redirects.FromConfig(m).Validate()
}
