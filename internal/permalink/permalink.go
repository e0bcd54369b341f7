// Package permalink derives stable, human-readable URL paths from post
// metadata using a token pattern such as "/:year/:month/:slug/".
package permalink

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
)

// Supported pattern tokens.
const (
	TokenYear  = ":year"
	TokenMonth = ":month"
	TokenDay   = ":day"
	TokenSlug  = ":slug"
)

var (
	ErrMissingSlugToken = errors.New("permalink pattern must contain :slug")
	ErrUnknownToken     = errors.New("permalink pattern contains unknown token")

	tokenRe = regexp.MustCompile(`:[a-z]+`)
)

// ValidatePattern checks that the pattern only uses supported tokens and
// includes :slug. Unknown tokens are rejected at configuration time so they
// never surface mid-build.
func ValidatePattern(pattern string) error {
	if !strings.Contains(pattern, TokenSlug) {
		return fmt.Errorf("%w: %q", ErrMissingSlugToken, pattern)
	}
	for _, tok := range tokenRe.FindAllString(pattern, -1) {
		switch tok {
		case TokenYear, TokenMonth, TokenDay, TokenSlug:
		default:
			return fmt.Errorf("%w: %q in %q", ErrUnknownToken, tok, pattern)
		}
	}
	return nil
}

// Formatter expands a permalink pattern for a post.
type Formatter struct {
	pattern string
}

// NewFormatter validates the pattern and returns a Formatter.
func NewFormatter(pattern string) (*Formatter, error) {
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}
	return &Formatter{pattern: pattern}, nil
}

// Format returns the permalink for the given date and slug. Permalinks are
// site-absolute and end with a trailing slash (pretty URLs).
func (f *Formatter) Format(date time.Time, postSlug string) string {
	r := strings.NewReplacer(
		TokenYear, fmt.Sprintf("%04d", date.Year()),
		TokenMonth, fmt.Sprintf("%02d", int(date.Month())),
		TokenDay, fmt.Sprintf("%02d", date.Day()),
		TokenSlug, postSlug,
	)
	p := path.Clean("/" + r.Replace(f.pattern))
	if p == "/" {
		return p
	}
	return p + "/"
}

// OutputPath maps a permalink to the file written inside the output
// directory ("/2014/03/hello/" -> "2014/03/hello/index.html").
func OutputPath(permalink string) string {
	trimmed := strings.Trim(permalink, "/")
	if trimmed == "" {
		return "index.html"
	}
	return path.Join(trimmed, "index.html")
}

// Slugify normalizes an arbitrary title or filename into a URL slug.
func Slugify(value string) (string, error) {
	s, err := slug.Normalize(value)
	if err != nil {
		return "", fmt.Errorf("slugify %q: %w", value, err)
	}
	return s, nil
}

// ShapeRegexp compiles the pattern into a regular expression matching
// permalinks of the configured shape. Used by the check command.
func ShapeRegexp(pattern string) (*regexp.Regexp, error) {
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}
	expr := regexp.QuoteMeta(path.Clean("/" + pattern))
	r := strings.NewReplacer(
		regexp.QuoteMeta(TokenYear), `\d{4}`,
		regexp.QuoteMeta(TokenMonth), `\d{2}`,
		regexp.QuoteMeta(TokenDay), `\d{2}`,
		regexp.QuoteMeta(TokenSlug), `[a-z0-9]+(?:-[a-z0-9]+)*`,
	)
	return regexp.Compile("^" + r.Replace(expr) + "/?$")
}

// StructureRegexp compiles the pattern into a regular expression matching
// any path with the pattern's structure: the same segment count with
// literal segments intact, but arbitrary token content. A path matching
// the structure without matching ShapeRegexp is a malformed post URL.
func StructureRegexp(pattern string) (*regexp.Regexp, error) {
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}
	expr := regexp.QuoteMeta(path.Clean("/" + pattern))
	for _, tok := range []string{TokenYear, TokenMonth, TokenDay, TokenSlug} {
		expr = strings.ReplaceAll(expr, regexp.QuoteMeta(tok), `[^/]+`)
	}
	return regexp.Compile("^" + expr + "/?$")
}
