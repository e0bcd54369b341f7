// Package redirects maps deprecated URLs to their current replacements and
// emits static meta-refresh pages so legacy links keep resolving on plain
// static hosting.
package redirects

import (
	"errors"
	"fmt"
	"html/template"
	"path"
	"sort"
	"strings"
)

var (
	ErrEmptyEntry      = errors.New("redirect source and target must be non-empty")
	ErrNotSiteAbsolute = errors.New("redirect paths must start with /")
	ErrSelfRedirect    = errors.New("redirect points at itself")
	ErrRedirectCycle   = errors.New("redirect cycle detected")
)

// Table is a static mapping from legacy URL paths to their replacements.
type Table map[string]string

// FromConfig normalizes a raw config map into a Table. Keys and values are
// cleaned but otherwise taken literally.
func FromConfig(m map[string]string) Table {
	t := make(Table, len(m))
	for src, dst := range m {
		t[normalize(src)] = normalize(dst)
	}
	return t
}

func normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return p
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	// Preserve a meaningful trailing slash; path.Clean strips it.
	trailing := strings.HasSuffix(p, "/") && p != "/"
	p = path.Clean(p)
	if trailing && p != "/" {
		p += "/"
	}
	return p
}

// Validate rejects empty entries, non-absolute paths, self-redirects, and
// two-step cycles (a -> b with b -> a).
func (t Table) Validate() error {
	for src, dst := range t {
		if src == "" || dst == "" {
			return ErrEmptyEntry
		}
		if !strings.HasPrefix(src, "/") || !strings.HasPrefix(dst, "/") {
			return fmt.Errorf("%w: %s -> %s", ErrNotSiteAbsolute, src, dst)
		}
		if pathKey(src) == pathKey(dst) {
			return fmt.Errorf("%w: %s", ErrSelfRedirect, src)
		}
		if back, ok := t[dst]; ok && pathKey(back) == pathKey(src) {
			return fmt.Errorf("%w: %s <-> %s", ErrRedirectCycle, src, dst)
		}
	}
	return nil
}

// Resolve returns the replacement for a legacy path. Lookup tolerates a
// missing or extra trailing slash.
func (t Table) Resolve(source string) (string, bool) {
	source = normalize(source)
	if dst, ok := t[source]; ok {
		return dst, true
	}
	if strings.HasSuffix(source, "/") {
		if dst, ok := t[strings.TrimSuffix(source, "/")]; ok {
			return dst, true
		}
	} else {
		if dst, ok := t[source+"/"]; ok {
			return dst, true
		}
	}
	return "", false
}

// Sources returns all legacy paths in deterministic order.
func (t Table) Sources() []string {
	out := make([]string, 0, len(t))
	for src := range t {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

// OutputPath maps a legacy URL path to the file written inside the output
// directory. File-style sources keep their name ("/feed.atom" becomes
// "feed.atom"); directory-style sources get an index ("/2013/old-post/"
// becomes "2013/old-post/index.html").
func OutputPath(source string) string {
	trimmed := strings.Trim(source, "/")
	if trimmed == "" {
		return "index.html"
	}
	if !strings.HasSuffix(source, "/") && path.Ext(trimmed) != "" {
		return trimmed
	}
	return path.Join(trimmed, "index.html")
}

func pathKey(p string) string {
	return strings.TrimSuffix(p, "/")
}

var pageTemplate = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Redirecting&hellip;</title>
<link rel="canonical" href="{{.}}">
<meta http-equiv="refresh" content="0; url={{.}}">
</head>
<body>
<p>This page has moved. If you are not redirected automatically, follow <a href="{{.}}">this link</a>.</p>
</body>
</html>
`))

// Page renders the meta-refresh document pointing at target.
func Page(target string) ([]byte, error) {
	var b strings.Builder
	if err := pageTemplate.Execute(&b, target); err != nil {
		return nil, fmt.Errorf("render redirect page: %w", err)
	}
	return []byte(b.String()), nil
}
