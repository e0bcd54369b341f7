// Package check verifies a built site: internal links must resolve to
// generated files or redirect sources, post pages must live at URLs of the
// configured permalink shape, and redirect targets must exist.
package check

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/caspervonb/blogsmith/internal/config"
	"github.com/caspervonb/blogsmith/internal/permalink"
	"github.com/caspervonb/blogsmith/internal/redirects"
)

// IssueKind classifies a finding.
type IssueKind string

const (
	IssueBrokenLink      IssueKind = "broken_link"      // internal href resolves to nothing
	IssueBadPermalink    IssueKind = "bad_permalink"    // post page URL off the configured shape
	IssueMissingRedirect IssueKind = "missing_redirect" // redirect target not generated
)

// Issue is one finding against the built output.
type Issue struct {
	Kind IssueKind
	Page string // output-relative page the issue was found in, if any
	Ref  string // offending link or path
}

func (i Issue) String() string {
	if i.Page == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Ref)
	}
	return fmt.Sprintf("%s: %s (in %s)", i.Kind, i.Ref, i.Page)
}

// Checker inspects an output directory against the site configuration.
type Checker struct {
	outputDir string
	shape     *regexp.Regexp
	structure *regexp.Regexp
	redirects redirects.Table
}

// New builds a Checker for the given configuration and output directory.
func New(cfg *config.Config, outputDir string) (*Checker, error) {
	shape, err := permalink.ShapeRegexp(cfg.Permalink.Pattern)
	if err != nil {
		return nil, err
	}
	structure, err := permalink.StructureRegexp(cfg.Permalink.Pattern)
	if err != nil {
		return nil, err
	}
	return &Checker{
		outputDir: outputDir,
		shape:     shape,
		structure: structure,
		redirects: redirects.FromConfig(cfg.Redirects),
	}, nil
}

// Run walks the output tree and returns all issues found, sorted for
// deterministic reporting. A non-empty slice is not an error; callers decide
// how to surface findings.
func (c *Checker) Run(ctx context.Context) ([]Issue, error) {
	if _, err := os.Stat(c.outputDir); err != nil {
		return nil, fmt.Errorf("output directory not found: %s", c.outputDir)
	}

	files, pages, err := c.collect(ctx)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for _, page := range pages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		refs, err := c.pageLinks(page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		for _, ref := range refs {
			if !c.resolves(ref, files) {
				issues = append(issues, Issue{Kind: IssueBrokenLink, Page: page, Ref: ref})
			}
		}
		urlPath := pagePath(page)
		if _, isRedirect := c.redirects.Resolve(urlPath); isRedirect {
			continue
		}
		// A page with the pattern's structure but off its shape is a
		// malformed post URL.
		if c.structure.MatchString(urlPath) && !c.shape.MatchString(urlPath) {
			issues = append(issues, Issue{Kind: IssueBadPermalink, Page: page, Ref: urlPath})
		}
	}

	for _, src := range c.redirects.Sources() {
		target, _ := c.redirects.Resolve(src)
		if !c.resolves(target, files) {
			issues = append(issues, Issue{Kind: IssueMissingRedirect, Page: redirects.OutputPath(src), Ref: target})
		}
	}

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Page != issues[j].Page {
			return issues[i].Page < issues[j].Page
		}
		return issues[i].Ref < issues[j].Ref
	})
	return issues, nil
}

// collect returns the set of output-relative file paths and the subset that
// are HTML documents.
func (c *Checker) collect(ctx context.Context) (map[string]struct{}, []string, error) {
	files := make(map[string]struct{})
	var pages []string
	err := filepath.WalkDir(c.outputDir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(c.outputDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		files[rel] = struct{}{}
		if strings.HasSuffix(rel, ".html") || strings.HasSuffix(rel, ".htm") {
			pages = append(pages, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk output directory: %w", err)
	}
	sort.Strings(pages)
	return files, pages, nil
}

// pageLinks parses the page and returns its site-internal references.
func (c *Checker) pageLinks(page string) ([]string, error) {
	f, err := os.Open(filepath.Join(c.outputDir, filepath.FromSlash(page)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, err
	}

	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			attr := ""
			switch n.Data {
			case "a", "link":
				attr = "href"
			case "img", "script":
				attr = "src"
			}
			if attr != "" {
				for _, a := range n.Attr {
					if a.Key == attr && internalRef(a.Val) {
						refs = append(refs, a.Val)
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return refs, nil
}

// internalRef reports whether a reference is a site-absolute path worth
// checking. External URLs, fragments, and mailto links are out of scope.
func internalRef(ref string) bool {
	if ref == "" || !strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "//") {
		return false
	}
	return true
}

// resolves reports whether a site-absolute path maps to a generated file or
// a configured redirect source.
func (c *Checker) resolves(ref string, files map[string]struct{}) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	p := path.Clean(u.Path)
	if p == "/" {
		_, ok := files["index.html"]
		return ok
	}

	rel := strings.TrimPrefix(p, "/")
	if _, ok := files[rel]; ok {
		return true
	}
	if _, ok := files[path.Join(rel, "index.html")]; ok {
		return true
	}
	if _, ok := c.redirects.Resolve(p); ok {
		return true
	}
	return false
}

// pagePath maps an output-relative file back to its URL path.
func pagePath(rel string) string {
	if rel == "index.html" {
		return "/"
	}
	if strings.HasSuffix(rel, "/index.html") {
		return "/" + strings.TrimSuffix(rel, "index.html")
	}
	return "/" + rel
}
