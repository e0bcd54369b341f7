// Package templates applies html/template layouts to rendered content.
// User templates in the configured directory override the embedded defaults
// by file name; a page's front-matter `template` field selects which one.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/caspervonb/blogsmith/internal/content"
	"github.com/caspervonb/blogsmith/internal/permalink"
)

//go:embed builtin/*.html
var builtinFS embed.FS

const baseName = "base"

// Site is the site-wide data exposed to every template.
type Site struct {
	Title       string
	Description string
	Author      string
	BaseURL     string
}

// YearGroup groups posts of one year for archive pages.
type YearGroup struct {
	Year  int
	Posts []*content.Post
}

// PageData is the execution context for a page template.
type PageData struct {
	Site  Site
	Title string
	Post  *content.Post
	Posts []*content.Post
	Tag   string
	Years []YearGroup
}

// Engine holds the parsed page templates.
type Engine struct {
	pages map[string]*template.Template
}

// NewEngine loads templates from dir (which may not exist) layered over the
// embedded defaults. dateFormat is the Go reference layout used by the
// formatDate helper.
func NewEngine(dir string, dateFormat string) (*Engine, error) {
	titleCaser := cases.Title(language.English)
	funcs := template.FuncMap{
		"formatDate": func(t time.Time) string { return t.Format(dateFormat) },
		"titleCase":  func(s string) string { return titleCaser.String(s) },
		"lower":      strings.ToLower,
		"tagURL": func(tag string) (string, error) {
			s, err := permalink.Slugify(tag)
			if err != nil {
				return "", err
			}
			return "/tags/" + s + "/", nil
		},
	}

	sources := map[string]string{}
	if err := fs.WalkDir(builtinFS, "builtin", func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		data, err := builtinFS.ReadFile(path)
		if err != nil {
			return err
		}
		sources[templateName(path)] = string(data)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("read builtin templates: %w", err)
	}

	// User overrides by file name.
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read templates directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("read template %s: %w", entry.Name(), err)
			}
			sources[templateName(entry.Name())] = string(data)
		}
	}

	base, ok := sources[baseName]
	if !ok {
		return nil, fmt.Errorf("base template missing")
	}

	e := &Engine{pages: make(map[string]*template.Template)}
	for name, src := range sources {
		if name == baseName {
			continue
		}
		tpl, err := template.New(name).Funcs(funcs).Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base template: %w", err)
		}
		if _, err := tpl.Parse(src); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		e.pages[name] = tpl
	}
	return e, nil
}

// Names returns the available page template names, sorted.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.pages))
	for name := range e.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render executes the named page template with data.
func (e *Engine) Render(name string, data PageData) ([]byte, error) {
	tpl, ok := e.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q (available: %s)", name, strings.Join(e.Names(), ", "))
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, baseName, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func templateName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".html")
}
