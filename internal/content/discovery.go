package content

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caspervonb/blogsmith/internal/logfields"
)

// File represents a discovered content file.
type File struct {
	Path         string // Absolute path to the file
	RelativePath string // Path relative to the content directory
	Name         string // File name without extension
	Extension    string // File extension
	IsAsset      bool   // True for images and other non-markdown files
}

// Discovery walks a content directory for markdown posts and assets.
type Discovery struct {
	dir string
}

// NewDiscovery creates a discovery rooted at dir.
func NewDiscovery(dir string) *Discovery {
	return &Discovery{dir: dir}
}

// Discover enumerates markdown files and assets under the content directory.
// Hidden files and directories are skipped.
func (d *Discovery) Discover() ([]File, error) {
	if _, err := os.Stat(d.dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("content directory not found: %s", d.dir)
	}

	var files []File
	err := filepath.WalkDir(d.dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(d.dir, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}

		ext := filepath.Ext(entry.Name())
		f := File{
			Path:         path,
			RelativePath: relPath,
			Name:         strings.TrimSuffix(entry.Name(), ext),
			Extension:    ext,
			IsAsset:      !isMarkdownFile(path),
		}
		files = append(files, f)

		fileType := "post"
		if f.IsAsset {
			fileType = "asset"
		}
		slog.Debug("Discovered file", logfields.File(relPath), slog.String("type", fileType))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content directory %s: %w", d.dir, err)
	}

	slog.Info("Content discovered", logfields.Path(d.dir), logfields.Count(len(files)))
	return files, nil
}

// isMarkdownFile checks if a file is a markdown file
func isMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown" || ext == ".mdown" || ext == ".mkd"
}
