package site

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caspervonb/blogsmith/internal/logfields"
)

// stagingSuffix is appended to the output directory name for the build's
// ephemeral staging area.
const stagingSuffix = ".staging"

func (g *Generator) buildRoot() string { return g.stageDir }

// beginStaging creates a fresh staging directory next to the output dir.
func (g *Generator) beginStaging() error {
	g.stageDir = g.outputDir + stagingSuffix
	if err := os.RemoveAll(g.stageDir); err != nil {
		return fmt.Errorf("clear staging directory: %w", err)
	}
	if err := os.MkdirAll(g.stageDir, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	return nil
}

// abortStaging removes the staging directory after a failed build, leaving
// any previous output untouched.
func (g *Generator) abortStaging() {
	if g.stageDir == "" {
		return
	}
	if err := os.RemoveAll(g.stageDir); err != nil {
		slog.Warn("Failed to remove staging directory", logfields.Path(g.stageDir), logfields.Error(err))
	}
}

// finalizeStaging promotes the staged site into the output directory. With
// Clean set the swap is a remove+rename; otherwise staged files are copied
// over the existing output.
func (g *Generator) finalizeStaging() error {
	if g.config.Output.Clean {
		if err := os.RemoveAll(g.outputDir); err != nil {
			return fmt.Errorf("clean output directory: %w", err)
		}
		if err := os.Rename(g.stageDir, g.outputDir); err != nil {
			return fmt.Errorf("promote staging directory: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	err := filepath.WalkDir(g.stageDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(g.stageDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(g.outputDir, rel)
		if entry.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		return copyFile(path, dst)
	})
	if err != nil {
		return fmt.Errorf("merge staging into output: %w", err)
	}
	return os.RemoveAll(g.stageDir)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
