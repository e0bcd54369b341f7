package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/caspervonb/blogsmith/internal/check"
	"github.com/caspervonb/blogsmith/internal/config"
	berrors "github.com/caspervonb/blogsmith/internal/errors"
	"github.com/caspervonb/blogsmith/internal/preview"
	"github.com/caspervonb/blogsmith/internal/site"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"blog.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output      string `short:"o" help:"Output directory (overrides config)"`
		Drafts      bool   `help:"Include draft posts"`
		Incremental bool   `short:"i" help:"Reuse cached markdown renders for unchanged posts"`
	} `cmd:"" help:"Build the site into the output directory"`

	Init struct {
		Force bool `help:"Overwrite existing files"`
	} `cmd:"" help:"Scaffold a new blog in the current directory"`

	New struct {
		Title string `arg:"" help:"Title of the new post"`
	} `cmd:"" help:"Scaffold a new post with front-matter"`

	Preview struct {
		Port   int  `short:"p" help:"Port to listen on (overrides config)"`
		Drafts bool `help:"Include draft posts"`
	} `cmd:"" help:"Serve the site locally and rebuild on change"`

	Check struct {
		Output string `short:"o" help:"Output directory (overrides config)"`
	} `cmd:"" help:"Verify links, permalinks, and redirects in the built output"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "build":
		cfg := mustLoadConfig()
		if err := runBuild(cfg); err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
	case "new <title>":
		cfg := mustLoadConfig()
		if err := runNew(cfg, CLI.New.Title); err != nil {
			slog.Error("New post failed", "error", err)
			os.Exit(1)
		}
	case "preview":
		cfg := mustLoadConfig()
		if err := runPreview(cfg); err != nil {
			slog.Error("Preview failed", "error", err)
			os.Exit(1)
		}
	case "check":
		cfg := mustLoadConfig()
		issues, err := runCheck(cfg)
		if err != nil {
			slog.Error("Check failed", "error", err)
			os.Exit(1)
		}
		if len(issues) > 0 {
			for _, issue := range issues {
				fmt.Println(issue.String())
			}
			slog.Error("Check found issues", "count", len(issues))
			os.Exit(1)
		}
		slog.Info("Check passed")
	default:
		slog.Error("Unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		msg := "Failed to load configuration"
		if berrors.IsCategory(err, berrors.CategoryValidation) {
			msg = "Configuration failed validation"
		}
		slog.Error(msg,
			"category", string(berrors.GetCategory(err)),
			"error", err)
		os.Exit(1)
	}
	return cfg
}

func runBuild(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	output := cfg.Output.Directory
	if CLI.Build.Output != "" {
		output = CLI.Build.Output
	}

	g, err := site.NewGenerator(cfg, output)
	if err != nil {
		return err
	}
	if CLI.Build.Drafts {
		g.SetDrafts(true)
	}
	if CLI.Build.Incremental {
		g.SetIncremental("")
	}

	report, err := g.Build(ctx)
	if err != nil {
		return err
	}
	slog.Info("Build finished",
		"outcome", string(report.Outcome),
		"posts", report.Posts,
		"pages", report.Pages,
		"duration", report.Duration().String())
	return nil
}

func runPreview(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port := cfg.Preview.Port
	if CLI.Preview.Port != 0 {
		port = CLI.Preview.Port
	}

	g, err := site.NewGenerator(cfg, cfg.Output.Directory)
	if err != nil {
		return err
	}
	if CLI.Preview.Drafts {
		g.SetDrafts(true)
	}

	server := preview.New(g, port)
	if cfg.Preview.Metrics {
		server.EnableMetrics()
	}
	return server.Run(ctx)
}

func runCheck(cfg *config.Config) ([]check.Issue, error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	output := cfg.Output.Directory
	if CLI.Check.Output != "" {
		output = CLI.Check.Output
	}

	checker, err := check.New(cfg, output)
	if err != nil {
		return nil, err
	}
	return checker.Run(ctx)
}
