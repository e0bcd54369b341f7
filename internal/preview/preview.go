// Package preview serves the built site locally and rebuilds it when
// content, templates, or static files change.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/caspervonb/blogsmith/internal/logfields"
	"github.com/caspervonb/blogsmith/internal/metrics"
	"github.com/caspervonb/blogsmith/internal/site"
)

// debounceDelay coalesces editor save bursts into a single rebuild.
const debounceDelay = 250 * time.Millisecond

// Server is the local preview server.
type Server struct {
	generator *site.Generator
	port      int
	recorder  *metrics.PrometheusRecorder
}

// New creates a preview server around an already-configured generator.
func New(generator *site.Generator, port int) *Server {
	return &Server{generator: generator, port: port}
}

// EnableMetrics wires a Prometheus recorder into the generator and exposes
// it at /metrics.
func (s *Server) EnableMetrics() *Server {
	s.recorder = metrics.NewPrometheusRecorder(nil)
	s.generator.SetRecorder(s.recorder)
	return s
}

// Run builds the site, starts watching for changes, and serves the output
// until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	if _, err := s.generator.Build(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	watcher, err := s.startWatcher(ctx)
	if err != nil {
		return err
	}
	defer watcher.Close()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening",
			slog.Int("port", s.port),
			logfields.Output(s.generator.OutputDir()))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown preview server: %w", err)
		}
		slog.Info("Preview server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

// handler assembles the chi router serving the built site.
func (s *Server) handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if s.recorder != nil {
		r.Method(http.MethodGet, "/metrics", s.recorder.Handler())
	}
	r.Handle("/*", http.FileServer(http.Dir(s.generator.OutputDir())))
	return r
}

// requestLogger logs each request through slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("Request",
			slog.String("method", r.Method),
			logfields.Path(r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)))
	})
}

// startWatcher begins watching source directories and rebuilding on change.
func (s *Server) startWatcher(ctx context.Context) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	cfg := s.generator.Config()
	for _, dir := range []string{cfg.Content.Dir, cfg.Content.TemplatesDir, cfg.Content.StaticDir} {
		if dir == "" {
			continue
		}
		if err := watchTree(watcher, dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	go s.watchLoop(ctx, watcher)
	return watcher, nil
}

// watchTree registers dir and every subdirectory. A missing dir is skipped;
// it may be created later but that is rare enough not to special-case.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// watchLoop debounces filesystem events into rebuilds until ctx is canceled.
func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var timer *time.Timer
	rebuild := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !relevantEvent(event) {
				continue
			}
			slog.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			// New directories need watching for events beneath them.
			if event.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		case <-rebuild:
			slog.Info("Rebuilding site")
			if _, err := s.generator.Build(ctx); err != nil {
				// Keep serving the last good output.
				slog.Error("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

// relevantEvent filters out chmod noise and hidden files.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if base == "" || base[0] == '.' {
		return false
	}
	return true
}
