// Package server is the webc development server: it builds the project,
// serves the output directory, rebuilds on file changes and reloads
// connected browsers.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sambeau/webcore/build"
	"github.com/sambeau/webcore/config"
)

// Server represents a webc dev server instance.
type Server struct {
	config     *config.Config
	configPath string
	stdout     io.Writer
	stderr     io.Writer
	mux        *http.ServeMux
	server     *http.Server
	builder    *build.Builder
	watcher    *Watcher

	// buildMu serialises builds and guards buildLog; mu guards the
	// fields below it.
	buildMu   sync.Mutex
	buildLog  *BuildLog
	mu        sync.RWMutex
	last      *build.Result
	lastErr   error
	reloadSeq uint64

	addr string // bound address, set once listening
}

// New creates a new dev server with the given configuration.
func New(cfg *config.Config, configPath string, stdout, stderr io.Writer) (*Server, error) {
	s := &Server{
		config:     cfg,
		configPath: configPath,
		stdout:     stdout,
		stderr:     stderr,
		mux:        http.NewServeMux(),
		builder:    build.New(cfg, stdout, stderr),
	}

	if cfg.Dev.BuildLog != "" {
		maxSize, err := config.ParseSize(cfg.Dev.LogMaxSize)
		if err != nil {
			return nil, fmt.Errorf("dev.log_max_size: %w", err)
		}
		bl, err := NewBuildLog(BuildLogConfig{
			Path:        cfg.Dev.BuildLog,
			MaxSize:     maxSize,
			TruncatePct: cfg.Dev.LogTruncatePct,
		})
		if err != nil {
			return nil, fmt.Errorf("opening build log: %w", err)
		}
		s.buildLog = bl
	}

	s.setupRoutes()
	return s, nil
}

// setupRoutes configures the HTTP mux.
func (s *Server) setupRoutes() {
	if s.config.Dev.LiveReload {
		s.mux.Handle("/__livereload", newLiveReloadHandler(s))
	}
	s.mux.Handle("/__webcore/builds", newBuildsHandler(s))
	s.mux.Handle("/", newSiteHandler(s))
}

// Rebuild runs one build. Only one build runs at a time; a later build
// overwrites the output of an earlier one. Browsers are told to reload
// when the output changed or force is set.
func (s *Server) Rebuild(ctx context.Context, reason string, force bool) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	if reason != "startup" {
		s.logInfo("rebuilding: %s", reason)
	}
	started := time.Now()
	res, err := s.builder.Build(ctx)
	s.recordBuild(reason, started, res, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// reload so open pages show the error
		s.lastErr = err
		s.reloadSeq++
		return err
	}
	changed := s.last == nil || s.last.Fingerprint != res.Fingerprint || s.lastErr != nil
	s.last = res
	s.lastErr = nil
	if changed || force {
		s.reloadSeq++
	}
	return nil
}

func (s *Server) recordBuild(reason string, started time.Time, res *build.Result, err error) {
	if s.buildLog == nil {
		return
	}
	rec := BuildRecord{
		Started:  started,
		Duration: time.Since(started),
		Reason:   reason,
		Status:   BuildOK,
	}
	if err != nil {
		rec.Status = BuildFailed
		rec.Message = err.Error()
	} else {
		rec.Pages = len(res.Pages)
		rec.Handlers = res.Handlers
		rec.Fingerprint = res.Fingerprint
		rec.Warnings = len(res.Warnings)
	}
	if logErr := s.buildLog.Record(rec); logErr != nil {
		s.logWarn("recording build: %v", logErr)
	}
}

// recentBuilds reads the build history; ok is false when there is no log.
func (s *Server) recentBuilds(limit int) (records []BuildRecord, ok bool, err error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	if s.buildLog == nil {
		return nil, false, nil
	}
	records, err = s.buildLog.Recent(limit)
	return records, true, err
}

// ReloadSeq returns the live reload sequence number.
func (s *Server) ReloadSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reloadSeq
}

// LastResult returns the last successful build and the error of the most
// recent build, if it failed.
func (s *Server) LastResult() (*build.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.lastErr
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux

	if s.config.Dev.LiveReload {
		handler = injectLiveReload(handler)
	}

	handler = newCompressionHandler(handler, s.config.Dev.Compression)

	// Wrap with request logging middleware (unless quiet or level is error-only)
	if !s.config.Logging.Quiet && s.config.Logging.Level != "error" {
		handler = newRequestLogger(handler, s.stdout, s.config.Logging.Format)
	}
	return handler
}

// Run builds the project, starts watching and serves until the context is
// cancelled. A failing initial build is reported but does not stop the
// server, so the next save can fix it.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	if err := s.Rebuild(ctx, "startup", false); err != nil {
		s.logError("%s", describe(err))
	}

	watcher, err := NewWatcher(s, s.configPath, s.stdout, s.stderr)
	if err != nil {
		s.logError("failed to create watcher: %v", err)
	} else {
		s.watcher = watcher
		if err := s.watcher.Start(ctx); err != nil {
			s.logError("failed to start watcher: %v", err)
		}
		defer s.watcher.Close()
	}

	ln, port, err := listen(s.config.Dev.Host, s.config.Dev.Port, s.config.Dev.PortTries)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()
	if port != s.config.Dev.Port {
		s.logWarn("port %d is in use, using %d", s.config.Dev.Port, port)
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()

	s.printBanner(port)
	if s.config.Dev.Open {
		if err := openBrowser(localURL(s.config.Dev.Host, port)); err != nil {
			s.logWarn("could not open a browser: %v", err)
		}
	}

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		fmt.Fprintf(s.stdout, "\nShutting down gracefully...\n")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Close releases the build log. It waits for a running build to finish.
func (s *Server) Close() error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	if s.buildLog != nil {
		err := s.buildLog.Close()
		s.buildLog = nil
		return err
	}
	return nil
}

func (s *Server) printBanner(port int) {
	fmt.Fprintf(s.stdout, "Serving %s on %s\n", s.config.Paths.Dist, localURL(s.config.Dev.Host, port))
	if !isAllInterfaces(s.config.Dev.Host) {
		return
	}
	if ip := networkIP(); ip != "" {
		url := fmt.Sprintf("http://%s:%d", ip, port)
		fmt.Fprintf(s.stdout, "Network: %s\n", url)
		printQR(s.stdout, url)
	}
}

func (s *Server) logInfo(format string, args ...interface{}) {
	if s.config.Logging.Level == "debug" || s.config.Logging.Level == "info" {
		fmt.Fprintf(s.stdout, "[INFO] "+format+"\n", args...)
	}
}

func (s *Server) logWarn(format string, args ...interface{}) {
	if s.config.Logging.Level != "error" {
		fmt.Fprintf(s.stderr, "[WARN] "+format+"\n", args...)
	}
}

func (s *Server) logError(format string, args ...interface{}) {
	fmt.Fprintf(s.stderr, "[ERROR] "+format+"\n", args...)
}
