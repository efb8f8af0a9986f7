// Package app assembles the configured collaborators into a running
// server process.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/nsiona/tvb-framework/internal/burst"
	"github.com/nsiona/tvb-framework/internal/config"
	"github.com/nsiona/tvb-framework/internal/session"
	"github.com/nsiona/tvb-framework/internal/store"
	"github.com/nsiona/tvb-framework/internal/telemetry"
	"github.com/nsiona/tvb-framework/internal/web"
	"github.com/nsiona/tvb-framework/logging"
	loggingSinks "github.com/nsiona/tvb-framework/logging/sinks"
	"github.com/nsiona/tvb-framework/logging/weblog"
)

// Run builds the whole stack from the configuration and serves until
// the context is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger telemetry.Logger) error {
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	router, closeSinkFiles, err := NewEventRouter(cfg)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
		closeSinkFiles()
	}()

	st, err := store.NewStore(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return err
	}
	if err := st.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if cerr := store.CloseIfSupported(st); cerr != nil {
			logger.Printf("failed to close store: %v", cerr)
		}
	}()

	counters := telemetry.NewCounters()

	sessions := session.NewManager(cfg.Sessions.SessionTTL())
	sessions.OnNew = func(s *session.Session, r *http.Request) {
		counters.AddSessions(1)
		actor := logging.EntityRef{ID: s.ID(), Kind: logging.EntityKindSession}
		weblog.SessionStarted(r.Context(), router, actor,
			weblog.SessionPayload{RemoteAddr: r.RemoteAddr}, nil)
	}
	sessions.OnEnd = func(*session.Session) {
		counters.AddSessions(-1)
	}
	stopSweep := make(chan struct{})
	go sessions.Sweep(stopSweep)
	defer close(stopSweep)

	hub := burst.NewStatusHub(counters, logger)
	runner := burst.NewRunner(st, hub, router, counters, cfg.Simulation.Workers)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if serr := runner.Shutdown(shutdownCtx); serr != nil {
			logger.Printf("burst runner shutdown: %v", serr)
		}
	}()

	clientDir := cfg.ClientDir
	if clientDir == "" {
		resolved, rerr := web.ResolveClientDir()
		if rerr != nil {
			logger.Printf("client assets not served: %v", rerr)
		} else {
			clientDir = resolved
		}
	}

	srv := web.NewServer(web.Options{
		Store:     st,
		Sessions:  sessions,
		Hub:       hub,
		Runner:    runner,
		Publisher: router,
		Counters:  counters,
		LogStats:  router.Stats,
		ClientDir: clientDir,
		Project:   cfg.Project,
	})

	logger.Printf("server listening on %s", cfg.Listen)
	if err := srv.ListenAndServe(ctx, cfg.Listen); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// NewEventRouter constructs the event router with the configured
// sinks. The returned closer releases sink files once the router is
// closed.
func NewEventRouter(cfg *config.Config) (*logging.Router, func(), error) {
	logCfg := logging.DefaultConfig()
	logCfg.EnabledSinks = cfg.Logging.Sinks
	logCfg.MinimumSeverity = logging.SeverityFromName(cfg.Logging.Severity)
	logCfg.JSON.FilePath = cfg.Logging.JSONPath

	var named []logging.NamedSink
	var files []io.Closer
	if logCfg.HasSink("console") {
		named = append(named, logging.NamedSink{
			Name: "console",
			Sink: loggingSinks.NewConsoleSink(os.Stdout, logCfg.Console),
		})
	}
	if logCfg.HasSink("json") {
		f, err := os.OpenFile(logCfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open json event log: %w", err)
		}
		files = append(files, f)
		named = append(named, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSON(f, logCfg.JSON.FlushInterval),
		})
	}

	router, err := logging.NewRouter(nil, logCfg, named)
	if err != nil {
		for _, f := range files {
			f.Close()
		}
		return nil, nil, err
	}
	closeFiles := func() {
		for _, f := range files {
			f.Close()
		}
	}
	return router, closeFiles, nil
}
