// Package web exposes the browser-facing HTTP API: the burst workflow,
// the surface model parameters workflow, surface geometry delivery and
// the burst status websocket.
package web

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nsiona/tvb-framework/internal/burst"
	"github.com/nsiona/tvb-framework/internal/session"
	"github.com/nsiona/tvb-framework/internal/store"
	"github.com/nsiona/tvb-framework/internal/telemetry"
	"github.com/nsiona/tvb-framework/logging"
	"github.com/nsiona/tvb-framework/logging/weblog"
)

// DefaultProject names the project sessions work in until something
// sets another one.
const DefaultProject = "default_project"

// Options carries the collaborators a Server needs. Store is required,
// the rest defaults to inert implementations.
type Options struct {
	Store     store.Store
	Sessions  *session.Manager
	Hub       *burst.StatusHub
	Runner    *burst.Runner
	Publisher logging.Publisher
	Counters  *telemetry.Counters
	LogStats  func() logging.RouterStats
	ClientDir string
	Project   string
}

// Server wires the controllers to their collaborators and owns the
// HTTP listener.
type Server struct {
	store     store.Store
	sessions  *session.Manager
	hub       *burst.StatusHub
	runner    *burst.Runner
	pub       logging.Publisher
	counters  *telemetry.Counters
	logStats  func() logging.RouterStats
	clientDir string
	project   string
	started   time.Time

	mu         sync.Mutex
	httpServer *http.Server
	addr       string
}

// NewServer builds a server from the options, filling in defaults.
func NewServer(opts Options) *Server {
	pub := opts.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	counters := opts.Counters
	if counters == nil {
		counters = telemetry.NewCounters()
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewManager(0)
	}
	project := opts.Project
	if project == "" {
		project = DefaultProject
	}
	return &Server{
		store:     opts.Store,
		sessions:  sessions,
		hub:       opts.Hub,
		runner:    opts.Runner,
		pub:       pub,
		counters:  counters,
		logStats:  opts.LogStats,
		clientDir: opts.ClientDir,
		project:   project,
		started:   time.Now(),
	}
}

// Sessions returns the session manager the server routes through.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Handler builds the full route table wrapped in the session and
// request logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/diagnostics", s.handleDiagnostics)

	mux.HandleFunc("/burst/", s.handleBurstIndex)
	mux.HandleFunc("/burst/launch", s.handleBurstLaunch)
	mux.HandleFunc("/burst/load", s.handleBurstLoad)
	mux.HandleFunc("/burst/rename", s.handleBurstRename)
	mux.HandleFunc("/burst/remove", s.handleBurstRemove)
	mux.HandleFunc("/burst/list", s.handleBurstList)

	const spatialBase = "/spatial/modelparameters/surface/"
	mux.HandleFunc(spatialBase+"edit_model_parameters", s.handleEditModelParameters)
	mux.HandleFunc(spatialBase+"apply_equation", s.handleApplyEquation)
	mux.HandleFunc(spatialBase+"apply_focal_point", s.handleApplyFocalPoint)
	mux.HandleFunc(spatialBase+"remove_focal_point", s.handleRemoveFocalPoint)
	mux.HandleFunc(spatialBase+"get_focal_points", s.handleGetFocalPoints)
	mux.HandleFunc(spatialBase+"get_equation_chart", s.handleEquationChart)
	mux.HandleFunc(spatialBase+"submit_model_parameters", s.handleSubmitModelParameters)

	mux.HandleFunc("/data/surface/", s.handleGeometry)
	mux.HandleFunc("/ws/burst", s.handleStatusSocket)

	if s.clientDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.clientDir)))
	}

	return s.sessions.Ensure(s.logRequests(mux))
}

// ListenAndServe serves the handler on addr and blocks until the
// context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.httpServer = &http.Server{Handler: s.Handler()}
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Addr returns the listening address, empty before ListenAndServe.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) projectFor(sess *session.Session) string {
	if name, ok := session.Project(sess); ok && name != "" {
		return name
	}
	session.SetProject(sess, s.project)
	return s.project
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.counters.RecordRequest()
		actor := logging.EntityRef{Kind: logging.EntityKindSystem}
		if sess := session.FromContext(r.Context()); sess != nil {
			actor = logging.EntityRef{ID: sess.ID(), Kind: logging.EntityKindSession}
		}
		weblog.RequestHandled(r.Context(), s.pub, actor, weblog.RequestPayload{
			Method:     r.Method,
			Path:       r.URL.Path,
			Status:     rec.status,
			DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		}, nil)
	})
}
