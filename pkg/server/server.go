package server

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	rferrors "github.com/reflow-dev/reflow/internal/errors"
	"github.com/reflow-dev/reflow/pkg/component"
	"github.com/reflow-dev/reflow/pkg/host/memdom"
	"github.com/reflow-dev/reflow/pkg/middleware"
	"github.com/reflow-dev/reflow/pkg/reactive"
	"github.com/reflow-dev/reflow/pkg/vdom"
)

// Server serves one Reflow application: server-rendered pages on every
// unclaimed route, and live sessions on /live.
type Server struct {
	app      component.Options
	config   *Config
	sessions *Manager
	upgrader websocket.Upgrader

	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *Metrics

	router     chi.Router
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the Prometheus registry backing /metrics. Defaults to
// a fresh registry per server.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// New creates a server for app. config may be nil for defaults.
func New(app component.Options, config *Config, opts ...Option) *Server {
	s := &Server{
		app:    app,
		config: config.withDefaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "server")
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	s.metrics = NewMetrics(s.registry)
	s.sessions = NewManager(s.config, s.logger, s.metrics)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:   s.config.ReadBufferSize,
		WriteBufferSize:  s.config.WriteBufferSize,
		CheckOrigin:      s.config.CheckOrigin,
		HandshakeTimeout: s.config.HandshakeTimeout,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.OpenTelemetry())
	r.Use(middleware.Prometheus(
		middleware.WithRegistry(s.registry),
		middleware.WithNamespace("reflow"),
	))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/live", s.handleWebSocket)
	r.NotFound(s.handlePage)
	return r
}

// Handler returns the server's HTTP handler, for mounting under an
// existing router or an httptest server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the server's session manager.
func (s *Server) Sessions() *Manager {
	return s.sessions
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","sessions":%d}`, s.sessions.Count())
}

// handleWebSocket upgrades the connection and runs the hello handshake:
// the client speaks first, optionally naming a session to resume.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	conn.SetReadLimit(s.config.MaxMessageSize)

	conn.SetReadDeadline(time.Now().Add(s.config.HandshakeTimeout))
	var hello Frame
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != FrameHello {
		s.logger.Warn("bad handshake", "error", err, "remote", r.RemoteAddr)
		conn.WriteJSON(&Frame{Type: FrameError, Code: "R061", Message: "expected hello frame"})
		conn.Close()
		return
	}

	if hello.SessionID != "" {
		if sess := s.sessions.Get(hello.SessionID); sess != nil {
			s.resumeSession(sess, conn)
			return
		}
		// Stale ID; fall through and hand out a fresh session.
		s.logger.Info("resume for unknown session", "session_id", hello.SessionID)
	}

	sess, err := s.sessions.Create(conn, s.app)
	if err != nil {
		conn.WriteJSON(&Frame{Type: FrameClose, Code: "R004", Message: err.Error()})
		conn.Close()
		return
	}

	if err := sess.sendHello(); err != nil {
		sess.Close()
		return
	}
	if _, err := sess.flushPatches(); err != nil {
		sess.Close()
		return
	}
	sess.Start(conn)
}

func (s *Server) resumeSession(sess *Session, conn *websocket.Conn) {
	if err := sess.Resume(conn); err != nil {
		conn.WriteJSON(&Frame{Type: FrameClose, Code: "R004", Message: err.Error()})
		conn.Close()
		return
	}
	if err := sess.sendHello(); err != nil {
		return
	}
	if err := sess.sendResync(); err != nil {
		return
	}
	sess.Start(conn)
}

// handlePage renders the app to static markup for a plain HTTP request.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	markup, err := s.RenderPage()
	if err != nil {
		s.logger.Error("page render failed", "error", err, "path", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, rferrors.FromError(err, "R006").FormatJSON())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageShell, html.EscapeString(s.appName()), markup)
}

const pageShell = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>%s</body>
</html>
`

func (s *Server) appName() string {
	if s.app.Name != "" {
		return s.app.Name
	}
	return "Reflow"
}

// RenderPage mounts the app into a throwaway document and returns its
// markup.
func (s *Server) RenderPage() (markup string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panic: %v", r)
		}
	}()

	sched := reactive.NewScheduler(reactive.WithLogger(s.logger))
	defer sched.Close()

	doc := memdom.New("div")
	env := component.Env{
		Scheduler: sched,
		Patcher:   vdom.NewPatcher(doc),
		Logger:    s.logger,
	}
	inst := component.New(s.app, env, nil, nil)
	inst.Mount(doc.Root())
	<-sched.NextTick()

	sched.Do(func() {
		markup = doc.HTML()
	})
	inst.Destroy()
	return markup, nil
}

// Run starts the server and blocks until SIGINT or SIGTERM, then shuts
// down gracefully.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "address", s.config.Address)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		s.logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown closes all sessions and stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.Shutdown()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
