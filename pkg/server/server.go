package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/host"
	"github.com/vango-dev/fibertree/pkg/idle"
	"github.com/vango-dev/fibertree/pkg/middleware"
)

// Server is the live preview HTTP/WebSocket server.
type Server struct {
	config   Config
	remote   *Remote
	loop     *idle.Loop
	hub      *Hub
	router   chi.Router
	upgrader websocket.Upgrader

	metrics  *middleware.Metrics
	gatherer prometheus.Gatherer

	nextClient atomic.Uint64
	httpServer *http.Server
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records live preview traffic in m and serves g on /metrics.
func WithMetrics(m *middleware.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// New creates a Server for remote. Engine work triggered by clients runs
// on loop, which must be the slicer the engine was built with.
func New(config Config, remote *Remote, loop *idle.Loop, opts ...Option) *Server {
	config = config.withDefaults()
	s := &Server{
		config: config,
		remote: remote,
		loop:   loop,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	s.hub = NewHub(s.metrics, s.logger)
	remote.OnPublish(func(msg Message) {
		s.hub.Broadcast(msg)
	})
	s.router = s.routes()
	return s
}

// Hub returns the client hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Config returns the effective configuration.
func (s *Server) Config() Config {
	return s.config
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handlePage)
	r.Get("/client.js", s.handleScript)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/snapshot", s.handleSnapshot)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// requestLogger logs each request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}

// onLoop runs fn on the loop goroutine and waits for it.
func (s *Server) onLoop(ctx context.Context, fn func()) bool {
	if err := s.loop.Call(ctx, fn); err != nil {
		s.logger.Warn("loop unavailable", "error", err)
		return false
	}
	return true
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var body string
	if !s.onLoop(r.Context(), func() { body = s.remote.HTML() }) {
		http.Error(w, "engine stopped", http.StatusServiceUnavailable)
		return
	}
	var buf bytes.Buffer
	if err := renderPage(&buf, s.config.Title, body); err != nil {
		s.logger.Error("page render failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write([]byte(clientScript))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var (
		tree WireNode
		html string
		seq  uint64
	)
	ok := s.onLoop(r.Context(), func() {
		tree = wireTree(s.remote.Root())
		html = s.remote.HTML()
		seq = s.remote.Seq()
	})
	if !ok {
		http.Error(w, "engine stopped", http.StatusServiceUnavailable)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Seq  uint64   `json:"seq"`
		Tree WireNode `json:"tree"`
	}{seq, tree})
}

// handleWebSocket upgrades the connection, sends the current tree and then
// streams op batches until the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		s.hub.recordError("upgrade")
		return
	}

	c := newClient(s.nextClient.Add(1), conn, s.config)

	// Registering on the loop orders the reset before any later batch.
	registered := s.onLoop(r.Context(), func() {
		c.queue(encode(s.remote.Reset()))
		s.hub.add(c)
	})
	if !registered {
		conn.Close()
		return
	}

	go c.writeLoop(s.hub)
	c.readLoop(s.hub, s.handleMessage)
}

// handleMessage decodes a client message and dispatches it on the loop.
func (s *Server) handleMessage(c *client, data []byte) {
	msg, err := DecodeClientMessage(data)
	if err != nil {
		s.logger.Warn("invalid client message", "client", c.id, "error", err)
		s.hub.recordError("invalid_message")
		c.queue(encode(errorMessage(err)))
		return
	}

	s.loop.Do(func() {
		called, ok := s.remote.DispatchEvent(msg)
		if !ok {
			err := errors.New("E141").WithDetailf("node %d is not attached", msg.Node)
			c.queue(encode(errorMessage(err)))
			return
		}
		s.logger.Debug("event dispatched",
			"client", c.id, "node", msg.Node, "event", msg.Event, "handlers", called)
	})
}

// Run starts the server and blocks until ctx is cancelled or the listener
// fails.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return errors.New("E140").Wrap(err).WithDetailf("listening on %s", s.config.Address)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown disconnects clients and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.hub.CloseAll()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return errors.New("E140").Wrap(err)
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}

var _ host.Inserter = (*Remote)(nil)
