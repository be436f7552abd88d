// Package devserver is the local preview HTTP server for a build's output tree.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// DefaultPort is the preview port when none is given.
const DefaultPort = 4000

// Reserved paths; they shadow any output file of the same name.
const (
	MetricsPath = "/-/metrics"
	StatusPath  = "/-/status"
)

// Options configures a Server.
type Options struct {
	Host string
	Port int
	// Root is the output directory to serve.
	Root string
	// Metrics, when set, is mounted at MetricsPath.
	Metrics http.Handler
	// Status, when set, is mounted at StatusPath.
	Status http.Handler
	Logger *slog.Logger
}

// Server serves a build output tree.
type Server struct {
	opts   Options
	logger *slog.Logger
	srv    *http.Server
	ln     net.Listener
}

// New creates a Server. It does not listen until Start. Port 0 picks a
// free port.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{opts: opts, logger: opts.Logger}
}

// Handler returns the full handler tree, middleware included.
func (s *Server) Handler() http.Handler {
	adapter := derrors.NewHTTPErrorAdapter(s.logger)
	mux := http.NewServeMux()
	if s.opts.Metrics != nil {
		mux.Handle(MetricsPath, s.opts.Metrics)
	}
	if s.opts.Status != nil {
		mux.Handle(StatusPath, s.opts.Status)
	}
	mux.Handle("/", NewFileHandler(s.opts.Root, s.logger))
	return Chain(s.logger, adapter)(mux)
}

// Start binds the port and serves in the background. A bind failure is
// returned immediately.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "failed to bind preview server").
			WithContext("addr", addr).
			Build()
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Preview server error", logfields.Error(err))
		}
	}()
	s.logger.Info("Preview server running", slog.String("url", s.URL()), logfields.Path(s.opts.Root))
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// URL returns a browsable URL for the bound address.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == nil {
		return ""
	}
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "http://" + addr.String()
	}
	host := s.opts.Host
	if host == "" || tcp.IP.IsUnspecified() {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(tcp.Port)))
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("preview server shutdown: %w", err)
	}
	return nil
}
