// Package preview serves the build output tree over local HTTP and owns the
// reload-signal channel the watch coordinator broadcasts through. A Session
// has an explicit start/stop lifecycle; nothing lives in package state.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/bindery/internal/errors"
	"git.home.luguber.info/inful/bindery/internal/metrics"
)

// Session is one development preview: a file server over the serve root
// plus the live-reload hub. Created by the serve task, captured by the
// watch coordinator, torn down on process exit.
type Session struct {
	root      string
	port      int
	startPath string

	hub      *ReloadHub
	recorder metrics.Recorder
	server   *http.Server
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithStartPath redirects "/" to the given path within the served tree.
func WithStartPath(startPath string) SessionOption {
	return func(s *Session) {
		s.startPath = startPath
	}
}

// WithRecorder wires a metrics recorder into the session and its hub.
func WithRecorder(rec metrics.Recorder) SessionOption {
	return func(s *Session) {
		s.recorder = rec
	}
}

// NewSession creates a preview session serving root on the given port.
func NewSession(root string, port int, options ...SessionOption) *Session {
	s := &Session{
		root:     root,
		port:     port,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range options {
		opt(s)
	}
	s.hub = NewReloadHub(s.recorder)
	return s
}

// Start binds the listening socket and serves in the background. The bind
// happens up front so port conflicts fail fast instead of surfacing from a
// goroutine later.
func (s *Session) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "failed to bind preview port").
			WithContext("addr", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/livereload", s.hub)
	mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte(ReloadScript))
	})
	if rec, ok := s.recorder.(*metrics.PrometheusRecorder); ok {
		mux.Handle("/metrics", rec.HTTPHandler())
	}
	mux.Handle("/", s.rootHandler())

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("Preview server error", "error", err)
		}
	}()

	slog.Info("Preview server listening",
		slog.Int("port", s.port),
		slog.String("root", s.root),
		slog.String("url", "http://localhost:"+strconv.Itoa(s.port)))
	return nil
}

// rootHandler serves the build tree with directory listing, redirecting "/"
// to the configured start path.
func (s *Session) rootHandler() http.Handler {
	files := http.FileServer(http.Dir(s.root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && s.startPath != "" {
			http.Redirect(w, r, "/"+strings.TrimPrefix(s.startPath, "/"), http.StatusFound)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// Reload broadcasts a reload signal to all connected preview clients.
func (s *Session) Reload() {
	s.hub.Broadcast(strconv.FormatInt(time.Now().UnixNano(), 10))
}

// Hub exposes the reload hub, mainly for tests.
func (s *Session) Hub() *ReloadHub {
	return s.hub
}

// Stop shuts the server and hub down gracefully.
func (s *Session) Stop(ctx context.Context) error {
	s.hub.Shutdown()
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityWarning, "preview shutdown error")
	}
	return nil
}
