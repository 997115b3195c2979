// Package web serves the lesion form as a server-rendered page. Each browser
// gets its own controller, selected by a session cookie.
package web

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-lesionform/pkg/controller"
	"github.com/goliatone/go-lesionform/pkg/render"
)

const (
	defaultPreviewTimeout = 10 * time.Second
	maxUploadBytes        = 10 << 20
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAssets serves files under /assets/.
func WithAssets(assets fs.FS) Option {
	return func(s *Server) {
		s.assets = assets
	}
}

// WithContractDocument serves document at /openapi.yaml.
func WithContractDocument(document []byte) Option {
	return func(s *Server) {
		s.contract = document
	}
}

// WithControllerOptions applies options to every session's controller.
func WithControllerOptions(options ...controller.Option) Option {
	return func(s *Server) {
		s.ctrlOptions = append(s.ctrlOptions, options...)
	}
}

// WithViewOptions applies options to every rendered view.
func WithViewOptions(options ...render.ViewOption) Option {
	return func(s *Server) {
		s.viewOptions = append(s.viewOptions, options...)
	}
}

// WithPreviewTimeout bounds how long GET /preview waits for a read.
func WithPreviewTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.previewTimeout = timeout
		}
	}
}

// Server wires sessions, controllers and the page renderer into HTTP routes.
type Server struct {
	submitter      controller.Submitter
	renderer       render.Renderer
	sessions       *sessionStore
	logger         *log.Logger
	assets         fs.FS
	contract       []byte
	ctrlOptions    []controller.Option
	viewOptions    []render.ViewOption
	previewTimeout time.Duration
}

// New builds a server that submits through submitter and draws pages with
// renderer.
func New(submitter controller.Submitter, renderer render.Renderer, options ...Option) (*Server, error) {
	if submitter == nil {
		return nil, errors.New("web: submitter is required")
	}
	if renderer == nil {
		return nil, errors.New("web: renderer is required")
	}
	s := &Server{
		submitter:      submitter,
		renderer:       renderer,
		logger:         log.New(io.Discard, "", 0),
		previewTimeout: defaultPreviewTimeout,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	s.sessions = newSessionStore(func() *controller.Controller {
		return controller.New(s.submitter, s.ctrlOptions...)
	})
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/", s.index)
	r.Post("/fields/{name}", s.changeField)
	r.Get("/preview", s.preview)
	r.Post("/predict", s.predict)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	if len(s.contract) > 0 {
		r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(s.contract)
		})
	}
	if s.assets != nil {
		r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(s.assets))))
	}
	return r
}

// SweepSessions closes sessions idle for longer than maxIdle every interval
// until ctx is done.
func (s *Server) SweepSessions(ctx context.Context, interval, maxIdle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.sessions.sweep(maxIdle); n > 0 {
				s.logger.Printf("web: closed %d idle sessions", n)
			}
		}
	}
}

// Close releases every session's background work.
func (s *Server) Close() {
	s.sessions.closeAll()
}
