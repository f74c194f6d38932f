// Package server exposes gallery sessions over HTTP.
//
// Each session owns a gallery controller and a viewer navigator over the
// server's catalog. Clients drive them with small JSON requests and receive
// snapshots back; nothing is rendered server side except the stateless
// GET /layout artifact.
//
//	POST   /sessions                       create a session
//	GET    /sessions/{id}                  gallery + viewer snapshot
//	DELETE /sessions/{id}                  drop a session
//	POST   /sessions/{id}/more             request the next page
//	POST   /sessions/{id}/visible          bottom-of-gallery visibility
//	POST   /sessions/{id}/resize           container width change
//	GET    /sessions/{id}/viewer           viewer snapshot
//	GET    /sessions/{id}/viewer/fullsize  raw tier URL of the active image
//	POST   /sessions/{id}/viewer/{action}  open, navigate, first, last,
//	                                       close, quality, viewport, pan
//	GET    /layout                         full layout artifact (json, svg or png)
//	GET    /healthz                        liveness
package server

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/errors"
	"github.com/matzehuels/lightbox/pkg/gallery"
	"github.com/matzehuels/lightbox/pkg/pipeline"
	"github.com/matzehuels/lightbox/pkg/session"
	"github.com/matzehuels/lightbox/pkg/viewer"
)

// Config wires a [Server] to its catalog and shared state.
type Config struct {
	// Source is the catalog every session pages through. Required.
	Source catalog.Source

	// Sessions holds live sessions. Defaults to a store with
	// [session.DefaultTTL].
	Sessions *session.Store

	// Runner computes GET /layout. Defaults to an uncached runner.
	Runner *pipeline.Runner

	// Gallery is the template for new sessions. A request may override
	// the width.
	Gallery gallery.Options

	// Layout is the template for GET /layout. Query parameters override it.
	Layout pipeline.Options

	// Viewer options applied to every new session before request overrides.
	Viewer []viewer.Option

	Logger *log.Logger
}

// Server is an http.Handler serving the gallery API.
type Server struct {
	cfg    Config
	logger *log.Logger
	router chi.Router
}

// New validates cfg and builds the router.
func New(cfg Config) (*Server, error) {
	if cfg.Source == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "server needs a catalog source")
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewStore(session.DefaultTTL)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}
	s.router = s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the session store.
func (s *Server) Sessions() *session.Store { return s.cfg.Sessions }

// CatalogReloaded resets every session's gallery so the next page request
// starts over on the new catalog contents. Viewers follow the gallery and
// close once its image list is empty.
func (s *Server) CatalogReloaded() {
	n := 0
	s.cfg.Sessions.Each(func(sess *session.Session) {
		sess.Gallery.Reset()
		n++
	})
	s.logger.Info("catalog reloaded", "sessions_reset", n)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/layout", s.handleLayout)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.withSession(s.handleGetSession))
			r.Delete("/", s.handleDeleteSession)
			r.Post("/more", s.withSession(s.handleMore))
			r.Post("/visible", s.withSession(s.handleVisible))
			r.Post("/resize", s.withSession(s.handleResize))

			r.Route("/viewer", func(r chi.Router) {
				r.Get("/", s.withSession(s.handleViewerState))
				r.Get("/fullsize", s.withSession(s.handleFullsize))
				r.Post("/open", s.withSession(s.handleOpen))
				r.Post("/navigate", s.withSession(s.handleNavigate))
				r.Post("/first", s.withSession(s.handleFirst))
				r.Post("/last", s.withSession(s.handleLast))
				r.Post("/close", s.withSession(s.handleClose))
				r.Post("/quality", s.withSession(s.handleQuality))
				r.Post("/viewport", s.withSession(s.handleViewport))
				r.Post("/pan", s.withSession(s.handlePan))
			})
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
