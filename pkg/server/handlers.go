package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/lightbox/pkg/errors"
	"github.com/matzehuels/lightbox/pkg/gallery"
	"github.com/matzehuels/lightbox/pkg/pipeline"
	"github.com/matzehuels/lightbox/pkg/quality"
	"github.com/matzehuels/lightbox/pkg/session"
	"github.com/matzehuels/lightbox/pkg/viewer"
)

type sessionView struct {
	ID        string         `json:"id"`
	ExpiresAt time.Time      `json:"expires_at"`
	Gallery   gallery.Layout `json:"gallery"`
	Viewer    viewer.State   `json:"viewer"`
}

func viewOf(sess *session.Session) sessionView {
	return sessionView{
		ID:        sess.ID,
		ExpiresAt: sess.ExpiresAt(),
		Gallery:   sess.Gallery.Layout(),
		Viewer:    sess.Viewer.State(),
	}
}

type moveResponse struct {
	Moved  bool         `json:"moved"`
	Viewer viewer.State `json:"viewer"`
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session) error

// withSession resolves {id} and turns handler errors into JSON errors.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.cfg.Sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		if err := h(w, r, sess); err != nil {
			s.writeError(w, err)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.cfg.Sessions.Len(),
	})
}

type createRequest struct {
	Width          float64 `json:"width"`
	ViewportWidth  int     `json:"viewport_width"`
	ViewportHeight int     `json:"viewport_height"`
	Quality        string  `json:"quality"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, err)
		return
	}

	gopts := s.cfg.Gallery
	gopts.Logger = s.logger
	if req.Width != 0 {
		gopts.Width = req.Width
	}

	vopts := append([]viewer.Option{viewer.WithLogger(s.logger)}, s.cfg.Viewer...)
	if req.ViewportWidth != 0 || req.ViewportHeight != 0 {
		if req.ViewportWidth <= 0 || req.ViewportHeight <= 0 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput,
				"viewport must be positive, got %dx%d", req.ViewportWidth, req.ViewportHeight))
			return
		}
		vopts = append(vopts, viewer.WithViewport(req.ViewportWidth, req.ViewportHeight))
	}
	if req.Quality != "" {
		pref, err := quality.ParsePreference(req.Quality)
		if err != nil {
			s.writeError(w, err)
			return
		}
		vopts = append(vopts, viewer.WithPreference(pref))
	}

	sess, err := s.cfg.Sessions.Create(s.cfg.Source, gopts, vopts...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("session created", "id", sess.ID, "width", gopts.Width)
	s.writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	s.writeJSON(w, http.StatusOK, viewOf(sess))
	return nil
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.cfg.Sessions.Delete(id) {
		s.writeError(w, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pageResponse struct {
	Loaded  bool           `json:"loaded"`
	Gallery gallery.Layout `json:"gallery"`
}

func (s *Server) handleMore(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	loaded, err := sess.Gallery.RequestMore(r.Context())
	if err != nil {
		return err
	}
	s.writeJSON(w, http.StatusOK, pageResponse{Loaded: loaded, Gallery: sess.Gallery.Layout()})
	return nil
}

func (s *Server) handleVisible(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	var req struct {
		Visible bool `json:"visible"`
	}
	if err := decode(r, &req, true); err != nil {
		return err
	}
	loaded, err := sess.Gallery.OnViewportVisible(r.Context(), req.Visible)
	if err != nil {
		return err
	}
	s.writeJSON(w, http.StatusOK, pageResponse{Loaded: loaded, Gallery: sess.Gallery.Layout()})
	return nil
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	var req struct {
		Width float64 `json:"width"`
	}
	if err := decode(r, &req, true); err != nil {
		return err
	}
	if err := sess.Gallery.OnContainerResize(req.Width); err != nil {
		return err
	}
	s.writeJSON(w, http.StatusOK, sess.Gallery.Layout())
	return nil
}

func (s *Server) handleViewerState(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	s.writeJSON(w, http.StatusOK, sess.Viewer.State())
	return nil
}

func (s *Server) handleFullsize(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	url, err := sess.Viewer.FullsizeURL()
	if err != nil {
		return err
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"url": url})
	return nil
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	var req struct {
		Index int `json:"index"`
	}
	if err := decode(r, &req, true); err != nil {
		return err
	}
	if err := sess.Viewer.Open(req.Index); err != nil {
		return err
	}
	s.writeJSON(w, http.StatusOK, sess.Viewer.State())
	return nil
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	var req struct {
		Direction int  `json:"direction"`
		Swipe     bool `json:"swipe"`
	}
	if err := decode(r, &req, true); err != nil {
		return err
	}
	moved, err := sess.Viewer.Navigate(req.Direction, req.Swipe)
	if err != nil {
		return err
	}
	s.writeJSON(w, http.StatusOK, moveResponse{Moved: moved, Viewer: sess.Viewer.State()})
	return nil
}

func (s *Server) handleFirst(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	return s.jump(w, sess, sess.Viewer.First)
}

func (s *Server) handleLast(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	return s.jump(w, sess, sess.Viewer.Last)
}

func (s *Server) jump(w http.ResponseWriter, sess *session.Session, fn func() (bool, error)) error {
	moved, err := fn()
	if err != nil {
		return err
	}
	s.writeJSON(w, http.StatusOK, moveResponse{Moved: moved, Viewer: sess.Viewer.State()})
	return nil
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	sess.Viewer.Close()
	s.writeJSON(w, http.StatusOK, sess.Viewer.State())
	return nil
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	var req struct {
		Preference string `json:"preference"`
	}
	if err := decode(r, &req, true); err != nil {
		return err
	}
	pref, err := quality.ParsePreference(req.Preference)
	if err != nil {
		return err
	}
	if err := sess.Viewer.SetPreference(pref); err != nil {
		return err
	}
	s.writeJSON(w, http.StatusOK, sess.Viewer.State())
	return nil
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	var req struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := decode(r, &req, true); err != nil {
		return err
	}
	if err := sess.Viewer.Resize(req.Width, req.Height); err != nil {
		return err
	}
	s.writeJSON(w, http.StatusOK, sess.Viewer.State())
	return nil
}

func (s *Server) handlePan(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	var req struct {
		Offset float64 `json:"offset"`
	}
	if err := decode(r, &req, true); err != nil {
		return err
	}
	if err := sess.Viewer.Pan(req.Offset); err != nil {
		return err
	}
	s.writeJSON(w, http.StatusOK, sess.Viewer.State())
	return nil
}

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := layoutOptions(s.cfg.Layout, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.cfg.Runner.Execute(r.Context(), s.cfg.Source, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	format := opts.Formats[0]
	cacheState := "miss"
	if res.CacheInfo.RenderHit {
		cacheState = "hit"
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Lightbox-Cache", cacheState)
	w.Header().Set("X-Lightbox-Catalog", res.CatalogHash)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Artifacts[format]); err != nil {
		s.logger.Error("write layout", "err", err)
	}
}

// layoutOptions overlays query parameters on the template options.
func layoutOptions(base pipeline.Options, r *http.Request) (pipeline.Options, error) {
	opts := base
	q := r.URL.Query()

	floats := map[string]*float64{"width": &opts.Width, "divisor": &opts.Divisor, "gap": &opts.Gap}
	for name, dst := range floats {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "query parameter %s", name)
			}
			*dst = f
		}
	}
	if v := q.Get("policy"); v != "" {
		opts.InvalidPolicy = v
	}
	if v := q.Get("refresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "query parameter refresh")
		}
		opts.Refresh = b
	}
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "query parameter format")
	}
	opts.Formats = []string{format}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "layout options")
	}
	return opts, nil
}
