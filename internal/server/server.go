// Package server exposes the tile pipeline over HTTP: tile images for map
// canvases, pyramid metadata, and marker discovery.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tilecraft/atlas/pkg/errors"
	"github.com/tilecraft/atlas/pkg/markers"
	"github.com/tilecraft/atlas/pkg/tilesource"
	"github.com/tilecraft/atlas/pkg/tilestore"
)

// Server serves tiles, metadata, and markers.
type Server struct {
	store    *tilestore.Store
	discover *markers.Discoverer
	logger   *log.Logger
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithDiscoverer enables the marker discovery endpoint.
func WithDiscoverer(d *markers.Discoverer) Option {
	return func(s *Server) { s.discover = d }
}

// New creates a server over the given tile store.
func New(store *tilestore.Store, opts ...Option) *Server {
	s := &Server{
		store:  store,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/pyramids/{hash}", s.handleMetadata)
	r.Get("/tiles/{hash}/{z}/{x}/{y}.png", s.handleTile)
	if s.discover != nil {
		r.Get("/maps/{id}/markers", s.handleMarkers)
	}
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "duration", time.Since(start).Round(time.Microsecond))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTile serves one tile. Addresses outside the pyramid, and pyramids
// that do not exist, resolve to the shared transparent placeholder rather
// than an error: a panning canvas should never see a broken tile.
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	z, errZ := strconv.Atoi(chi.URLParam(r, "z"))
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	y, errY := strconv.Atoi(chi.URLParam(r, "y"))
	if errZ != nil || errX != nil || errY != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidZoom, "tile address must be numeric"))
		return
	}

	data := tilesource.PlaceholderPNG
	if src, err := tilesource.New(r.Context(), s.store, hash, s.logger); err == nil {
		data = src.ReadTile(r.Context(), z, x, y)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	md, err := s.store.ReadMetadata(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	if md == nil {
		writeError(w, errors.New(errors.ErrCodePyramidNotFound, "no pyramid for hash %s", hash))
		return
	}
	writeJSON(w, http.StatusOK, md)
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "id")
	defs := s.discover.Discover(r.Context(), markers.Options{
		MapID:      mapID,
		TagFilters: r.URL.Query()["tag"],
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"mapId":   mapID,
		"markers": defs,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodePyramidNotFound, errors.ErrCodeImageNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidBlock, errors.ErrCodeInvalidCoordinate, errors.ErrCodeInvalidMarker,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidZoom:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(code),
	})
}
