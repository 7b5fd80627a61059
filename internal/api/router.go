package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/user/hundred-acre-realm/internal/game"
	"github.com/user/hundred-acre-realm/internal/index"
	"github.com/user/hundred-acre-realm/internal/interfaces"
	"github.com/user/hundred-acre-realm/internal/mapstate"
	"github.com/user/hundred-acre-realm/internal/types"
	"go.uber.org/zap"
)

// Server exposes derived session artifacts over HTTP, read-only
type Server struct {
	artifacts interfaces.ArtifactReader
	index     interfaces.SessionIndex
	qr        *QRCodeManager
	logger    *zap.Logger
}

// NewServer creates an artifact API. index may be nil.
func NewServer(artifacts interfaces.ArtifactReader, index interfaces.SessionIndex, publicURL string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		artifacts: artifacts,
		index:     index,
		qr:        NewQRCodeManager(publicURL, logger),
		logger:    logger,
	}
}

// Router builds the chi router with every route mounted
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	router.Get("/sessions", s.listSessions)
	router.Route("/sessions/{name}", func(r chi.Router) {
		r.Use(validSessionName)
		r.Get("/", s.artifact(game.ArtifactSession))
		r.Get("/summary", s.summary)
		r.Get("/inventories", s.artifact(game.ArtifactInventories))
		r.Get("/scores", s.artifact(game.ArtifactScores))
		r.Get("/map", s.artifact(game.ArtifactMapData))
		r.Get("/map-state", s.artifact(game.ArtifactMapState))
		r.Get("/map-state/{day}", s.mapStateDay)
		r.Get("/title", s.artifact(game.ArtifactTitle))
		r.Get("/qr.png", s.qrCode)
	})

	return router
}

// validSessionName rejects names that could escape the data directory
func validSessionName(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
			writeError(w, http.StatusBadRequest, "invalid session name")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if s.index != nil {
		summaries, err := s.index.List(r.Context())
		if err != nil {
			s.logger.Error("Failed to list sessions", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list sessions")
			return
		}
		writeJSON(w, http.StatusOK, summaries)
		return
	}

	names, err := s.artifacts.ListSessions()
	if err != nil {
		s.logger.Error("Failed to list sessions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	summaries := make([]types.SessionSummary, 0, len(names))
	for _, name := range names {
		summaries = append(summaries, types.SessionSummary{Name: name, SessionID: game.SessionID(name)})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeError(w, http.StatusNotFound, "session index not configured")
		return
	}

	name := chi.URLParam(r, "name")
	summary, err := s.index.Get(r.Context(), name)
	if errors.Is(err, index.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.logger.Error("Failed to get session summary", zap.String("session", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// artifact serves one stored JSON artifact as-is
func (s *Server) artifact(artifact string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		data, ok := s.read(w, name, artifact)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func (s *Server) mapStateDay(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	day := chi.URLParam(r, "day")

	if _, _, err := types.ParseDayKey(day); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, ok := s.read(w, name, game.ArtifactMapState)
	if !ok {
		return
	}

	var states []mapstate.DaySnapshot
	if err := json.Unmarshal(data, &states); err != nil {
		s.logger.Error("Failed to parse map state", zap.String("session", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load map state")
		return
	}

	for _, state := range states {
		if state.DayKey == day {
			writeJSON(w, http.StatusOK, state)
			return
		}
	}
	writeError(w, http.StatusNotFound, "day not found")
}

func (s *Server) qrCode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.read(w, name, game.ArtifactSession); !ok {
		return
	}

	png, err := s.qr.SessionQRCode(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// read loads an artifact, answering 404 or 500 itself when it cannot
func (s *Server) read(w http.ResponseWriter, session, artifact string) ([]byte, bool) {
	data, err := s.artifacts.ReadArtifact(session, artifact)
	if errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusNotFound, "failed to load "+artifact)
		return nil, false
	}
	if err != nil {
		s.logger.Error("Failed to read artifact",
			zap.String("session", session),
			zap.String("artifact", artifact),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load "+artifact)
		return nil, false
	}
	return data, true
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
