package server

import (
	"encoding/json"
	"errors"
	"expvar"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wfunc/flowerzone/logger"
	"github.com/wfunc/flowerzone/persistence"
	"github.com/wfunc/flowerzone/services"
)

// Handler builds the HTTP router. It starts nothing.
func (s *GameServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/ws", s.handleWebSocket)
	r.Get("/healthz", s.handleHealth)
	r.Get("/rooms", s.handleListRooms)
	r.Get("/rooms/{code}", s.handleGetRoom)
	r.Get("/stats/{name}", s.handlePlayerStats)
	r.Handle("/metrics", s.monitor.Handler())
	r.Handle("/debug/vars", expvar.Handler())
	return r
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"connections": s.sessionManager.Count(),
	})
}

func (s *GameServer) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.roomService.ListRooms(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (s *GameServer) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	summary, found, err := s.roomService.GetRoom(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, errors.New("room not found"))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *GameServer) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statsService.PlayerStats(r.Context(), chi.URLParam(r, "name"))
	switch {
	case errors.Is(err, services.ErrHistoryDisabled):
		writeError(w, http.StatusNotImplemented, err)
	case errors.Is(err, persistence.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		logger.Log.Errorf("Player stats: %v", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	default:
		writeJSON(w, http.StatusOK, stats)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
