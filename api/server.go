package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/wricardo/vector-race/game/engine"
	"github.com/wricardo/vector-race/game/geom"
	"github.com/wricardo/vector-race/game/service"
	"github.com/wricardo/vector-race/transport/websocket"
)

// maxBodySize bounds request bodies; the largest are hand-drawn tracks.
const maxBodySize = 1 << 20

// Server represents the REST API server
type Server struct {
	service service.RaceService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server
func NewServer(raceService service.RaceService, hub *websocket.Hub) *Server {
	s := &Server{
		service: raceService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Tracks
	api.HandleFunc("/tracks", s.handleListTracks).Methods("GET")
	api.HandleFunc("/tracks", s.handleSaveTrack).Methods("POST")
	api.HandleFunc("/tracks/{id}", s.handleGetTrack).Methods("GET")
	api.HandleFunc("/tracks/{id}/moves", s.handleLegalMoves).Methods("GET")
	api.HandleFunc("/generate", s.handleGenerateTrack).Methods("POST")

	// Races
	api.HandleFunc("/races", s.handleStartRace).Methods("POST")
	api.HandleFunc("/races", s.handleListRaces).Methods("GET")
	api.HandleFunc("/races/{id}", s.handleGetRace).Methods("GET")
	api.HandleFunc("/races/{id}", s.handleCancelRace).Methods("DELETE")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrRaceNotFound), errors.Is(err, service.ErrTrackNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTrack),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, engine.ErrNoEntrants):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		respondError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// Track Handlers

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.service.ListTracks(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(tracks),
		"tracks": tracks,
	})
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	trackID := mux.Vars(r)["id"]

	detail, err := s.service.GetTrack(r.Context(), trackID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleSaveTrack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrackID string `json:"track_id,omitempty"`
		engine.TrackConfig
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Track name is required")
		return
	}
	trackID := req.TrackID
	if trackID == "" {
		trackID = req.Name
	}

	if err := s.service.SaveTrack(r.Context(), trackID, &req.TrackConfig); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Track saved successfully",
		"track_id": trackID,
	})
}

func (s *Server) handleGenerateTrack(w http.ResponseWriter, r *http.Request) {
	var gen engine.GeneratorConfig
	if !decodeBody(w, r, &gen) {
		return
	}

	detail, err := s.service.GenerateTrack(r.Context(), gen)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// handleLegalMoves answers for a car at (x,y) that arrived with velocity
// (dx,dy). Omitted velocity components mean a standing start.
func (s *Server) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	trackID := mux.Vars(r)["id"]
	query := r.URL.Query()

	var values [4]int
	for i, name := range []string{"x", "y", "dx", "dy"} {
		raw := query.Get(name)
		if raw == "" {
			if i < 2 {
				respondError(w, http.StatusBadRequest, fmt.Sprintf("query parameter %s is required", name))
				return
			}
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("query parameter %s must be an integer", name))
			return
		}
		values[i] = v
	}

	pos := geom.Pos(values[0], values[1])
	velocity := geom.Vec(values[2], values[3])
	opts, err := s.service.LegalMoves(r.Context(), trackID, pos, velocity)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, opts)
}

// Race Handlers

func (s *Server) handleStartRace(w http.ResponseWriter, r *http.Request) {
	var req service.StartRaceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	info, err := s.service.StartRace(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[RACE] started id=%s track=%s drivers=%d", info.ID, info.TrackID, len(req.Drivers))
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListRaces(w http.ResponseWriter, r *http.Request) {
	races, err := s.service.ListRaces(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	total := len(races)

	query := r.URL.Query()
	if status := query.Get("status"); status != "" {
		filtered := races[:0]
		for _, race := range races {
			if string(race.Status) == status {
				filtered = append(filtered, race)
			}
		}
		races = filtered
	}

	// Keep the newest races when a limit is given
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(races) {
			races = races[len(races)-l:]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(races),
		"total": total,
		"races": races,
	})
}

func (s *Server) handleGetRace(w http.ResponseWriter, r *http.Request) {
	raceID := mux.Vars(r)["id"]

	info, err := s.service.GetRace(r.Context(), raceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleCancelRace(w http.ResponseWriter, r *http.Request) {
	raceID := mux.Vars(r)["id"]

	if err := s.service.CancelRace(r.Context(), raceID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Race %s deleted", raceID),
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	raceID := r.URL.Query().Get("race")
	if raceID == "" {
		http.Error(w, "race parameter required", http.StatusBadRequest)
		return
	}

	// Verify race exists
	info, err := s.service.GetRace(r.Context(), raceID)
	if err != nil {
		http.Error(w, "Invalid race", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, info.ID, info)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	spectators := 0
	for _, n := range s.hub.ClientCounts() {
		spectators += n
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"spectators": spectators,
	})
}
