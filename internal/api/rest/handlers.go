package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fortuna/gridiron/internal/service"
	"github.com/gorilla/mux"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	gameService *service.GameService
}

// NewHandler creates a new handler
func NewHandler(games *service.GameService) *Handler {
	return &Handler{
		gameService: games,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "gridiron",
		"version": "1.3.0",
	})
}

// GetScoreboard returns the weekly scoreboard. Optional query params:
// week (int), seasontype (1=pre, 2=regular, 3=post).
func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	week := 0
	if weekStr := r.URL.Query().Get("week"); weekStr != "" {
		wk, err := strconv.Atoi(weekStr)
		if err != nil || wk < 1 || wk > 22 {
			respondError(w, http.StatusBadRequest, "Invalid week", err)
			return
		}
		week = wk
	}

	seasonType := 0
	if stStr := r.URL.Query().Get("seasontype"); stStr != "" {
		st, err := strconv.Atoi(stStr)
		if err != nil || st < 1 || st > 4 {
			respondError(w, http.StatusBadRequest, "Invalid seasontype", err)
			return
		}
		seasonType = st
	}

	sb, err := h.gameService.Scoreboard(r.Context(), week, seasonType)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to fetch scoreboard", err)
		return
	}

	respondJSON(w, http.StatusOK, sb)
}

// GetGameAnalysis returns the advanced stats payload for one game.
// Optional query param: threshold (0.5..1.0) overrides the win
// probability filter cutoff.
func (h *Handler) GetGameAnalysis(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID := vars["gameID"]

	if _, err := strconv.ParseInt(gameID, 10, 64); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid game ID", err)
		return
	}

	threshold := 0.0
	if thrStr := r.URL.Query().Get("threshold"); thrStr != "" {
		thr, err := strconv.ParseFloat(thrStr, 64)
		if err != nil || thr < 0.5 || thr > 1.0 {
			respondError(w, http.StatusBadRequest, "Invalid threshold (must be between 0.5 and 1.0)", err)
			return
		}
		threshold = thr
	}

	payload, err := h.gameService.AnalyzeGame(r.Context(), gameID, threshold)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to analyze game", err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
