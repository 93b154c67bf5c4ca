package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/puzzle-league/internal/domain"
	"github.com/puzzle-league/internal/leaderboard"
	"github.com/puzzle-league/internal/service"
	"github.com/puzzle-league/internal/websocket"
)

// Handler provides HTTP handlers for the puzzle league API
type Handler struct {
	service *service.Service
	hub     *websocket.Hub
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *service.Service, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		logger:  logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)
	r.Get("/version", h.Version)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/submissions", h.SubmitScores)

		r.Get("/scores", h.GetScores)
		r.Get("/scores/live", h.GetLiveStandings)
		r.Delete("/scores", h.DeleteScore)

		r.Get("/leaderboard", h.GetLeaderboard)

		r.Get("/players/{username}/history", h.GetHistory)

		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status, including store reachability
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Healthy(r.Context()); err != nil {
		h.writeJSON(w, http.StatusInternalServerError, APIResponse{
			Success: false,
			Data:    map[string]string{"status": "error", "db": err.Error()},
		})
		return
	}
	h.writeSuccess(w, map[string]string{"status": "ok", "db": "ok"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// Version returns the running application version
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	version := os.Getenv("APP_VERSION")
	if version == "" {
		version = "dev"
	}
	h.writeSuccess(w, map[string]string{"version": version})
}

// SubmitScores parses pasted share text and stores every detected result
func (h *Handler) SubmitScores(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	result, err := h.service.ProcessSubmission(r.Context(), sub)
	if err != nil {
		if domain.IsUserError(err) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Error("failed to process submission", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, result)
}

// GetScores returns all scores for one play date (today by default)
func (h *Handler) GetScores(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateParam(r, "date")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	scores, err := h.service.ScoresForDate(r.Context(), date)
	if err != nil {
		h.logger.Error("failed to get scores", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, scores)
}

// GetLiveStandings returns the intraday board for one game
func (h *Handler) GetLiveStandings(w http.ResponseWriter, r *http.Request) {
	game := domain.Game(r.URL.Query().Get("game"))
	date, err := h.dateParam(r, "date")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	entries, err := h.service.LiveStandings(r.Context(), game, date)
	if err != nil {
		if domain.IsUserError(err) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Error("failed to get live standings", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, entries)
}

// GetLeaderboard returns the weekly standings report
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if offsetStr := r.URL.Query().Get("week_offset"); offsetStr != "" {
		o, err := strconv.Atoi(offsetStr)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
			return
		}
		offset = o
	}

	mode := leaderboard.SortByWins
	if r.URL.Query().Get("sort") == string(leaderboard.SortByPoints) {
		mode = leaderboard.SortByPoints
	}

	h.writeSuccess(w, h.service.WeeklyLeaderboard(r.Context(), offset, mode))
}

// GetHistory returns a player's scores, newest first
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	scores, err := h.service.History(r.Context(), username)
	if err != nil {
		if domain.IsUserError(err) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Error("failed to get history", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, scores)
}

// deleteRequest is the body for score deletion
type deleteRequest struct {
	Username string `json:"username"`
	Game     string `json:"game"`
	Date     string `json:"date"`
}

// DeleteScore removes one (username, game, date) record
func (h *Handler) DeleteScore(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if req.Username == "" || req.Game == "" || req.Date == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	date, err := time.Parse(domain.DateFormat, req.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.service.DeleteScore(r.Context(), req.Username, domain.Game(req.Game), date); err != nil {
		switch {
		case errors.Is(err, domain.ErrScoreNotFound):
			h.writeError(w, http.StatusNotFound, err)
		case domain.IsUserError(err):
			h.writeError(w, http.StatusBadRequest, err)
		default:
			h.logger.Error("failed to delete score", "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		}
		return
	}

	h.writeSuccess(w, map[string]string{"status": "deleted"})
}

// dateParam reads an optional YYYY-MM-DD query parameter, defaulting to today
func (h *Handler) dateParam(r *http.Request, name string) (time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(domain.DateFormat, value)
}
