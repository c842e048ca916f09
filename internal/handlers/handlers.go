// Package handlers is the HTTP boundary: webhook ingestion from the channel
// agencies and the dashboard-facing read model and admin operations.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lumenpms/channelsync/internal/engine"
	"github.com/lumenpms/channelsync/internal/gateway"
	"github.com/lumenpms/channelsync/internal/repositories"
	"github.com/lumenpms/channelsync/internal/utils"
)

type Handler struct {
	engine     *engine.Engine
	monitor    *engine.Monitor
	registry   *gateway.Registry
	agencies   map[string]*gateway.AgencyCredentials
	status     repositories.StatusRepository
	apiKeyHash string
}

func NewHandler(
	eng *engine.Engine,
	monitor *engine.Monitor,
	registry *gateway.Registry,
	agencies map[string]*gateway.AgencyCredentials,
	status repositories.StatusRepository,
	apiKeyHash string,
) *Handler {
	return &Handler{
		engine:     eng,
		monitor:    monitor,
		registry:   registry,
		agencies:   agencies,
		status:     status,
		apiKeyHash: apiKeyHash,
	}
}

func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	router.Post("/webhooks/{agencyID}", h.handleWebhook)

	router.Route("/api", func(r chi.Router) {
		r.Use(h.requireAPIKey)

		r.Post("/reservations", h.handleAddReservation)
		r.Get("/reservations", h.handleListQueue)
		r.Delete("/reservations/{id}", h.handleRemoveReservation)
		r.Post("/reservations/clear-synced", h.handleClearSynced)
		r.Post("/reservations/retry-failed", h.handleRetryFailed)

		r.Get("/buffer", h.handleListBuffer)

		r.Get("/conflicts", h.handleListConflicts)
		r.Post("/conflicts/{id}/resolve", h.handleResolveConflict)

		r.Get("/log", h.handleListLog)

		r.Post("/sync/trigger", h.handleTriggerSync)
		r.Get("/sync/status", h.handleSyncStatus)
		r.Post("/connectivity", h.handleSetConnectivity)

		r.Post("/agencies/{agencyID}/test-connection", h.handleTestConnection)
	})

	return router
}

// requireAPIKey guards the admin/dashboard routes with the configured key.
func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" || !utils.CheckAPIKey(h.apiKeyHash, key) {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[handlers] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeEngineError maps the engine error taxonomy onto HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	var terr *engine.TransportError
	var cfgErr *gateway.ConfigurationError
	switch {
	case engine.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case engine.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &terr):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &cfgErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
