package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lumenpms/channelsync/internal/engine"
	"github.com/lumenpms/channelsync/internal/models"
)

func (h *Handler) handleAddReservation(w http.ResponseWriter, r *http.Request) {
	var input engine.ReservationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	item, err := h.engine.AddReservation(r.Context(), &input)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleListQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"items":          h.engine.Queue(),
		"pending_count":  h.engine.PendingCount(),
		"conflict_count": h.engine.ConflictCount(),
	})
}

func (h *Handler) handleRemoveReservation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	if err := h.engine.RemoveReservation(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearSynced(w http.ResponseWriter, r *http.Request) {
	removed := h.engine.ClearSynced(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (h *Handler) handleRetryFailed(w http.ResponseWriter, r *http.Request) {
	reset := h.engine.RetryFailed(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"reset": reset})
}

func (h *Handler) handleListBuffer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": h.engine.Buffer()})
}

func (h *Handler) handleListConflicts(w http.ResponseWriter, r *http.Request) {
	openOnly := r.URL.Query().Get("open") == "true"
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": h.engine.Conflicts(openOnly)})
}

func (h *Handler) handleResolveConflict(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conflict id")
		return
	}

	var body struct {
		Resolution models.Resolution `json:"resolution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	conflict, err := h.engine.ResolveConflict(r.Context(), id, body.Resolution)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conflict)
}

func (h *Handler) handleListLog(w http.ResponseWriter, r *http.Request) {
	var entityID *uuid.UUID
	if raw := r.URL.Query().Get("entity"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid entity id")
			return
		}
		entityID = &id
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": h.engine.Log(entityID)})
}

func (h *Handler) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.TriggerSync(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if result == nil {
		// Offline, empty queue, or a pass already in flight.
		writeJSON(w, http.StatusAccepted, map[string]any{
			"started":    false,
			"is_syncing": h.engine.IsSyncing(),
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"online":         h.monitor.IsOnline(),
		"is_syncing":     h.engine.IsSyncing(),
		"degraded":       h.engine.Degraded(),
		"pending_count":  h.engine.PendingCount(),
		"conflict_count": h.engine.ConflictCount(),
		"last_sync":      h.engine.LastSync(),
		"last_result":    h.engine.LastResult(),
	})
}

// handleSetConnectivity lets the dashboard report an observed online/offline
// transition directly, alongside the background probe.
func (h *Handler) handleSetConnectivity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	h.monitor.SetOnline(body.Online)
	h.recordConnectivity(r.Context(), body.Online)
	writeJSON(w, http.StatusOK, map[string]bool{"online": body.Online})
}

func (h *Handler) recordConnectivity(ctx context.Context, online bool) {
	if h.status == nil {
		return
	}
	status := &models.ConnectivityStatus{Online: online}
	if err := h.status.SetConnectivity(ctx, status); err != nil {
		// Liveness signal only; the engine does not depend on it.
		log.Printf("[handlers] failed to record connectivity: %v", err)
	}
}

func (h *Handler) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	agencyID := chi.URLParam(r, "agencyID")

	creds, ok := h.agencies[agencyID]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown agency")
		return
	}
	if err := creds.Validate(); err != nil {
		writeEngineError(w, err)
		return
	}

	adapter, err := h.registry.Get(agencyID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	result, err := adapter.TestConnection(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if h.status != nil {
		health := &models.GatewayHealth{
			AgencyID:  agencyID,
			OK:        result.OK,
			LatencyMS: result.LatencyMS,
			Message:   result.Message,
		}
		if err := h.status.SetGatewayHealth(r.Context(), health); err != nil {
			log.Printf("[handlers] failed to record gateway health: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}
