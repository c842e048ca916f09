package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lumenpms/channelsync/internal/engine"
	"github.com/lumenpms/channelsync/internal/gateway"
	"github.com/lumenpms/channelsync/internal/models"
)

// webhookPayload is the envelope the agencies deliver.
type webhookPayload struct {
	Event      string              `json:"event"`
	AgencyID   string              `json:"agency_id"`
	ExternalID string              `json:"external_id"`
	Data       *webhookReservation `json:"data,omitempty"`
}

type webhookReservation struct {
	GuestName   string    `json:"guest_name"`
	GuestEmail  string    `json:"guest_email"`
	RoomType    string    `json:"room_type"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	Nights      int       `json:"nights"`
	TotalAmount float64   `json:"total_amount"`
}

// handleWebhook authenticates the delivery against the agency's webhook
// secret and routes the event into the engine. Re-delivery is idempotent, so
// agencies can retry on any non-2xx response.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	agencyID := chi.URLParam(r, "agencyID")

	creds, ok := h.agencies[agencyID]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown agency")
		return
	}

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing webhook token")
		return
	}
	if _, err := gateway.VerifyWebhookToken(creds, token); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid webhook token")
		return
	}

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	ev := &engine.ChannelEvent{
		Event:      payload.Event,
		AgencyID:   agencyID,
		ExternalID: payload.ExternalID,
	}
	if payload.Data != nil {
		ev.Reservation = &models.ChannelReservation{
			GuestName:   payload.Data.GuestName,
			GuestEmail:  payload.Data.GuestEmail,
			RoomType:    payload.Data.RoomType,
			CheckIn:     payload.Data.CheckIn,
			CheckOut:    payload.Data.CheckOut,
			Nights:      payload.Data.Nights,
			TotalAmount: payload.Data.TotalAmount,
		}
	}

	entry, err := h.engine.IngestChannelEvent(r.Context(), ev)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}
