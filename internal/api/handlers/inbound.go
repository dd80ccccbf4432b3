package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/inboxpilot/mailextract/internal/inbound"
	"github.com/inboxpilot/mailextract/internal/models"
)

type InboundHandler struct {
	svc *inbound.Service
}

func NewInboundHandler(svc *inbound.Service) *InboundHandler {
	return &InboundHandler{svc: svc}
}

type ingestResponse struct {
	Email       *models.Email       `json:"email"`
	Attachments []models.Attachment `json:"attachments"`
}

// Receive accepts the inbound email webhook. Attachment storage and row
// writes must succeed; extraction is dispatched asynchronously afterwards.
func (h *InboundHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload inbound.Email
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	email, attachments, err := h.svc.Ingest(r.Context(), payload)
	if err != nil {
		slog.Error("email ingest failed", "message_id", payload.MessageID, "error", err)
		writeError(w, http.StatusInternalServerError, "ingest failed")
		return
	}

	writeJSON(w, http.StatusCreated, ingestResponse{Email: email, Attachments: attachments})
}
