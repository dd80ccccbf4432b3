package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inboxpilot/mailextract/internal/cache"
	"github.com/inboxpilot/mailextract/internal/extract"
	"github.com/inboxpilot/mailextract/internal/inbound"
	"github.com/inboxpilot/mailextract/internal/models"
)

type AttachmentsHandler struct {
	svc      *inbound.Service
	outcomes *cache.OutcomeCache
}

func NewAttachmentsHandler(svc *inbound.Service, outcomes *cache.OutcomeCache) *AttachmentsHandler {
	return &AttachmentsHandler{svc: svc, outcomes: outcomes}
}

type attachmentResponse struct {
	Attachment *models.Attachment `json:"attachment"`
	Outcome    *extract.Outcome   `json:"last_extraction,omitempty"`
}

func (h *AttachmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := attachmentID(w, r)
	if !ok {
		return
	}

	att, err := h.svc.GetAttachment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "attachment not found")
		return
	}

	resp := attachmentResponse{Attachment: att}
	if h.outcomes != nil {
		// Outcome is best-effort; the status column is authoritative.
		resp.Outcome, _ = h.outcomes.GetOutcome(r.Context(), id)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AttachmentsHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	id, ok := attachmentID(w, r)
	if !ok {
		return
	}

	pages, err := h.svc.ListPages(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list pages failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"pages": pages})
}

func (h *AttachmentsHandler) SearchPages(w http.ResponseWriter, r *http.Request) {
	id, ok := attachmentID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	pages, err := h.svc.SearchPages(r.Context(), id, q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"pages": pages})
}

func attachmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid attachment id")
		return 0, false
	}
	return id, true
}
