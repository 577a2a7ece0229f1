package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rmenezes/jurisearch/internal/document"
	"github.com/rmenezes/jurisearch/internal/queue"
)

type CaseHandler struct {
	svc   *document.Service
	queue *queue.Client
}

func NewCaseHandler(svc *document.Service, q *queue.Client) *CaseHandler {
	return &CaseHandler{svc: svc, queue: q}
}

func (h *CaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req document.CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	c, err := h.svc.CreateCase(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, document.ErrInvalidCaseNumber):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, document.ErrDuplicateCase):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}

	cases, err := h.svc.ListCases(r.Context(), limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"cases": cases, "count": len(cases)})
}

func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid case ID"})
		return
	}

	c, err := h.svc.GetCase(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "case not found"})
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Delete enqueues an asynchronous purge: the case, its documents and
// every derived chunk and embedding are removed by the worker.
func (h *CaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid case ID"})
		return
	}

	if _, err := h.svc.GetCase(r.Context(), id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "case not found"})
		return
	}

	if err := h.queue.EnqueueCasePurge(queue.CasePurgePayload{CaseID: id.String()}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "purge scheduled"})
}
