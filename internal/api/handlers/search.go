package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rmenezes/jurisearch/internal/cache"
	"github.com/rmenezes/jurisearch/internal/embedding"
	"github.com/rmenezes/jurisearch/internal/search"
	"github.com/rmenezes/jurisearch/internal/vectorstore"
)

type SearchHandler struct {
	engine  *search.Engine
	cache   *cache.SearchCache // nil when redis is down
	vectors vectorstore.Store
}

func NewSearchHandler(engine *search.Engine, sc *cache.SearchCache, vectors vectorstore.Store) *SearchHandler {
	return &SearchHandler{engine: engine, cache: sc, vectors: vectors}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.run(w, r, req)
}

// Similar answers pure-semantic queries: keyword fusion is bypassed
// entirely.
func (h *SearchHandler) Similar(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	pure := 1.0
	req.SemanticWeight = &pure
	req.Keywords = nil
	h.run(w, r, req)
}

func (h *SearchHandler) run(w http.ResponseWriter, r *http.Request, req search.Request) {
	if h.cache != nil {
		if resp := h.cache.Get(r.Context(), req); resp != nil {
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	resp, err := h.engine.Search(r.Context(), req)
	if err != nil {
		writeJSON(w, searchStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if h.cache != nil {
		h.cache.Set(r.Context(), req, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SearchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.vectors.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func searchStatus(err error) int {
	switch {
	case errors.Is(err, embedding.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, embedding.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, search.ErrInvalidWeight):
		return http.StatusBadRequest
	case errors.Is(err, embedding.ErrDimensionMismatch),
		errors.Is(err, vectorstore.ErrDimensionMismatch):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
