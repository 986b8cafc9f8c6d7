package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalogdb"
)

// Handler holds API route handlers.
type Handler struct {
	snap catalogdb.Snapshot
}

// NewHandler creates a new Handler.
func NewHandler(snap catalogdb.Snapshot) *Handler {
	return &Handler{snap: snap}
}

// documentID extracts the id path parameter. Encoded characters such as
// %3A in "isbn%3A123" are decoded.
func documentID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// GetDocument resolves a content hash or alternate id.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	if h.snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody(apperr.ErrNoSnapshot.Error()))
		return
	}
	id := documentID(r)
	row, err := h.snap.Lookup(id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("document not found"))
			return
		}
		slog.Error("lookup failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// ListTags returns every tag with its document count.
func (h *Handler) ListTags(w http.ResponseWriter, _ *http.Request) {
	if h.snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody(apperr.ErrNoSnapshot.Error()))
		return
	}
	counts, err := h.snap.TagCounts()
	if err != nil {
		slog.Error("tag counts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if counts == nil {
		counts = []catalogdb.TagCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": counts})
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}
