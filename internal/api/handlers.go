package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/jotgrid/internal/apperr"
	"github.com/starford/jotgrid/internal/noteservice"
	"github.com/starford/jotgrid/internal/status"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
	now func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// ListNotes handles GET /api/notes.
// Notes are returned in store order, most recent first.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	st := status.Last(h.svc.List(r.Context()))
	if st.State == status.Failed {
		writeJSON(w, http.StatusInternalServerError, errorBody(st.Message))
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: st.Value})
}

// StreamNotes handles GET /api/notes/stream.
// Every status event of one list call is written as a JSON line and flushed.
func (h *Handler) StreamNotes(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	for st := range h.svc.List(r.Context()) {
		if err := enc.Encode(st); err != nil {
			slog.Warn("stream notes: write failed", slog.String("error", err.Error()))
			continue
		}
		flusher.Flush()
	}
}

// SaveNote handles POST /api/notes. A body id replaces the existing note.
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSave(w, r)
	if !ok {
		return
	}
	h.save(w, r, req)
}

// UpdateNote handles PUT /api/notes/{id}. The path id wins over any body id.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	req, ok := decodeSave(w, r)
	if !ok {
		return
	}
	req.ID = id
	h.save(w, r, req)
}

// DeleteNotes handles DELETE /api/notes with body {"ids": [...]}.
func (h *Handler) DeleteNotes(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req DeleteNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	st := status.Last(h.svc.Remove(r.Context(), req.IDs))
	if st.State == status.Failed {
		writeJSON(w, http.StatusInternalServerError, errorBody(st.Message))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, req *SaveNoteRequest) {
	st := status.Last(h.svc.Save(r.Context(), req.Note(h.now())))
	if st.State == status.Failed {
		writeJSON(w, http.StatusInternalServerError, errorBody(st.Message))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func decodeSave(w http.ResponseWriter, r *http.Request) (*SaveNoteRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req SaveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return nil, false
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return nil, false
	}
	return &req, true
}

func writeValidationError(w http.ResponseWriter, err error) {
	err = fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err)
	writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
}
