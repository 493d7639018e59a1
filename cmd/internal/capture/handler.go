package capture

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	authapi "hub/cmd/internal/auth/api"
)

const maxBodyBytes = 64 << 10

// Handler exposes the captures CRUD under the hybrid-auth API surface.
type Handler struct {
	log *slog.Logger
	svc *Service
	now func() time.Time
}

// NewHandler constructs a Handler. now may be nil.
func NewHandler(log *slog.Logger, svc *Service, now func() time.Time) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Handler{log: log, svc: svc, now: now}
}

// Register mounts the capture routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/captures", h.handleCreate)
	mux.HandleFunc("GET /api/captures", h.handleList)
	mux.HandleFunc("DELETE /api/captures/{id}", h.handleDelete)
}

type capturePayload struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toPayload(c Capture) capturePayload {
	return capturePayload{ID: c.ID, Text: c.Text, CreatedBy: c.CreatedBy, CreatedAt: c.CreatedAt}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("invalid request body"))
		return
	}

	// API-key callers carry no user; createdBy stays empty for them.
	var createdBy string
	if id, ok := authapi.IdentityFrom(r.Context()); ok {
		createdBy = id.UserID
	}

	c, err := h.svc.Create(r.Context(), h.now(), req.Text, createdBy)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyText), errors.Is(err, ErrTooLong):
			writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
		default:
			h.log.Error("capture.create.fail", "err", err)
			writeJSON(w, http.StatusInternalServerError, errBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, toPayload(c))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error("capture.list.fail", "err", err)
		writeJSON(w, http.StatusInternalServerError, errBody("internal error"))
		return
	}

	out := make([]capturePayload, 0, len(list))
	for _, c := range list {
		out = append(out, toPayload(c))
	}
	writeJSON(w, http.StatusOK, map[string][]capturePayload{"captures": out})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Delete(r.Context(), h.now(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errBody("capture not found"))
			return
		}
		h.log.Error("capture.delete.fail", "err", err)
		writeJSON(w, http.StatusInternalServerError, errBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func errBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
