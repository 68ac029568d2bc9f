package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onehub-labs/onehub/internal/session"
)

type sessionHandlers struct {
	sessions *session.Manager
}

func (h *sessionHandlers) register(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Delete("/{id}", h.close)
}

func (h *sessionHandlers) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(h.sessions.ListSessions()))
}

func (h *sessionHandlers) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.Stats())
}

func (h *sessionHandlers) close(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.CloseSession(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
