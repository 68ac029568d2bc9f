package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onehub-labs/onehub/internal/store"
)

type chatHandlers struct {
	store *store.Store
}

func (h *chatHandlers) register(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.rename)
		r.Delete("/", h.delete)
		r.Get("/messages", h.messages)
		r.Post("/messages", h.appendMessage)
	})
}

type chatSessionRequest struct {
	Name       string `json:"name"`
	ProviderID string `json:"provider_id"`
}

type chatMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *chatHandlers) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListChatSessions(r.Context(), r.URL.Query().Get("provider"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (h *chatHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req chatSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Name == "" || req.ProviderID == "" {
		badRequestf(w, "name and provider_id are required")
		return
	}
	exists, err := h.store.ProviderExists(r.Context(), req.ProviderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !exists {
		badRequestf(w, "unknown provider %q", req.ProviderID)
		return
	}

	cs := &store.ChatSession{Name: req.Name, ProviderID: req.ProviderID}
	if err := h.store.CreateChatSession(r.Context(), cs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cs)
}

func (h *chatHandlers) get(w http.ResponseWriter, r *http.Request) {
	cs, err := h.store.GetChatSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *chatHandlers) rename(w http.ResponseWriter, r *http.Request) {
	var req chatSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Name == "" {
		badRequestf(w, "name is required")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.store.RenameChatSession(r.Context(), id, req.Name); err != nil {
		writeError(w, err)
		return
	}
	cs, err := h.store.GetChatSession(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *chatHandlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteChatSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *chatHandlers) messages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.GetChatSession(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	list, err := h.store.ListChatMessages(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (h *chatHandlers) appendMessage(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Role == "" {
		badRequestf(w, "role is required")
		return
	}

	m := &store.ChatMessage{
		SessionID: chi.URLParam(r, "id"),
		Role:      req.Role,
		Content:   req.Content,
	}
	if err := h.store.AppendChatMessage(r.Context(), m); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
