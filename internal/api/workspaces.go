package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onehub-labs/onehub/internal/store"
)

type workspaceHandlers struct {
	store *store.Store
}

func (h *workspaceHandlers) register(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
	})
}

// workspaceRequest carries create and update payloads. Nil fields are left
// unchanged on update.
type workspaceRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Icon  *string `json:"icon"`
}

func (h *workspaceHandlers) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListWorkspaces(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (h *workspaceHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req workspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Name == nil || *req.Name == "" {
		badRequestf(w, "workspace name is required")
		return
	}

	ws := &store.Workspace{Name: *req.Name}
	if req.Color != nil {
		ws.Color = *req.Color
	}
	if req.Icon != nil {
		ws.Icon = *req.Icon
	}
	if err := h.store.CreateWorkspace(r.Context(), ws); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

func (h *workspaceHandlers) get(w http.ResponseWriter, r *http.Request) {
	ws, err := h.store.GetWorkspace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *workspaceHandlers) update(w http.ResponseWriter, r *http.Request) {
	var req workspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	ws, err := h.store.GetWorkspace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Name != nil {
		ws.Name = *req.Name
	}
	if req.Color != nil {
		ws.Color = *req.Color
	}
	if req.Icon != nil {
		ws.Icon = *req.Icon
	}
	if err := h.store.UpdateWorkspace(r.Context(), ws); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (h *workspaceHandlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteWorkspace(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
