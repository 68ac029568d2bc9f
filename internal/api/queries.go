package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/onehub-labs/onehub/internal/store"
)

type queryHandlers struct {
	store *store.Store
}

func (h *queryHandlers) register(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
	})
}

// savedQueryRequest carries create and update payloads for saved queries.
type savedQueryRequest struct {
	Name         *string `json:"name"`
	SQLContent   *string `json:"sql_content"`
	ConnectionID *string `json:"connection_id"`
	DatabaseName *string `json:"database_name"`
}

func (h *queryHandlers) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListQueries(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (h *queryHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req savedQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Name == nil || req.ConnectionID == nil {
		badRequestf(w, "name and connection_id are required")
		return
	}

	q := &store.Query{
		Name:         *req.Name,
		ConnectionID: *req.ConnectionID,
		DatabaseName: req.DatabaseName,
	}
	if req.SQLContent != nil {
		q.SQLContent = *req.SQLContent
	}
	if err := h.store.CreateQuery(r.Context(), q); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *queryHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	q, err := h.store.GetQuery(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *queryHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	var req savedQueryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	q, err := h.store.GetQuery(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Name != nil {
		q.Name = *req.Name
	}
	if req.SQLContent != nil {
		q.SQLContent = *req.SQLContent
	}
	if req.DatabaseName != nil {
		q.DatabaseName = req.DatabaseName
	}
	if err := h.store.UpdateQuery(r.Context(), q); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *queryHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteQuery(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		badRequestf(w, "invalid query id %q", chi.URLParam(r, "id"))
		return 0, false
	}
	return id, true
}
