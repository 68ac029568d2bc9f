package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/onehub-labs/onehub/internal/explorer"
	"github.com/onehub-labs/onehub/internal/session"
	"github.com/onehub-labs/onehub/internal/store"
	"github.com/onehub-labs/onehub/pkg/core"
	"github.com/onehub-labs/onehub/pkg/plugin"
)

type connectionHandlers struct {
	store    *store.Store
	sessions *session.Manager
	tree     *explorer.Builder
	logger   *slog.Logger
}

func (h *connectionHandlers) register(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Post("/test", h.test)
		r.Get("/databases", h.databases)
		r.Post("/tree", h.treeChildren)
		r.Post("/query", h.query)
		r.Get("/queries", h.savedQueries)
		r.Post("/tables/{table}/data", h.tableData)
	})
}

// connectionRequest carries create and update payloads. Params is stored
// verbatim; database payloads are validated against the plugin registry.
type connectionRequest struct {
	Name        *string         `json:"name"`
	Type        *string         `json:"connection_type"`
	Params      json.RawMessage `json:"params"`
	WorkspaceID *string         `json:"workspace_id"`
}

func (h *connectionHandlers) list(w http.ResponseWriter, r *http.Request) {
	var (
		list []*store.Connection
		err  error
	)
	if ws := r.URL.Query().Get("workspace"); ws != "" {
		list, err = h.store.ListConnectionsByWorkspace(r.Context(), ws)
	} else {
		list, err = h.store.ListConnections(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (h *connectionHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Name == nil || *req.Name == "" {
		badRequestf(w, "connection name is required")
		return
	}

	rec := &store.Connection{
		Name:        *req.Name,
		Type:        store.ConnectionDatabase,
		Params:      string(req.Params),
		WorkspaceID: req.WorkspaceID,
	}
	if req.Type != nil && *req.Type != "" {
		rec.Type = store.ConnectionType(*req.Type)
	}
	if rec.Params == "" {
		rec.Params = "{}"
	}
	if err := h.checkDatabaseParams(rec); err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.CreateConnection(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *connectionHandlers) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetConnection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *connectionHandlers) update(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	rec, err := h.store.GetConnection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Name != nil {
		rec.Name = *req.Name
	}
	if req.Type != nil && *req.Type != "" {
		rec.Type = store.ConnectionType(*req.Type)
	}
	if req.Params != nil {
		rec.Params = string(req.Params)
	}
	if req.WorkspaceID != nil {
		rec.WorkspaceID = req.WorkspaceID
	}
	if err := h.checkDatabaseParams(rec); err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.UpdateConnection(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}
	// Pooled sessions were dialed with the old parameters.
	h.sessions.RemoveAll(rec.ID)
	writeJSON(w, http.StatusOK, rec)
}

func (h *connectionHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.sessions.RemoveAll(id)
	if err := h.store.DeleteConnection(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkDatabaseParams rejects database connections whose engine is not in
// the plugin registry. Other connection kinds are stored untouched.
func (h *connectionHandlers) checkDatabaseParams(rec *store.Connection) error {
	if rec.Type != store.ConnectionDatabase {
		return nil
	}
	params, err := rec.DatabaseParams()
	if err != nil {
		return &badRequestError{err}
	}
	if params.DBType == "" {
		return &badRequestError{errors.New("params.db_type is required")}
	}
	if !plugin.IsRegistered(params.DBType) {
		return &plugin.UnknownPluginError{Type: params.DBType, Available: plugin.ListPlugins()}
	}
	return nil
}

// testResponse reports the outcome of a connectivity check. A failed dial
// or ping is a result, not an HTTP error.
type testResponse struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

func (h *connectionHandlers) test(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetConnection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	cfg, err := rec.Config()
	if err != nil {
		badRequest(w, err)
		return
	}
	p, err := plugin.New(cfg, h.logger)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	conn, err := p.Connect(r.Context(), cfg)
	if err != nil {
		writeJSON(w, http.StatusOK, testResponse{Error: err.Error(), ElapsedMs: time.Since(start).Milliseconds()})
		return
	}
	defer conn.Close()

	if err := conn.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusOK, testResponse{Error: err.Error(), ElapsedMs: time.Since(start).Milliseconds()})
		return
	}
	writeJSON(w, http.StatusOK, testResponse{OK: true, ElapsedMs: time.Since(start).Milliseconds()})
}

func (h *connectionHandlers) databases(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetConnection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	cfg, err := rec.Config()
	if err != nil {
		badRequest(w, err)
		return
	}

	var list []core.DatabaseInfo
	err = h.sessions.WithSession(r.Context(), rec.ID, cfg, "", func(s *session.Session) error {
		var lerr error
		list, lerr = s.Plugin.ListDatabasesDetailed(r.Context(), s.Conn)
		return lerr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

// treeChildren expands one schema tree node. An empty body asks for the
// root node of the connection.
func (h *connectionHandlers) treeChildren(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var node *core.Node
	if err := json.NewDecoder(r.Body).Decode(&node); err != nil && !errors.Is(err, io.EOF) {
		badRequestf(w, "invalid request body: %v", err)
		return
	}

	if node == nil {
		rec, err := h.store.GetConnection(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		root, err := explorer.RootNode(rec)
		if err != nil {
			badRequest(w, err)
			return
		}
		writeJSON(w, http.StatusOK, []*core.Node{root})
		return
	}

	node.ConnectionID = id
	children, err := h.tree.Children(r.Context(), node)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(children))
}

// queryRequest is the execute payload. Omitted options run with the
// interactive defaults.
type queryRequest struct {
	SQL      string            `json:"sql"`
	Database string            `json:"database,omitempty"`
	Options  *core.ExecOptions `json:"options,omitempty"`
}

func (h *connectionHandlers) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.SQL == "" {
		badRequestf(w, "sql is required")
		return
	}
	opts := core.DefaultExecOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	rec, err := h.store.GetConnection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	cfg, err := rec.Config()
	if err != nil {
		badRequest(w, err)
		return
	}

	var results []core.Result
	err = h.sessions.WithSession(r.Context(), rec.ID, cfg, req.Database, func(s *session.Session) error {
		var lerr error
		results, lerr = s.Conn.Execute(r.Context(), req.SQL, opts)
		return lerr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	// Statement failures ride inside the results; the request succeeded.
	writeJSON(w, http.StatusOK, emptyIfNil(results))
}

func (h *connectionHandlers) savedQueries(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListQueriesByConnection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (h *connectionHandlers) tableData(w http.ResponseWriter, r *http.Request) {
	var req core.TableDataRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	req.Table = chi.URLParam(r, "table")
	req.Normalize()

	rec, err := h.store.GetConnection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	cfg, err := rec.Config()
	if err != nil {
		badRequest(w, err)
		return
	}

	var resp core.TableDataResponse
	err = h.sessions.WithSession(r.Context(), rec.ID, cfg, req.Database, func(s *session.Session) error {
		var lerr error
		resp, lerr = plugin.QueryTableData(r.Context(), s.Plugin, s.Conn, req)
		return lerr
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
