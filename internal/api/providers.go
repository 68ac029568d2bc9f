package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/onehub-labs/onehub/internal/llm"
	"github.com/onehub-labs/onehub/internal/store"
)

type providerHandlers struct {
	store     *store.Store
	providers *llm.Manager
}

func (h *providerHandlers) register(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/types", h.types)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Post("/enable", h.enable)
		r.Post("/disable", h.disable)
	})
}

// providerRequest carries create and update payloads. Nil fields are left
// unchanged on update.
type providerRequest struct {
	Name         *string  `json:"name"`
	ProviderType *string  `json:"provider_type"`
	APIKey       *string  `json:"api_key"`
	APIBase      *string  `json:"api_base"`
	Model        *string  `json:"model"`
	MaxTokens    *int     `json:"max_tokens"`
	Temperature  *float64 `json:"temperature"`
	Enabled      *bool    `json:"enabled"`
}

// providerTypeInfo is one catalog entry for the GUI's provider picker.
type providerTypeInfo struct {
	Type           string          `json:"type"`
	DisplayName    string          `json:"display_name"`
	APIBase        string          `json:"api_base,omitempty"`
	RequiresAPIKey bool            `json:"requires_api_key"`
	Models         []llm.ModelInfo `json:"models,omitempty"`
}

func (h *providerHandlers) list(w http.ResponseWriter, r *http.Request) {
	var (
		list []*store.Provider
		err  error
	)
	if r.URL.Query().Get("enabled") == "true" {
		list, err = h.store.ListEnabledProviders(r.Context())
	} else {
		list, err = h.store.ListProviders(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

func (h *providerHandlers) types(w http.ResponseWriter, r *http.Request) {
	catalog := make([]providerTypeInfo, 0, len(llm.ProviderTypes()))
	for _, t := range llm.ProviderTypes() {
		catalog = append(catalog, providerTypeInfo{
			Type:           string(t),
			DisplayName:    t.DisplayName(),
			APIBase:        t.DefaultAPIBase(),
			RequiresAPIKey: t.RequiresAPIKey(),
			Models:         t.DefaultModels(),
		})
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (h *providerHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req providerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Name == nil || req.ProviderType == nil || req.Model == nil {
		badRequestf(w, "name, provider_type and model are required")
		return
	}

	rec := &store.Provider{
		Name:         *req.Name,
		ProviderType: *req.ProviderType,
		APIKey:       req.APIKey,
		APIBase:      req.APIBase,
		Model:        *req.Model,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
		Enabled:      true,
	}
	if req.Enabled != nil {
		rec.Enabled = *req.Enabled
	}
	if err := validateProvider(rec); err != nil {
		badRequest(w, err)
		return
	}

	if err := h.store.CreateProvider(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *providerHandlers) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetProvider(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *providerHandlers) update(w http.ResponseWriter, r *http.Request) {
	var req providerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	rec, err := h.store.GetProvider(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Name != nil {
		rec.Name = *req.Name
	}
	if req.ProviderType != nil {
		rec.ProviderType = *req.ProviderType
	}
	if req.APIKey != nil {
		rec.APIKey = req.APIKey
	}
	if req.APIBase != nil {
		rec.APIBase = req.APIBase
	}
	if req.Model != nil {
		rec.Model = *req.Model
	}
	if req.MaxTokens != nil {
		rec.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		rec.Temperature = req.Temperature
	}
	if req.Enabled != nil {
		rec.Enabled = *req.Enabled
	}
	if err := validateProvider(rec); err != nil {
		badRequest(w, err)
		return
	}

	if err := h.store.UpdateProvider(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}
	h.providers.Invalidate(rec.ID)
	writeJSON(w, http.StatusOK, rec)
}

func (h *providerHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteProvider(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	h.providers.Invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *providerHandlers) enable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, true)
}

func (h *providerHandlers) disable(w http.ResponseWriter, r *http.Request) {
	h.setEnabled(w, r, false)
}

func (h *providerHandlers) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	id := chi.URLParam(r, "id")
	if err := h.store.SetProviderEnabled(r.Context(), id, enabled); err != nil {
		writeError(w, err)
		return
	}
	h.providers.Invalidate(id)

	rec, err := h.store.GetProvider(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// validateProvider runs the stored row through the typed config checks
// before it is persisted.
func validateProvider(rec *store.Provider) error {
	cfg, err := llm.ConfigFromRecord(rec)
	if err != nil {
		return err
	}
	return cfg.Validate()
}
