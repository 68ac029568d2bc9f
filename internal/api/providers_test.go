package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onehub-labs/onehub/internal/llm"
	"github.com/onehub-labs/onehub/internal/store"
)

func TestProviderCRUD(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/api/providers", map[string]any{
		"name":          "local ollama",
		"provider_type": "ollama",
		"model":         "llama3",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rec := decode[store.Provider](t, rr)
	require.NotEmpty(t, rec.ID)
	assert.True(t, rec.Enabled)

	rr = ts.do(t, http.MethodGet, "/api/providers", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decode[[]store.Provider](t, rr), 1)

	rr = ts.do(t, http.MethodPut, "/api/providers/"+rec.ID, map[string]any{
		"model": "llama3.1",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[store.Provider](t, rr)
	assert.Equal(t, "llama3.1", updated.Model)
	assert.Equal(t, "local ollama", updated.Name)

	rr = ts.do(t, http.MethodDelete, "/api/providers/"+rec.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/providers/"+rec.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestProviderCreateRequiresKey(t *testing.T) {
	ts := newTestServer(t)

	// Claude needs an API key.
	rr := ts.do(t, http.MethodPost, "/api/providers", map[string]any{
		"name":          "claude",
		"provider_type": "claude",
		"model":         "claude-sonnet-4-5",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[errorResponse](t, rr).Error, "API key")
}

func TestProviderCreateUnknownType(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/api/providers", map[string]any{
		"name":          "x",
		"provider_type": "frontier",
		"model":         "m",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[errorResponse](t, rr).Error, "unknown provider type")
}

func TestProviderUpdateRejectsBadTemperature(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.seedProvider(t, "ollama")

	rr := ts.do(t, http.MethodPut, "/api/providers/"+rec.ID, map[string]any{
		"temperature": 3.5,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProviderEnableDisable(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.seedProvider(t, "ollama")

	rr := ts.do(t, http.MethodPost, "/api/providers/"+rec.ID+"/disable", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[store.Provider](t, rr).Enabled)

	rr = ts.do(t, http.MethodGet, "/api/providers?enabled=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	rr = ts.do(t, http.MethodPost, "/api/providers/"+rec.ID+"/enable", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[store.Provider](t, rr).Enabled)

	rr = ts.do(t, http.MethodGet, "/api/providers?enabled=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]store.Provider](t, rr), 1)
}

func TestProviderTypesCatalog(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/api/providers/types", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	catalog := decode[[]providerTypeInfo](t, rr)
	require.Len(t, catalog, len(llm.ProviderTypes()))

	byType := make(map[string]providerTypeInfo, len(catalog))
	for _, entry := range catalog {
		byType[entry.Type] = entry
	}
	require.Contains(t, byType, "ollama")
	assert.False(t, byType["ollama"].RequiresAPIKey)
	assert.NotEmpty(t, byType["ollama"].APIBase)
	require.Contains(t, byType, "claude")
	assert.True(t, byType["claude"].RequiresAPIKey)
	assert.NotEmpty(t, byType["claude"].Models)
}
