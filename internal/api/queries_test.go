package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onehub-labs/onehub/internal/store"
)

func TestSavedQueryCRUD(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.seedConnection(t, "local")

	rr := ts.do(t, http.MethodPost, "/api/queries", map[string]any{
		"name":          "recent orders",
		"sql_content":   "SELECT * FROM orders ORDER BY id DESC LIMIT 10",
		"connection_id": rec.ID,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	q := decode[store.Query](t, rr)
	require.NotZero(t, q.ID)

	rr = ts.do(t, http.MethodGet, "/api/queries", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decode[[]store.Query](t, rr), 1)

	path := fmt.Sprintf("/api/queries/%d", q.ID)

	rr = ts.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "recent orders", decode[store.Query](t, rr).Name)

	rr = ts.do(t, http.MethodPut, path, map[string]any{
		"sql_content": "SELECT * FROM orders",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decode[store.Query](t, rr)
	assert.Equal(t, "recent orders", updated.Name)
	assert.Equal(t, "SELECT * FROM orders", updated.SQLContent)

	rr = ts.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSavedQueryInvalidName(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.seedConnection(t, "local")

	rr := ts.do(t, http.MethodPost, "/api/queries", map[string]any{
		"name":          "no; semicolons",
		"connection_id": rec.ID,
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.NotEmpty(t, decode[errorResponse](t, rr).Error)
}

func TestSavedQueryDuplicateName(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.seedConnection(t, "local")

	body := map[string]any{"name": "daily", "connection_id": rec.ID}
	rr := ts.do(t, http.MethodPost, "/api/queries", body)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/queries", body)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestSavedQueryBadID(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/api/queries/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSavedQueryMissingFields(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/api/queries", map[string]any{"name": "solo"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
