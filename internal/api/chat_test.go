package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onehub-labs/onehub/internal/store"
)

func TestChatSessionCRUD(t *testing.T) {
	ts := newTestServer(t)
	prov := ts.seedProvider(t, "ollama")

	rr := ts.do(t, http.MethodPost, "/api/chat/sessions", map[string]any{
		"name":        "schema help",
		"provider_id": prov.ID,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	cs := decode[store.ChatSession](t, rr)
	require.NotEmpty(t, cs.ID)

	rr = ts.do(t, http.MethodGet, "/api/chat/sessions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decode[[]store.ChatSession](t, rr), 1)

	rr = ts.do(t, http.MethodPut, "/api/chat/sessions/"+cs.ID, map[string]any{
		"name": "index tuning",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "index tuning", decode[store.ChatSession](t, rr).Name)

	rr = ts.do(t, http.MethodDelete, "/api/chat/sessions/"+cs.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/chat/sessions/"+cs.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestChatSessionUnknownProvider(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/api/chat/sessions", map[string]any{
		"name":        "orphan",
		"provider_id": "ghost",
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[errorResponse](t, rr).Error, "ghost")
}

func TestChatSessionListByProvider(t *testing.T) {
	ts := newTestServer(t)
	a := ts.seedProvider(t, "first")
	b := ts.seedProvider(t, "second")

	for _, p := range []*store.Provider{a, a, b} {
		rr := ts.do(t, http.MethodPost, "/api/chat/sessions", map[string]any{
			"name":        "chat " + p.ID,
			"provider_id": p.ID,
		})
		require.Equal(t, http.StatusCreated, rr.Code)
	}

	rr := ts.do(t, http.MethodGet, "/api/chat/sessions?provider="+b.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]store.ChatSession](t, rr), 1)

	rr = ts.do(t, http.MethodGet, "/api/chat/sessions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]store.ChatSession](t, rr), 3)
}

func TestChatMessages(t *testing.T) {
	ts := newTestServer(t)
	prov := ts.seedProvider(t, "ollama")

	rr := ts.do(t, http.MethodPost, "/api/chat/sessions", map[string]any{
		"name":        "thread",
		"provider_id": prov.ID,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	cs := decode[store.ChatSession](t, rr)

	rr = ts.do(t, http.MethodPost, "/api/chat/sessions/"+cs.ID+"/messages", map[string]any{
		"role":    "user",
		"content": "how do I list indexes?",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	msg := decode[store.ChatMessage](t, rr)
	assert.NotZero(t, msg.ID)

	rr = ts.do(t, http.MethodPost, "/api/chat/sessions/"+cs.ID+"/messages", map[string]any{
		"role":    "assistant",
		"content": "use PRAGMA index_list",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/chat/sessions/"+cs.ID+"/messages", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[[]store.ChatMessage](t, rr)
	require.Len(t, list, 2)
	assert.Equal(t, "user", list[0].Role)
	assert.Equal(t, "assistant", list[1].Role)
}

func TestChatMessageUnknownSession(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/api/chat/sessions/ghost/messages", map[string]any{
		"role":    "user",
		"content": "hello?",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/chat/sessions/ghost/messages", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestChatMessageRequiresRole(t *testing.T) {
	ts := newTestServer(t)
	prov := ts.seedProvider(t, "ollama")

	rr := ts.do(t, http.MethodPost, "/api/chat/sessions", map[string]any{
		"name":        "thread",
		"provider_id": prov.ID,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	cs := decode[store.ChatSession](t, rr)

	rr = ts.do(t, http.MethodPost, "/api/chat/sessions/"+cs.ID+"/messages", map[string]any{
		"content": "no role",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
