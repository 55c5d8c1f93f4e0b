package agents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, handler http.HandlerFunc, target string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestList(t *testing.T) {
	rec := doRequest(t, NewHandler().List, "/api/agents", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []Agent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 4)
	assert.Equal(t, "ceo_coach", got[0].ID)
	assert.NotEmpty(t, got[0].Persona)
}

func TestGet(t *testing.T) {
	rec := doRequest(t, NewHandler().Get, "/api/agents/tech_mentor", map[string]string{"agent_id": "tech_mentor"})
	require.Equal(t, http.StatusOK, rec.Code)

	var got Agent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Tech Mentor", got.Name)
	assert.Equal(t, "Technology", got.Category)
}

func TestGetUnknown(t *testing.T) {
	rec := doRequest(t, NewHandler().Get, "/api/agents/nope", map[string]string{"agent_id": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListModels(t *testing.T) {
	rec := doRequest(t, NewHandler().ListModels, "/api/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []Model
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 10)
}

func TestListModelsFiltered(t *testing.T) {
	rec := doRequest(t, NewHandler().ListModels, "/api/models?provider=Gemini", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []Model
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 3)
	for _, m := range got {
		assert.Equal(t, "gemini", m.Provider)
	}
}

func TestGetModelUnknown(t *testing.T) {
	rec := doRequest(t, NewHandler().GetModel, "/api/models/nope", map[string]string{"model_id": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPersonaFor(t *testing.T) {
	assert.Contains(t, PersonaFor("ceo_coach"), "CEO coach")
	assert.Equal(t, "You are a helpful AI assistant.", PersonaFor("unknown_agent"))
}
