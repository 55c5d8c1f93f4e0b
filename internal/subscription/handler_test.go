package subscription

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentchat-platform/agentchat/internal/store"
)

type fakeStore struct {
	sub *store.Subscription
}

func (f *fakeStore) GetUser(context.Context, string) (*store.UserRecord, error) {
	return nil, &store.Error{Kind: store.KindNotFound, Op: "get_user"}
}

func (f *fakeStore) MergeUser(context.Context, string, store.UserPatch) error { return nil }

func (f *fakeStore) InsertExchange(context.Context, *store.Exchange) error { return nil }

func (f *fakeStore) CountExchangesSince(context.Context, string, time.Time) (int, error) {
	return 0, nil
}

func (f *fakeStore) GetSubscription(context.Context, string) (*store.Subscription, error) {
	if f.sub == nil {
		return nil, &store.Error{Kind: store.KindNotFound, Op: "get_subscription"}
	}
	return f.sub, nil
}

func TestStatusDefaultsForUnknownUser(t *testing.T) {
	h := NewHandler(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/subscription/status/u1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("user_id", "u1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, "weekly", resp.Tier)
}

func TestStatusUsesStoredSubscription(t *testing.T) {
	h := NewHandler(&fakeStore{sub: &store.Subscription{
		UserID: "u1", Status: "active", Tier: "monthly",
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/subscription/status/u1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("user_id", "u1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "monthly", resp.Tier)
}

func TestVerify(t *testing.T) {
	h := NewHandler(&fakeStore{})

	body := `{"user_id":"u1","platform":"ios","receipt":"abc123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscription/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp verifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending_verification", resp.Status)
}

func TestVerifyRejectsBadPlatform(t *testing.T) {
	h := NewHandler(&fakeStore{})

	body := `{"user_id":"u1","platform":"windows","receipt":"abc123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscription/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
