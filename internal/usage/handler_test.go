package usage

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

	"github.com/agentchat-platform/agentchat/internal/ledger"
	"github.com/agentchat-platform/agentchat/internal/store"
)

type memStore struct {
	records map[string]*store.UserRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*store.UserRecord)}
}

func (m *memStore) GetUser(_ context.Context, userID string) (*store.UserRecord, error) {
	rec, ok := m.records[userID]
	if !ok {
		return nil, &store.Error{Kind: store.KindNotFound, Op: "get_user"}
	}
	cp := *rec
	return &cp, nil
}

func (m *memStore) MergeUser(_ context.Context, userID string, patch store.UserPatch) error {
	rec, ok := m.records[userID]
	if !ok {
		rec = &store.UserRecord{UserID: userID, TokensLimit: ledger.FreeTokensLimit}
		m.records[userID] = rec
	}
	if patch.TokensUsed != nil {
		rec.TokensUsed = *patch.TokensUsed
	}
	if patch.TokensLimit != nil {
		rec.TokensLimit = *patch.TokensLimit
	}
	if patch.IsPremium != nil {
		rec.IsPremium = *patch.IsPremium
	}
	if patch.TouchLastReset {
		t := time.Now()
		rec.LastReset = &t
	}
	if patch.TouchLastUsed {
		t := time.Now()
		rec.LastUsed = &t
	}
	return nil
}

func (m *memStore) InsertExchange(context.Context, *store.Exchange) error { return nil }

func (m *memStore) CountExchangesSince(context.Context, string, time.Time) (int, error) {
	return 0, nil
}

func (m *memStore) GetSubscription(context.Context, string) (*store.Subscription, error) {
	return nil, &store.Error{Kind: store.KindNotFound, Op: "get_subscription"}
}

func doRequest(h http.HandlerFunc, method, target, body, userID string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("user_id", userID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestStatusFreshUser(t *testing.T) {
	h := NewHandler(ledger.New(newMemStore()))

	rec := doRequest(h.Status, http.MethodGet, "/usage/status/u1", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)

	var st ledger.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 0, st.TokensUsed)
	assert.Equal(t, ledger.FreeTokensLimit, st.TokensRemaining)
	assert.False(t, st.IsPremium)
}

func TestReset(t *testing.T) {
	ms := newMemStore()
	ms.records["u1"] = &store.UserRecord{
		UserID:      "u1",
		TokensUsed:  4,
		TokensLimit: ledger.FreeTokensLimit,
	}
	h := NewHandler(ledger.New(ms))

	rec := doRequest(h.Reset, http.MethodPost, "/usage/reset/u1", "", "u1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp resetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.CurrentStatus.TokensUsed)
	assert.Equal(t, ledger.FreeTokensLimit, resp.CurrentStatus.TokensRemaining)
	assert.Equal(t, 0, ms.records["u1"].TokensUsed)
}

func TestSetPremium(t *testing.T) {
	ms := newMemStore()
	ms.records["u1"] = &store.UserRecord{
		UserID:      "u1",
		TokensUsed:  5,
		TokensLimit: ledger.FreeTokensLimit,
	}
	h := NewHandler(ledger.New(ms))

	rec := doRequest(h.SetPremium, http.MethodPut, "/usage/premium/u1", `{"is_premium":true}`, "u1")
	require.Equal(t, http.StatusOK, rec.Code)

	var st ledger.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.IsPremium)
	assert.Equal(t, ledger.UnlimitedTokens, st.TokensRemaining)
	assert.Equal(t, 0, ms.records["u1"].TokensUsed)
}

func TestSetPremiumMissingField(t *testing.T) {
	h := NewHandler(ledger.New(newMemStore()))
	rec := doRequest(h.SetPremium, http.MethodPut, "/usage/premium/u1", `{}`, "u1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
