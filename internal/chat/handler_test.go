package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentchat-platform/agentchat/internal/ledger"
)

func postMessage(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/message", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.SendMessage(rec, req)
	return rec
}

func TestSendMessage(t *testing.T) {
	ms := newMemStore()
	h := NewHandler(newTestPipeline(ms))

	rec := postMessage(t, h, `{"user_id":"u1","agent_id":"ceo_coach","message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var reply Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "ceo_coach", reply.AgentID)
	assert.Equal(t, "u1", reply.UserID)
	assert.NotEmpty(t, reply.Response)

	// first message moves the balance from 6 to 5
	assert.Equal(t, 1, ms.records["u1"].TokensUsed)
}

func TestSendMessageInvalidJSON(t *testing.T) {
	h := NewHandler(newTestPipeline(newMemStore()))
	rec := postMessage(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageMissingFields(t *testing.T) {
	h := NewHandler(newTestPipeline(newMemStore()))

	for _, body := range []string{
		`{"agent_id":"ceo_coach","message":"hi"}`,
		`{"user_id":"u1","message":"hi"}`,
		`{"user_id":"u1","agent_id":"ceo_coach"}`,
	} {
		rec := postMessage(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestSendMessageQuotaExceeded(t *testing.T) {
	ms := newMemStore()
	h := NewHandler(newTestPipeline(ms))

	body := `{"user_id":"u1","agent_id":"ceo_coach","message":"hi"}`
	for i := 0; i < ledger.FreeTokensLimit; i++ {
		rec := postMessage(t, h, body)
		require.Equal(t, http.StatusOK, rec.Code, "message %d should pass", i+1)
	}

	rec := postMessage(t, h, body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var errResp struct {
		Error   string        `json:"error"`
		Details ledger.Status `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Contains(t, errResp.Error, "upgrade")
	assert.Equal(t, ledger.FreeTokensLimit, errResp.Details.TokensUsed)
	assert.Equal(t, 0, errResp.Details.TokensRemaining)
}

func TestSendMessagePersistenceFailureStill200(t *testing.T) {
	ms := newMemStore()
	h := NewHandler(newTestPipeline(ms))

	okBody := postMessage(t, h, `{"user_id":"u1","agent_id":"ceo_coach","message":"hi"}`).Body.String()

	ms.failInsert = assert.AnError
	rec := postMessage(t, h, `{"user_id":"u1","agent_id":"ceo_coach","message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, okBody, rec.Body.String())
}

func TestSendMessageWithClientHistory(t *testing.T) {
	h := NewHandler(newTestPipeline(newMemStore()))
	rec := postMessage(t, h, `{
		"user_id":"u1","agent_id":"ceo_coach","message":"hi",
		"conversation_history":[{"user_message":"earlier","response":"noted"}]
	}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
