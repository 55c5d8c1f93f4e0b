package provider

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClient struct {
	generateFunc func(ctx context.Context, prompt string) (string, error)
	lastPrompt   string
}

func (f *fakeClient) Generate(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.generateFunc(ctx, prompt)
}

func personaFor(agentID string) string {
	return "You are " + agentID + "."
}

func newTestResponder(client Client) *Responder {
	return NewResponder(client, personaFor, slog.Default())
}

func TestRespond(t *testing.T) {
	client := &fakeClient{generateFunc: func(ctx context.Context, prompt string) (string, error) {
		return "  Sure, here's my advice.  ", nil
	}}

	got := newTestResponder(client).Respond(context.Background(), "ceo_coach", "How do I delegate?", nil)

	assert.Equal(t, "Sure, here's my advice.", got)
	assert.True(t, strings.HasPrefix(client.lastPrompt, "You are ceo_coach."))
	assert.True(t, strings.HasSuffix(client.lastPrompt, "User: How do I delegate?\nAssistant:"))
}

func TestRespondIncludesHistory(t *testing.T) {
	client := &fakeClient{generateFunc: func(ctx context.Context, prompt string) (string, error) {
		return "ok", nil
	}}

	history := []Turn{
		{Message: "first question", Response: "first answer"},
		{Message: "second question", Response: "second answer"},
	}
	newTestResponder(client).Respond(context.Background(), "tech_mentor", "third question", history)

	assert.Contains(t, client.lastPrompt, "User: first question\nAssistant: first answer\n")
	assert.Contains(t, client.lastPrompt, "User: second question\nAssistant: second answer\n")
	assert.Less(t,
		strings.Index(client.lastPrompt, "first question"),
		strings.Index(client.lastPrompt, "second question"))
}

func TestRespondTruncatesHistory(t *testing.T) {
	client := &fakeClient{generateFunc: func(ctx context.Context, prompt string) (string, error) {
		return "ok", nil
	}}

	history := make([]Turn, historyWindow+5)
	for i := range history {
		history[i] = Turn{Message: "m", Response: "r"}
	}
	history[0].Message = "the-oldest-turn"
	history[len(history)-1].Message = "the-newest-turn"

	newTestResponder(client).Respond(context.Background(), "life_coach", "now", history)

	assert.NotContains(t, client.lastPrompt, "the-oldest-turn")
	assert.Contains(t, client.lastPrompt, "the-newest-turn")
}

func TestRespondApologies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "rate limited with delay",
			err:  &Error{Kind: KindRateLimited, RetryAfter: 30 * time.Second},
			want: "about 30 seconds",
		},
		{
			name: "rate limited without delay",
			err:  &Error{Kind: KindRateLimited},
			want: "try again in a moment",
		},
		{
			name: "permission",
			err:  &Error{Kind: KindPermission},
			want: "don't have access",
		},
		{
			name: "invalid key",
			err:  &Error{Kind: KindInvalidKey},
			want: "misconfigured",
		},
		{
			name: "unclassified",
			err:  assert.AnError,
			want: "couldn't come up with a response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{generateFunc: func(ctx context.Context, prompt string) (string, error) {
				return "", tt.err
			}}
			got := newTestResponder(client).Respond(context.Background(), "ceo_coach", "hello", nil)
			assert.Contains(t, got, tt.want)
		})
	}
}
