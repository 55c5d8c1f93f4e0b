package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentchat-platform/agentchat/internal/provider"
)

const (
	historyMaxTurns = 10
	historyTTL      = 24 * time.Hour
)

// History caches recent conversation turns per user+agent pair in Redis
// lists, so WebSocket sessions and stateless HTTP calls share context.
type History struct {
	client redis.Cmdable
}

func NewHistory(client redis.Cmdable) *History {
	return &History{client: client}
}

type historyEntry struct {
	Message  string `json:"message"`
	Response string `json:"response"`
}

func historyKey(userID, agentID string) string {
	return fmt.Sprintf("chat:history:%s:%s", userID, agentID)
}

// Recent returns the cached turns for the pair, oldest first. A cache
// miss or Redis failure yields an empty history, never an error.
func (h *History) Recent(ctx context.Context, userID, agentID string) []provider.Turn {
	if h == nil || h.client == nil {
		return nil
	}

	vals, err := h.client.LRange(ctx, historyKey(userID, agentID), -historyMaxTurns, -1).Result()
	if err != nil {
		return nil
	}

	turns := make([]provider.Turn, 0, len(vals))
	for _, v := range vals {
		var entry historyEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			continue // skip malformed entries
		}
		turns = append(turns, provider.Turn{Message: entry.Message, Response: entry.Response})
	}
	return turns
}

// Append records a completed turn and trims the list to the window.
func (h *History) Append(ctx context.Context, userID, agentID, message, response string) error {
	if h == nil || h.client == nil {
		return nil
	}

	data, err := json.Marshal(historyEntry{Message: message, Response: response})
	if err != nil {
		return fmt.Errorf("marshaling history entry: %w", err)
	}

	key := historyKey(userID, agentID)
	pipe := h.client.Pipeline()
	pipe.RPush(ctx, key, string(data))
	pipe.LTrim(ctx, key, -historyMaxTurns, -1)
	pipe.Expire(ctx, key, historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("pipeline exec for %s: %w", key, err)
	}
	return nil
}
