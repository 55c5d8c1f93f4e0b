// Package gemini implements provider.Client against the Gemini
// generateContent endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentchat-platform/agentchat/internal/provider"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func New(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type       string `json:"@type"`
			RetryDelay string `json:"retryDelay"`
		} `json:"details"`
	} `json:"error"`
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", &provider.Error{Kind: provider.KindUnknown, Err: err}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", &provider.Error{Kind: provider.KindUnknown, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &provider.Error{Kind: provider.KindUnknown, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", classify(resp.StatusCode, respBody)
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", &provider.Error{Kind: provider.KindUnknown, Err: err}
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", &provider.Error{Kind: provider.KindUnknown, Err: fmt.Errorf("gemini api returned no candidates")}
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

// classify maps a non-200 generateContent response to a provider.Error.
// The error body follows the google.rpc.Status shape; a RetryInfo detail
// carries the suggested retry delay on quota errors.
func classify(status int, body []byte) *provider.Error {
	var eb geminiErrorBody
	_ = json.Unmarshal(body, &eb)

	base := fmt.Errorf("gemini api error (status %d): %s", status, string(body))

	switch {
	case status == http.StatusTooManyRequests || eb.Error.Status == "RESOURCE_EXHAUSTED":
		perr := &provider.Error{Kind: provider.KindRateLimited, Err: base}
		for _, d := range eb.Error.Details {
			if d.RetryDelay == "" {
				continue
			}
			if delay, err := time.ParseDuration(d.RetryDelay); err == nil {
				perr.RetryAfter = delay
			}
		}
		return perr
	case status == http.StatusForbidden || eb.Error.Status == "PERMISSION_DENIED":
		return &provider.Error{Kind: provider.KindPermission, Err: base}
	case eb.Error.Status == "UNAUTHENTICATED" || strings.Contains(eb.Error.Message, "API key"):
		return &provider.Error{Kind: provider.KindInvalidKey, Err: base}
	default:
		return &provider.Error{Kind: provider.KindUnknown, Err: base}
	}
}
