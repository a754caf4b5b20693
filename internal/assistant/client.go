package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrUpstream wraps every failure of the completion provider.
var ErrUpstream = errors.New("ai provider failure")

const systemPrompt = "You are a helpful assistant for the Reward Hub app. You help users understand how to earn points, " +
	"complete tasks, and withdraw rewards. Keep responses concise and friendly. " +
	`Reply with a JSON object of the form {"response": "<answer>"}.`

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

// Ask forwards question to the completion API and returns the answer text.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: question},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: chat request: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, gjson.GetBytes(body, "error.message").String())
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() || strings.TrimSpace(content.String()) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUpstream)
	}
	return extractAnswer(content.String()), nil
}

// extractAnswer pulls the "response" field out of a JSON-mode completion and
// falls back to the raw text when the model ignored the format.
func extractAnswer(content string) string {
	if gjson.Valid(content) {
		if r := gjson.Get(content, "response"); r.Exists() && r.String() != "" {
			return r.String()
		}
	}
	return strings.TrimSpace(content)
}
