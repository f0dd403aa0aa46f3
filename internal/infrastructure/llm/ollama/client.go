package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/httpjson"
)

type Client struct {
	http  *httpjson.Client
	model string
}

func New(http *httpjson.Client, model string) *Client {
	return &Client{http: http, model: model}
}

// IntentClassifier labels a query as retrieval or chat.
type IntentClassifier struct {
	client *Client
}

func NewIntentClassifier(client *Client) *IntentClassifier {
	return &IntentClassifier{client: client}
}

func (c *IntentClassifier) ClassifyIntent(ctx context.Context, text string) (domain.Intent, error) {
	respText, err := c.client.generateJSON(ctx, buildIntentPrompt(text))
	if err != nil {
		return "", err
	}

	var result struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		return "", fmt.Errorf("parse intent json: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(result.Intent)) {
	case "chat":
		return domain.IntentChat, nil
	case "retrieval", "qa":
		return domain.IntentRetrieval, nil
	default:
		return "", fmt.Errorf("unknown intent %q", result.Intent)
	}
}

type ChatResponder struct {
	client *Client
}

func NewChatResponder(client *Client) *ChatResponder {
	return &ChatResponder{client: client}
}

func (r *ChatResponder) GenerateChatReply(ctx context.Context, text string) (string, error) {
	return r.client.generateText(ctx, buildChatPrompt(text))
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.http.PostJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
