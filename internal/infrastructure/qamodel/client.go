// Package qamodel calls an extractive question-answering model server that
// returns a span of the given context, or an empty answer.
package qamodel

import (
	"context"
	"strings"

	"github.com/kirillkom/dialogue-qa/internal/infrastructure/httpjson"
)

type Client struct {
	http     *httpjson.Client
	minScore float64
}

// New builds a client. Answers scored below minScore are treated as empty.
func New(http *httpjson.Client, minScore float64) *Client {
	return &Client{http: http, minScore: minScore}
}

func (c *Client) ExtractAnswer(ctx context.Context, question, passage string) (string, error) {
	if strings.TrimSpace(passage) == "" || strings.TrimSpace(question) == "" {
		return "", nil
	}
	request := map[string]string{
		"question": question,
		"context":  passage,
	}
	var response struct {
		Answer string  `json:"answer"`
		Score  float64 `json:"score"`
	}
	if err := c.http.PostJSON(ctx, "/extract", request, &response, "extract"); err != nil {
		return "", err
	}
	if response.Score < c.minScore {
		return "", nil
	}
	return strings.TrimSpace(response.Answer), nil
}
