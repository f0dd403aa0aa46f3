// Package spacyhttp talks to the text-understanding service: a small HTTP
// wrapper around a spaCy pipeline with a coreference component.
package spacyhttp

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/httpjson"
)

type Client struct {
	http *httpjson.Client
}

func New(http *httpjson.Client) *Client {
	return &Client{http: http}
}

type textRequest struct {
	Text string `json:"text"`
}

func (c *Client) ResolveCoreference(ctx context.Context, text string) (string, error) {
	var response struct {
		Text string `json:"text"`
	}
	if err := c.http.PostJSON(ctx, "/coref", textRequest{Text: text}, &response, "coref"); err != nil {
		return "", err
	}
	return response.Text, nil
}

func (c *Client) Sentences(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var response struct {
		Sentences []string `json:"sentences"`
	}
	if err := c.http.PostJSON(ctx, "/sentences", textRequest{Text: text}, &response, "sentences"); err != nil {
		return nil, err
	}
	out := response.Sentences[:0]
	for _, s := range response.Sentences {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Tag sends pre-split tokens so the service tags exactly the tokens the
// reformulator produced.
func (c *Client) Tag(ctx context.Context, tokens []string) ([]domain.TaggedToken, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	request := struct {
		Tokens []string `json:"tokens"`
	}{Tokens: tokens}

	var response struct {
		Tokens []struct {
			Text   string `json:"text"`
			POS    string `json:"pos"`
			EntIOB string `json:"ent_iob"`
		} `json:"tokens"`
	}
	if err := c.http.PostJSON(ctx, "/tag", request, &response, "tag"); err != nil {
		return nil, err
	}
	if len(response.Tokens) != len(tokens) {
		return nil, fmt.Errorf("tag: service returned %d tokens for %d", len(response.Tokens), len(tokens))
	}

	out := make([]domain.TaggedToken, 0, len(response.Tokens))
	for _, tok := range response.Tokens {
		out = append(out, domain.TaggedToken{Text: tok.Text, POS: strings.ToUpper(tok.POS), EntityIOB: strings.ToUpper(tok.EntIOB)})
	}
	return out, nil
}

func (c *Client) Lemmatize(ctx context.Context, text string) ([]string, error) {
	var response struct {
		Lemmas []string `json:"lemmas"`
	}
	if err := c.http.PostJSON(ctx, "/lemmatize", textRequest{Text: text}, &response, "lemmatize"); err != nil {
		return nil, err
	}
	return response.Lemmas, nil
}
