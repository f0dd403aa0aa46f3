// Package elastic queries and feeds the Elasticsearch index that holds the
// answer corpus. Documents carry title, opening_text and text fields.
package elastic

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
	"github.com/kirillkom/dialogue-qa/internal/infrastructure/httpjson"
)

type Client struct {
	http             *httpjson.Client
	index            string
	sortByPopularity bool
}

type Options struct {
	Index string
	// SortByPopularity orders hits by popularity_score before relevance.
	SortByPopularity bool
}

func New(http *httpjson.Client, options Options) *Client {
	index := strings.TrimSpace(options.Index)
	if index == "" {
		index = "documents"
	}
	return &Client{http: http, index: index, sortByPopularity: options.SortByPopularity}
}

type searchHit struct {
	ID     string  `json:"_id"`
	Score  float64 `json:"_score"`
	Source struct {
		Title       string `json:"title"`
		OpeningText string `json:"opening_text"`
		Text        string `json:"text"`
	} `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

func (c *Client) Search(ctx context.Context, query domain.WeightedQuery, boosts domain.FieldBoosts, topK int) ([]domain.SearchDocument, error) {
	queryString := QueryString(query)
	if queryString == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = 10
	}

	request := map[string]any{
		"size": topK,
		"query": map[string]any{
			"query_string": map[string]any{
				"query":            queryString,
				"fields":           fieldsWithBoosts(boosts),
				"default_operator": "OR",
			},
		},
		"_source": []string{"title", "opening_text", "text"},
	}
	if c.sortByPopularity {
		request["sort"] = []any{
			map[string]any{"popularity_score": map[string]any{"order": "desc", "mode": "max", "unmapped_type": "float"}},
			"_score",
		}
	}

	var response searchResponse
	if err := c.http.PostJSON(ctx, "/"+url.PathEscape(c.index)+"/_search", request, &response, "search"); err != nil {
		return nil, err
	}

	docs := make([]domain.SearchDocument, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		body := hit.Source.Text
		if strings.TrimSpace(body) == "" {
			body = hit.Source.OpeningText
		}
		docs = append(docs, domain.SearchDocument{
			ID:    hit.ID,
			Title: hit.Source.Title,
			Body:  body,
			Score: hit.Score,
		})
	}
	return docs, nil
}

func (c *Client) IndexDocument(ctx context.Context, doc domain.IndexedDocument) error {
	if strings.TrimSpace(doc.ID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "index document", fmt.Errorf("document id is required"))
	}
	path := "/" + url.PathEscape(c.index) + "/_doc/" + url.PathEscape(doc.ID) + "?refresh=wait_for"
	return c.http.Do(ctx, http.MethodPut, path, doc, nil, "index")
}

// EnsureIndex creates the index with text mappings when it does not exist.
func (c *Client) EnsureIndex(ctx context.Context) error {
	err := c.http.Do(ctx, http.MethodHead, "/"+url.PathEscape(c.index), nil, nil, "index_exists")
	if err == nil {
		return nil
	}
	if httpjson.StatusCode(err) != http.StatusNotFound {
		return fmt.Errorf("check index %q: %w", c.index, err)
	}

	mapping := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"title":            map[string]string{"type": "text"},
				"opening_text":     map[string]string{"type": "text"},
				"text":             map[string]string{"type": "text"},
				"popularity_score": map[string]string{"type": "float"},
			},
		},
	}
	if err := c.http.Do(ctx, http.MethodPut, "/"+url.PathEscape(c.index), mapping, nil, "create_index"); err != nil {
		return fmt.Errorf("create index %q: %w", c.index, err)
	}
	return nil
}

// QueryString renders the weighted query in query_string syntax:
// space-separated token^weight pairs with reserved characters escaped.
func QueryString(query domain.WeightedQuery) string {
	parts := make([]string, 0, len(query.Terms))
	for _, term := range query.Terms {
		token := escapeQueryString(term.Token)
		if token == "" {
			continue
		}
		parts = append(parts, token+"^"+strconv.FormatFloat(term.Weight, 'f', -1, 64))
	}
	return strings.Join(parts, " ")
}

func fieldsWithBoosts(b domain.FieldBoosts) []string {
	format := func(name string, boost float64) string {
		return name + "^" + strconv.FormatFloat(boost, 'f', -1, 64)
	}
	return []string{
		format("title", b.Title),
		format("opening_text", b.OpeningText),
		format("text", b.Body),
	}
}

const queryStringReserved = `+-=&|><!(){}[]^"~*?:\/`

func escapeQueryString(token string) string {
	var b strings.Builder
	for _, r := range token {
		if strings.ContainsRune(queryStringReserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
