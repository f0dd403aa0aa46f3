// Package httpjson is the shared JSON-over-HTTP transport for the model and
// search services the pipeline calls.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/dialogue-qa/internal/infrastructure/resilience"
)

type Client struct {
	service    string
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	headers    map[string]string
}

type Options struct {
	Timeout  time.Duration
	Executor *resilience.Executor
	Headers  map[string]string
}

func New(service, baseURL string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.Executor,
		headers:    options.Headers,
	}
}

func (c *Client) Service() string {
	return c.service
}

func (c *Client) PostJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	return c.Do(ctx, http.MethodPost, path, payload, out, operation)
}

// Do sends payload (nil for no body) and decodes a 2xx response into out
// (nil to discard it). Calls go through the resilience executor when one is
// configured; retryable failures come back marked domain.ErrTemporary.
func (c *Client) Do(ctx context.Context, method, path string, payload any, out any, operation string) error {
	var body []byte
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", operation, err)
		}
		body = raw
	}

	call := func(callCtx context.Context) error {
		return c.roundTrip(callCtx, method, path, body, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, c.service+"."+operation, call, Classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return WrapTemporaryIfNeeded(c.service+" "+operation, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte, out any, operation string) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s request: %w", c.service, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newHTTPStatusError(c.service, operation, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
