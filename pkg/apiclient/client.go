package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gopass/dashboard/pkg/config"
	"github.com/rs/zerolog/log"
)

// TokenProvider supplies the bearer credential attached to every request
type TokenProvider interface {
	AccessToken() string
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mutex          sync.RWMutex
	tokens         TokenProvider
	onUnauthorized func(ctx context.Context)
}

func New(settings config.APISettings) *Client {
	return &Client{
		baseURL: strings.TrimRight(settings.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: settings.Timeout,
		},
	}
}

func (c *Client) SetTokenProvider(tokens TokenProvider) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.tokens = tokens
}

// OnUnauthorized registers the hook run whenever the service answers 401
func (c *Client) OnUnauthorized(hook func(ctx context.Context)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.onUnauthorized = hook
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) put(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method string, path string, body interface{}, out interface{}) error {
	var requestBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		requestBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, requestBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mutex.RLock()
	tokens := c.tokens
	onUnauthorized := c.onUnauthorized
	c.mutex.RUnlock()

	if tokens != nil {
		if token := tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("latency", time.Since(startTime).String()).
		Msg("API Request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiError := &Error{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(responseBody),
		}

		if resp.StatusCode == http.StatusUnauthorized && onUnauthorized != nil {
			log.Warn().Str("path", path).Msg("API rejected credentials, clearing session")
			onUnauthorized(ctx)
		}

		return apiError
	}

	if out == nil || len(bytes.TrimSpace(responseBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(unwrapEnvelope(responseBody), out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}

	return nil
}

// unwrapEnvelope returns the contents of a top level "data" field when the service wrapped
// its payload in one, otherwise the body as it is
func unwrapEnvelope(body []byte) []byte {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return body
	}

	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return body
	}

	return data
}

func errorMessage(body []byte) string {
	var payload struct {
		Message interface{} `json:"message"`
		Error   interface{} `json:"error"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}

	for _, candidate := range []interface{}{payload.Message, payload.Error} {
		switch value := candidate.(type) {
		case string:
			if value != "" {
				return value
			}
		case []interface{}:
			parts := make([]string, 0, len(value))
			for _, part := range value {
				parts = append(parts, fmt.Sprint(part))
			}
			return strings.Join(parts, ", ")
		}
	}

	return ""
}

func resourcePath(collection string, parts ...string) string {
	escaped := make([]string, 0, len(parts)+1)
	escaped = append(escaped, collection)

	for _, part := range parts {
		escaped = append(escaped, url.PathEscape(part))
	}

	return strings.Join(escaped, "/")
}
