// Package http is the JSON transport used to talk to the remote profile,
// recommendation and lock services.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"

	"github.com/google/uuid"
)

// TokenSource yields the bearer token attached to each request. An empty
// token sends the request unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// UnauthorizedHook is invoked when a non-auth endpoint answers 401.
type UnauthorizedHook func(ctx context.Context, path string)

const RequestIDHeader = "X-Request-ID"

type Options struct {
	BaseURL        string
	Timeout        time.Duration
	Tokens         TokenSource
	OnUnauthorized UnauthorizedHook
	Logger         logger.Logger
	HTTPClient     *http.Client
}

type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHook
	logger         logger.Logger
}

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		httpClient:     hc,
		tokens:         opts.Tokens,
		onUnauthorized: opts.OnUnauthorized,
		logger:         log,
	}
}

// WithTokens returns a copy of c authenticating through tokens.
func (c *Client) WithTokens(tokens TokenSource, onUnauthorized UnauthorizedHook) *Client {
	cp := *c
	cp.tokens = tokens
	cp.onUnauthorized = onUnauthorized
	return &cp
}

func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Do sends a JSON request and decodes a 2xx body into out. Failures are
// StandardErrors with code NETWORK_UNREACHABLE, UNAUTHORIZED or SERVER_REJECTED.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.NewInternalError(fmt.Errorf("encode request body: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request did not reach server", map[string]interface{}{
			"method":    method,
			"path":      path,
			"requestId": requestID,
			"error":     err.Error(),
		})
		return errors.NewNetworkUnreachableError(path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewNetworkUnreachableError(path, err)
	}

	c.logger.Debug("request completed", map[string]interface{}{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"requestId":  requestID,
		"durationMs": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode == http.StatusUnauthorized {
		if !isAuthPath(path) && c.onUnauthorized != nil {
			c.onUnauthorized(ctx, path)
		}
		return errors.NewUnauthorizedError(path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewServerRejectedError(path, resp.StatusCode, rejectionMessage(resp.StatusCode, raw))
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.NewServerRejectedError(path, resp.StatusCode, "Malformed response body")
	}
	return nil
}

func isAuthPath(path string) bool {
	return strings.Contains(path, "/auth/")
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

// rejectionMessage extracts a user facing message from an error body.
func rejectionMessage(status int, raw []byte) string {
	var body errorBody
	_ = json.Unmarshal(raw, &body)

	var detail string
	var items []struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if len(body.Detail) > 0 {
		if err := json.Unmarshal(body.Detail, &detail); err != nil {
			if err := json.Unmarshal(body.Detail, &items); err == nil {
				msgs := make([]string, 0, len(items))
				for _, it := range items {
					if it.Msg != "" {
						msgs = append(msgs, it.Msg)
					} else if it.Message != "" {
						msgs = append(msgs, it.Message)
					}
				}
				detail = strings.Join(msgs, ". ")
			}
		}
	}

	switch status {
	case http.StatusBadRequest:
		if detail != "" {
			return detail
		}
		return "Invalid request. Please check your input."
	case http.StatusUnprocessableEntity:
		if len(items) > 0 && detail != "" {
			return detail
		}
		return "Validation failed"
	}
	if detail != "" {
		return detail
	}
	if body.Message != "" {
		return body.Message
	}
	return fmt.Sprintf("Request failed with status %d", status)
}
