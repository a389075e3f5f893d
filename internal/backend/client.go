// Package backend is the HTTP client for the catalog REST backend.
//
// Every call goes through Client.do, which is the single place where transport
// failures and non-2xx responses are converted into errorutil domain errors.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/observability"
	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

const maxErrorBody = 64 << 10

// Credentials supplies the bearer token for authorized calls.
type Credentials interface {
	// Token returns the current bearer token, empty when anonymous.
	Token() string
	// Invalidate reports that the backend rejected token.
	Invalidate(token string)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Client talks to the catalog backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	metrics *observability.Metrics
	creds   Credentials
}

// New builds a client without credentials.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// WithCredentials returns a shallow copy bound to creds.
func (c *Client) WithCredentials(creds Credentials) *Client {
	clone := *c
	clone.creds = creds
	return &clone
}

type call struct {
	method   string
	endpoint string // route template, used for logs and metrics
	path     string
	query    url.Values
	body     any
	auth     bool
	token    string // explicit token, overrides credentials
	fallback string
}

func (c *Client) do(ctx context.Context, req call, out any) error {
	// Public calls, login and register among them, never carry the session
	// token, so their 401s cannot invalidate it.
	token := req.token
	if req.auth && token == "" && c.creds != nil {
		token = c.creds.Token()
	}
	if req.auth && token == "" {
		return apperrors.NewUnauthorized("sign in required")
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return apperrors.NewInternalError(fmt.Errorf("encode %s body: %w", req.endpoint, err))
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.RecordBackendCall(req.endpoint, req.method, 0, time.Since(start))
		c.logger.Warn("backend unreachable",
			zap.String("method", req.method),
			zap.String("endpoint", req.endpoint),
			zap.String("request_id", requestID),
			zap.Error(err))
		return apperrors.NewNetworkError(err)
	}
	defer resp.Body.Close()
	c.metrics.RecordBackendCall(req.endpoint, req.method, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		convErr := convertFailure(resp.StatusCode, raw, req.fallback)
		c.logger.Debug("backend call failed",
			zap.String("method", req.method),
			zap.String("endpoint", req.endpoint),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.Error(convErr))
		if resp.StatusCode == http.StatusUnauthorized && token != "" && req.token == "" && c.creds != nil {
			c.creds.Invalidate(token)
		}
		return convErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewBackendError(resp.StatusCode, "empty response from backend")
		}
		return apperrors.NewBackendError(resp.StatusCode, fmt.Sprintf("malformed response from %s", req.endpoint))
	}
	return nil
}

// convertFailure maps a non-2xx response to the error taxonomy.
func convertFailure(status int, body []byte, fallback string) error {
	message := messageFromBody(body)
	if message == "" {
		message = fallback
	}
	if message == "" {
		message = http.StatusText(status)
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.NewValidationError(message, map[string]any{"source": "backend"})
	case http.StatusUnauthorized:
		return apperrors.NewUnauthorized(message)
	case http.StatusForbidden:
		return apperrors.NewForbidden(message)
	case http.StatusNotFound:
		return apperrors.NewDomainError(apperrors.CodeNotFound, message, http.StatusNotFound, nil)
	case http.StatusConflict:
		return apperrors.NewConflict(message, nil)
	default:
		return apperrors.NewBackendError(status, message)
	}
}

// messageFromBody extracts a human-readable message from an error body.
// JSON bodies are searched for message, title, then error; short plain-text bodies are used as-is.
func messageFromBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '{' {
		var fields map[string]any
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return ""
		}
		for _, key := range []string{"message", "title", "error"} {
			if v, ok := fields[key].(string); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}
	if trimmed[0] == '<' || len(trimmed) > 300 {
		return ""
	}
	return string(trimmed)
}

func idPath(format string, ids ...int64) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(format, args...)
}
