// Package api is the REST client for the remote content-and-social-graph API.
// It owns the wire concerns: URL building, bearer-token propagation, multipart
// uploads, and translation of transport and server failures into coded domain
// errors. State tracking lives in the domain stores, not here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/platform/logger"
	dErrors "inkwell/pkg/domain-errors"
	"inkwell/pkg/platform/circuit"
)

// Doer executes one HTTP request. *http.Client satisfies it; tests substitute
// counting fakes to assert that fail-fast paths issue no call at all.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields the current bearer token. The session manager satisfies
// it; protected calls read the token at issue time, so a session established
// after client construction is picked up automatically.
type TokenSource interface {
	Token() (string, bool)
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the API root including the /api/v1 prefix.
	BaseURL string

	// HTTPClient overrides the transport. Defaults to an http.Client bounded
	// by Timeout.
	HTTPClient Doer

	// Timeout bounds each call when the default transport is used.
	Timeout time.Duration

	// Tokens supplies bearer tokens for protected calls. Required.
	Tokens TokenSource

	// OnAuthReject is invoked when the server rejects a protected call as
	// unauthorized. Optional; used to force logout when that policy is on.
	OnAuthReject func()

	// RequireUpdateImage makes post updates insist on an image file, matching
	// servers that reject image-less updates. Off by default: a nil image
	// simply omits the file part.
	RequireUpdateImage bool

	// Breaker, when set, short-circuits calls while the server is failing.
	// Transport errors and 5xx responses count as failures.
	Breaker *circuit.Breaker

	Logger *slog.Logger
}

// Client is the wire-level API client.
type Client struct {
	baseURL      string
	http         Doer
	tokens       TokenSource
	onAuthReject func()
	requireImage bool
	breaker      *circuit.Breaker
	log          *slog.Logger
}

// New validates the config and builds a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "api base URL is required")
	}
	if cfg.Tokens == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "token source is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}

	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		http:         httpClient,
		tokens:       cfg.Tokens,
		onAuthReject: cfg.OnAuthReject,
		requireImage: cfg.RequireUpdateImage,
		breaker:      cfg.Breaker,
		log:          log,
	}, nil
}

// envelope is the server's standard response wrapper.
type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// serverError is the error payload shape the server returns on non-2xx.
type serverError struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// request issues one call. Protected calls fail fast with CodeUnauthenticated
// before touching the transport when no token is present.
func (c *Client) request(ctx context.Context, method, path string, contentType string, body io.Reader, protected bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if protected {
		token, ok := c.tokens.Token()
		if !ok {
			return nil, dErrors.New(dErrors.CodeUnauthenticated, "no session token; log in first")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if c.breaker != nil && c.breaker.IsOpen() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "server unreachable, backing off")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// The call never reached the server; surface the transport message.
		c.recordOutcome(false)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "request failed")
	}
	c.recordOutcome(resp.StatusCode < http.StatusInternalServerError)
	return resp, nil
}

// recordOutcome feeds the breaker. A 4xx still counts as a success: the
// server answered.
func (c *Client) recordOutcome(ok bool) {
	if c.breaker == nil {
		return
	}
	if ok {
		if _, change := c.breaker.RecordSuccess(); change.Closed {
			c.log.Info("server recovered, resuming calls")
		}
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.log.Warn("server failing, backing off")
	}
}

// decodeError drains the response and maps the server payload onto a coded error.
func (c *Client) decodeError(resp *http.Response, protected bool) error {
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	message := strings.TrimSpace(string(raw))
	var payload serverError
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		message = payload.Message
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	code := codeForStatus(resp.StatusCode)
	if code == dErrors.CodeUnauthenticated && protected && c.onAuthReject != nil {
		c.onAuthReject()
	}

	c.log.Debug("api call rejected",
		"status", resp.StatusCode,
		"message", message,
	)
	return dErrors.New(code, message)
}

func codeForStatus(status int) dErrors.Code {
	switch {
	case status == http.StatusUnauthorized:
		return dErrors.CodeUnauthenticated
	case status == http.StatusForbidden:
		return dErrors.CodeForbidden
	case status == http.StatusNotFound:
		return dErrors.CodeNotFound
	case status == http.StatusConflict:
		return dErrors.CodeConflict
	case status >= 400 && status < 500:
		return dErrors.CodeBadRequest
	default:
		return dErrors.CodeInternal
	}
}

// doJSON issues a JSON call and decodes the enveloped payload into T.
func doJSON[T any](ctx context.Context, c *Client, method, path string, body any, protected bool) (T, error) {
	var zero T

	var reader io.Reader
	contentType := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, dErrors.Wrap(err, dErrors.CodeInternal, "encode request body")
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}

	resp, err := c.request(ctx, method, path, contentType, reader, protected)
	if err != nil {
		return zero, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, c.decodeError(resp, protected)
	}
	defer resp.Body.Close()

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, "decode response")
	}
	return env.Data, nil
}

// doFlat issues a JSON call and decodes the response body directly into T,
// for endpoints that answer without the data envelope (the auth flows).
func doFlat[T any](ctx context.Context, c *Client, method, path string, body any, protected bool) (T, error) {
	var zero T

	var reader io.Reader
	contentType := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, dErrors.Wrap(err, dErrors.CodeInternal, "encode request body")
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}

	resp, err := c.request(ctx, method, path, contentType, reader, protected)
	if err != nil {
		return zero, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, c.decodeError(resp, protected)
	}
	defer resp.Body.Close()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, "decode response")
	}
	return out, nil
}

// File is an upload destined for a multipart file part.
type File struct {
	Name string
	Data []byte
}

// doMultipart issues a multipart call with form fields and an optional file
// part named "file", decoding the enveloped payload into T.
func doMultipart[T any](ctx context.Context, c *Client, method, path string, fields map[string]string, file *File, protected bool) (T, error) {
	var zero T

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return zero, dErrors.Wrap(err, dErrors.CodeInternal, "write form field")
		}
	}
	if file != nil {
		part, err := w.CreateFormFile("file", file.Name)
		if err != nil {
			return zero, dErrors.Wrap(err, dErrors.CodeInternal, "create file part")
		}
		if _, err := part.Write(file.Data); err != nil {
			return zero, dErrors.Wrap(err, dErrors.CodeInternal, "write file part")
		}
	}
	if err := w.Close(); err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, "finish multipart body")
	}

	resp, err := c.request(ctx, method, path, w.FormDataContentType(), &buf, protected)
	if err != nil {
		return zero, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, c.decodeError(resp, protected)
	}
	defer resp.Body.Close()

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInternal, "decode response")
	}
	return env.Data, nil
}

// ack is the decoded form of endpoints that return only a message.
type ack struct {
	Message string `json:"message"`
}

func pathID(format, id string) string {
	return fmt.Sprintf(format, id)
}
