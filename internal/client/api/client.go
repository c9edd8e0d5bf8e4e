// Package api talks to the InvestorConnect backend. Every endpoint answers
// with the same JSON envelope; failures come back as *Error values that
// match the docstore sentinels with errors.Is.
package api

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

	"investorconnect/internal/docstore"
)

// DefaultTimeout applies when the configured timeout is zero
const DefaultTimeout = 15 * time.Second

var (
	// ErrUnauthenticated matches 401 answers
	ErrUnauthenticated = errors.New("api: unauthenticated")
	// ErrAlreadyExists matches 409 answers
	ErrAlreadyExists = errors.New("api: already exists")
	// ErrPermissionDenied matches 403 answers
	ErrPermissionDenied = errors.New("api: permission denied")
	// ErrInvalidArgument matches 400 answers
	ErrInvalidArgument = errors.New("api: invalid argument")
)

// Error is a non-success answer from the backend
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api: request failed with status %d", e.Status)
}

// ErrorCode returns the envelope code ("not-found", "failed-precondition", ...)
func (e *Error) ErrorCode() string {
	return e.Code
}

// Is maps the status and envelope code to sentinel errors
func (e *Error) Is(target error) bool {
	switch target {
	case docstore.ErrNotFound:
		return e.Status == http.StatusNotFound
	case docstore.ErrIndexRequired:
		return e.Status == http.StatusPreconditionFailed || e.Code == "failed-precondition"
	case ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	case ErrAlreadyExists:
		return e.Status == http.StatusConflict
	case ErrPermissionDenied:
		return e.Status == http.StatusForbidden
	case ErrInvalidArgument:
		return e.Status == http.StatusBadRequest
	}
	return false
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

// Client sends JSON requests to the backend API
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for baseURL (e.g. http://localhost:3000/api/v1)
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NewWithHTTPClient uses hc as is (tests, custom transports)
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Do sends body as JSON and decodes the envelope's data into out. token is
// sent as a bearer token when non-empty; out may be nil.
func (c *Client) Do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= http.StatusBadRequest {
				return &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
			}
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return &Error{Status: resp.StatusCode, Code: env.Code, Message: msg}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
