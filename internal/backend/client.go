package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/homedeck/homedeck/internal/infrastructure/config"
	"github.com/homedeck/homedeck/internal/infrastructure/logging"
)

// Client is the HTTP implementation of the room, device, user, and
// home collaborators. All requests carry the session's current bearer
// token; failures map to the fixed error set in errors.go.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	logger  *logging.Logger
}

// NewClient creates a backend client.
//
// Parameters:
//   - cfg: Backend configuration (base URL, timeout)
//   - session: Bearer token holder, shared across collaborators
//   - logger: Structured logger
//
// Returns:
//   - *Client: Ready-to-use client
func NewClient(cfg config.BackendConfig, session *Session, logger *logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		session: session,
		logger:  logger.With("component", "backend_client"),
	}
}

// Session returns the client's session.
func (c *Client) Session() *Session {
	return c.session
}

// do performs one JSON request/response cycle against the backend.
// body and out may be nil; resource names the entity for 404 messages.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, resource string) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", "method", method, "path", path, "error", err)
		return ErrNetwork
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("backend returned error status",
			"method", method, "path", path, "status", resp.StatusCode)
		return statusError(resp.StatusCode, resource)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("backend response decode failed", "path", path, "error", err)
		return ErrServer
	}
	return nil
}
