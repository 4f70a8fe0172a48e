package client

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

	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotAuthenticated is returned, without contacting the network, when
	// a protected call is made with no stored session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired is returned when refresh fails or a replayed request
	// is rejected again; the token store has been purged by then.
	ErrSessionExpired = errors.New("session expired")
)

// APIError carries the HTTP status and server message of a failed request.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
}

// Client is an authenticated HTTP client for the Tindahan API. The token
// store is injected so every surface shares one implementation of the
// refresh-and-retry protocol.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
	refresh    singleflight.Group
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New constructs a Client against the given base URL.
func New(baseURL string, store TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store exposes the injected token store.
func (c *Client) Store() TokenStore {
	return c.store
}

// do performs a request against a protected endpoint: bearer token attached,
// one coalesced refresh and at most one replay on a 401. A second 401 purges
// the store and fails with ErrSessionExpired rather than looping.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	session, err := c.store.Load()
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNotAuthenticated
	}

	status, err := c.roundTrip(ctx, method, path, body, out, session.AccessToken)
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized {
		return nil
	}

	refreshed, err := c.refreshSession(ctx, session.RefreshToken)
	if err != nil {
		_ = c.store.Clear()
		return ErrSessionExpired
	}

	status, err = c.roundTrip(ctx, method, path, body, out, refreshed.AccessToken)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		_ = c.store.Clear()
		return ErrSessionExpired
	}
	return nil
}

// doPublic performs a request that needs no session.
func (c *Client) doPublic(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.roundTrip(ctx, method, path, body, out, "")
	return err
}

// roundTrip executes one HTTP exchange. A 401 on an authenticated call is
// reported via the returned status so the caller can drive the refresh
// protocol; every other non-2xx becomes an APIError.
func (c *Client) roundTrip(ctx context.Context, method, path string, body, out interface{}, accessToken string) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && accessToken != "" {
		return resp.StatusCode, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &APIError{
			Status:  resp.StatusCode,
			Message: decodeErrorMessage(data),
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

// refreshSession exchanges the refresh token for a new pair and persists it.
// Concurrent 401s share a single in-flight refresh through singleflight, so
// token rotation is never raced from within one client.
func (c *Client) refreshSession(ctx context.Context, failedRefreshToken string) (*Session, error) {
	result, err, _ := c.refresh.Do("refresh", func() (interface{}, error) {
		current, err := c.store.Load()
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, ErrNotAuthenticated
		}

		// Another caller already rotated the pair while this one waited.
		if current.RefreshToken != failedRefreshToken {
			return current, nil
		}

		var resp struct {
			Success      bool   `json:"success"`
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.doPublic(ctx, http.MethodPost, "/api/auth/refresh-token",
			map[string]string{"refreshToken": current.RefreshToken}, &resp); err != nil {
			return nil, err
		}

		updated := &Session{
			User:         current.User,
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
		}
		if err := c.store.Save(updated); err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Session), nil
}

func decodeErrorMessage(data []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
		return envelope.Message
	}
	return strings.TrimSpace(string(data))
}
