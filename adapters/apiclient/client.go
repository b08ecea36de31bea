// Package apiclient talks to the folio HTTP API on behalf of one signed-in
// user. Every call carries the session token as a bearer header.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/profile"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for baseURL. token may be empty and set later by
// Login or SetToken.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Token() string { return c.token }

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Login exchanges credentials for a session token and keeps it.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.send(ctx, http.MethodPost, "/api/auth/login", body, &out, false); err != nil {
		return err
	}
	c.token = out.AccessToken
	return nil
}

// Logout revokes the session server side and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.send(ctx, http.MethodPost, "/api/auth/logout", nil, nil, true); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// Profile returns the signed-in user's profile, or nil if none exists yet.
func (c *Client) Profile(ctx context.Context) (*profile.Profile, error) {
	var out struct {
		Profile *profile.Profile `json:"profile"`
	}
	if err := c.send(ctx, http.MethodGet, "/api/profile", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Profile, nil
}

func (c *Client) SaveProfile(ctx context.Context, p profile.Profile) (*profile.Profile, error) {
	p.Username = profile.NormalizeUsername(p.Username)
	if err := p.Validate(); err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}
	var out struct {
		Profile *profile.Profile `json:"profile"`
	}
	if err := c.send(ctx, http.MethodPut, "/api/profile", p, &out, true); err != nil {
		return nil, err
	}
	return out.Profile, nil
}

// Public fetches the public page data for username. No session is needed.
func (c *Client) Public(ctx context.Context, username string) (*profile.Public, error) {
	var out profile.Public
	if err := c.send(ctx, http.MethodGet, "/api/public/"+username, nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// send encodes body as JSON and decodes a 2xx response into out. authed
// calls fail with Unauthorized before any request when there is no token.
func (c *Client) send(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return apperror.NewInternal("failed to encode request", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := c.newRequest(ctx, method, path, reader, authed)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, authed bool) (*http.Request, error) {
	if authed && c.token == "" {
		return nil, apperror.NewUnauthorized("no active session", nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apperror.NewInternal("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.NewTransport(fmt.Sprintf("%s %s", req.Method, req.URL.Path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperror.NewTransport("failed to decode response", err)
		}
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil || eb.Error == "" {
		eb.Error = strings.TrimSpace(string(raw))
	}
	c.logger.Warn("API request failed",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
	)
	return statusError(resp.StatusCode, eb.Error)
}

// statusError maps a failed response back onto the apperror categories the
// server rendered it from.
func statusError(status int, msg string) error {
	switch status {
	case http.StatusBadRequest:
		return apperror.NewInvalidInput(msg, nil)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperror.NewUnauthorized(msg, nil)
	case http.StatusNotFound:
		return apperror.NewAppError(apperror.ErrNotFound, msg, msg, nil)
	}
	return apperror.NewTransport(fmt.Sprintf("status %d: %s", status, msg), nil)
}
