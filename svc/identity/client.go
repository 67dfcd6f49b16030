// Package identity is a client for the GoTrue-compatible identity service
// that owns user accounts and issues access tokens.
package identity

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

	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
)

const maxResponseBody = 1 << 20

// Client talks to the identity service REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

func New(cfg Config, opts ...Option) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = cfg.Timeout

	c := &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp creates an account. When the service requires email confirmation the
// returned session has no access token but User is populated.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	raw, err := c.do(ctx, http.MethodPost, "/signup", "", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Join(ErrInvalidResponse, err)
	}
	if s.AccessToken == "" && s.User.ID == uuid.Nil {
		// Confirmation flow answers with the bare user object.
		if err := json.Unmarshal(raw, &s.User); err != nil {
			return nil, errors.Join(ErrInvalidResponse, err)
		}
	}
	return &s, nil
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.token(ctx, "password", credentials{Email: email, Password: password})
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrMissingToken
	}
	return c.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

// SignOut revokes the access token's session on the service.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return ErrMissingToken
	}
	_, err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil)
	return err
}

func (c *Client) token(ctx context.Context, grant string, body any) (*Session, error) {
	raw, err := c.do(ctx, http.MethodPost, "/token?grant_type="+url.QueryEscape(grant), "", body)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Join(ErrInvalidResponse, err)
	}
	if s.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token in grant", ErrInvalidResponse)
	}
	return &s, nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Join(ErrRequestFailed, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.Unmarshal(raw, &apiErr)
		return nil, apiErr.toError(resp.StatusCode)
	}
	return raw, nil
}
