package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"
)

// EndpointProvider posts checkout requests to an HTTP function that answers
// with {"url": "..."}. Requests carry the user's access token as a bearer.
type EndpointProvider struct {
	url  string
	base *http.Client
}

type EndpointOption func(*EndpointProvider)

// WithEndpointClient replaces the pooled default client. Its transport is
// wrapped with bearer authentication.
func WithEndpointClient(c *http.Client) EndpointOption {
	return func(p *EndpointProvider) {
		if c != nil {
			p.base = c
		}
	}
}

func NewEndpointProvider(cfg Config, opts ...EndpointOption) *EndpointProvider {
	base := cleanhttp.DefaultPooledClient()
	base.Timeout = cfg.Timeout

	p := &EndpointProvider{url: cfg.URL, base: base}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type endpointRequest struct {
	PriceID    string `json:"price_id"`
	Mode       Mode   `json:"mode"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type endpointResponse struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

func (p *EndpointProvider) CreateCheckout(ctx context.Context, req Request) (string, error) {
	if req.Credentials == nil || req.Credentials.AccessToken == "" {
		return "", ErrUnauthenticated
	}

	payload, err := json.Marshal(endpointRequest{
		PriceID:    req.PriceID,
		Mode:       req.Mode,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		return "", errors.Join(ErrCheckoutFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Join(ErrCheckoutFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client(req.Credentials).Do(httpReq)
	if err != nil {
		return "", errors.Join(ErrCheckoutFailed, err)
	}
	defer resp.Body.Close()

	var body endpointResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil && resp.StatusCode < 300 {
		return "", errors.Join(ErrCheckoutFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d %s", ErrCheckoutFailed, resp.StatusCode, body.Error)
	}
	if body.URL == "" {
		return "", fmt.Errorf("%w: empty url", ErrCheckoutFailed)
	}
	return body.URL, nil
}

func (p *EndpointProvider) client(tok *oauth2.Token) *http.Client {
	// Only the access token is forwarded; refresh is handled by the session layer.
	static := &oauth2.Token{AccessToken: tok.AccessToken, TokenType: "Bearer"}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(static),
			Base:   p.base.Transport,
		},
		Timeout: p.base.Timeout,
	}
}
