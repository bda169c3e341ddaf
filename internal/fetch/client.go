// Package fetch downloads the raw entity catalog from a remote service that
// issues OAuth2 client-credentials tokens.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cognicore/lexmatch/pkg/lexmatch/catalog"
	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
)

// Client fetches the catalog. TokenURL may be empty for endpoints that need
// no authentication.
type Client struct {
	URL          string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string

	HTTPClient *http.Client
	Timeout    time.Duration

	mu    sync.Mutex
	token string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type catalogResponse struct {
	Data *[]catalog.RawEntity `json:"data"`
}

// Fetch returns the records listed under the response's "data" key.
func (c *Client) Fetch(ctx context.Context) ([]catalog.RawEntity, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("fetch: catalog URL required: %w", internalerr.ErrInvalidConfig)
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var payload catalogResponse
	if err := c.do(req, &payload); err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("fetch catalog: response has no data: %w", internalerr.ErrInvalidFormat)
	}
	return *payload.Data, nil
}

// accessToken returns the cached token or requests a new one.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.TokenURL == "" {
		return "", nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("grant_type", "client_credentials")
	if c.Scope != "" {
		form.Set("scope", c.Scope)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok tokenResponse
	if err := c.do(req, &tok); err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("fetch token: no access_token in response: %w", internalerr.ErrInvalidFormat)
	}
	c.token = tok.AccessToken
	return c.token, nil
}

// Reset forgets the cached token.
func (c *Client) Reset() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: %s", internalerr.ErrUpstream, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w: %v", internalerr.ErrInvalidFormat, err)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
