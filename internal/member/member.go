// Package member resolves card identifiers to makerspace members through the
// membership API: a token from /auth, then an authenticated /user lookup.
package member

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
	"sync"
	"time"
)

// ErrUnauthorized is returned when the API rejects the credentials.
var ErrUnauthorized = errors.New("member: unauthorized")

// Resolver maps a card to a member identity.
type Resolver interface {
	Lookup(ctx context.Context, card string) (string, error)
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Client talks to the membership API. Safe for concurrent use.
type Client struct {
	base     *url.URL
	username string
	password string
	http     *http.Client

	mu    sync.Mutex
	token string
}

// NewClient creates a client for the API at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("member: base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("member: base url %q must be absolute", opts.BaseURL)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		base:     base,
		username: opts.Username,
		password: opts.Password,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string `json:"access_token"`
}

// Lookup returns the member record for a hex card id. A cached token is
// reused; one rejected with 401 is refreshed once.
func (c *Client) Lookup(ctx context.Context, card string) (string, error) {
	token, err := c.currentToken(ctx)
	if err != nil {
		return "", err
	}

	body, err := c.user(ctx, token, card)
	if !errors.Is(err, ErrUnauthorized) {
		return body, err
	}

	c.mu.Lock()
	if c.token == token {
		c.token = ""
	}
	c.mu.Unlock()

	token, err = c.currentToken(ctx)
	if err != nil {
		return "", err
	}
	return c.user(ctx, token, card)
}

func (c *Client) currentToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	token, err := c.authenticate(ctx)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return token, nil
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	payload, err := json.Marshal(authRequest{Username: c.username, Password: c.password})
	if err != nil {
		return "", fmt.Errorf("member: encode auth: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.String()+"/auth", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("member: auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("member: auth: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("member: auth: unexpected status %d", resp.StatusCode)
	}

	var ar authResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", fmt.Errorf("member: decode auth: %w", err)
	}
	if ar.AccessToken == "" {
		return "", errors.New("member: auth: empty access token")
	}
	return ar.AccessToken, nil
}

func (c *Client) user(ctx context.Context, token, card string) (string, error) {
	u := *c.base
	u.Path += "/user"
	u.RawQuery = url.Values{"uid": {card}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("member: user request: %w", err)
	}
	req.Header.Set("Authorization", "JWT "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("member: user: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("member: user %s: unexpected status %d", card, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("member: read user: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}
