// Package token fetches and caches client-credentials access tokens for the
// outbound platform clients.
package token

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
)

// expirySlack is subtracted from the advertised lifetime so a token is never
// handed out moments before it lapses server-side.
const expirySlack = 30 * time.Second

// Config identifies this service towards the token endpoint.
type Config struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
}

// Provider exchanges client credentials for a bearer token and caches it
// until shortly before expiry. It satisfies httpclient.TokenProvider.
type Provider struct {
	cfg  Config
	http *http.Client
	now  func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func New(cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("token endpoint, client id and client secret are required")
	}
	return &Provider{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
		now:  time.Now,
	}, nil
}

// Token returns a valid cached token or fetches a fresh one.
func (p *Provider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Before(p.expires) {
		return p.token, nil
	}

	tok, ttl, err := p.fetch(ctx)
	if err != nil {
		return "", err
	}
	p.token = tok
	p.expires = p.now().Add(ttl - expirySlack)
	return tok, nil
}

func (p *Provider) fetch(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", 0, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", 0, fmt.Errorf("decoding token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", 0, fmt.Errorf("token endpoint returned empty access_token")
	}

	ttl := time.Duration(payload.ExpiresIn) * time.Second
	if ttl <= expirySlack {
		ttl = time.Minute
	}
	return payload.AccessToken, ttl, nil
}
