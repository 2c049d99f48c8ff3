// Package orgnames resolves organization numbers to display names through
// the enhetsregister, with a Redis read-through cache in front.
package orgnames

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"syfooversiktsrv/internal/platform/redis"
	"syfooversiktsrv/pkg/platform/circuit"
	"syfooversiktsrv/pkg/platform/httpclient"
)

const cacheTTL = 12 * time.Hour

// Client resolves organization names. A nil cache or any cache failure
// degrades to a direct registry lookup; the cache is never load-bearing.
type Client struct {
	http    *httpclient.Client
	cache   *redis.Client
	baseURL string
	logger  *slog.Logger
}

func New(logger *slog.Logger, baseURL string, cache *redis.Client) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("enhetsregister base URL is required")
	}
	return &Client{
		http:    httpclient.New(logger, httpclient.WithBreaker(circuit.New("orgnames"))),
		cache:   cache,
		baseURL: baseURL,
		logger:  logger,
	}, nil
}

type unitResponse struct {
	OrgNumber string `json:"organisasjonsnummer"`
	Name      string `json:"navn"`
}

// Resolve returns the display name registered for an organization number.
func (c *Client) Resolve(ctx context.Context, orgNumber string) (string, error) {
	if name, ok := c.fromCache(ctx, orgNumber); ok {
		return name, nil
	}

	var unit unitResponse
	url := fmt.Sprintf("%s/enhetsregisteret/api/enheter/%s", c.baseURL, orgNumber)
	if err := c.http.GetJSON(ctx, url, &unit); err != nil {
		return "", fmt.Errorf("enhetsregister lookup: %w", err)
	}
	if unit.Name == "" {
		return "", fmt.Errorf("enhetsregister returned empty name for %s", orgNumber)
	}

	c.toCache(ctx, orgNumber, unit.Name)
	return unit.Name, nil
}

func (c *Client) fromCache(ctx context.Context, orgNumber string) (string, bool) {
	return c.cache.GetString(ctx, cacheKey(orgNumber))
}

func (c *Client) toCache(ctx context.Context, orgNumber, name string) {
	if err := c.cache.SetString(ctx, cacheKey(orgNumber), name, cacheTTL); err != nil {
		c.logger.Warn("failed to cache organization name", "orgNumber", orgNumber, "error", err)
	}
}

func cacheKey(orgNumber string) string {
	return "orgname:" + orgNumber
}
