// Package accesscontrol talks to the access-control service that decides
// which persons a caseworker may see, and warms its decision cache in bulk.
package accesscontrol

import (
	"context"
	"fmt"
	"log/slog"

	"syfooversiktsrv/pkg/platform/circuit"
	"syfooversiktsrv/pkg/platform/httpclient"
)

// Client submits batches of idents for cache warming. It satisfies
// jobs.CacheWarmer.
type Client struct {
	http    *httpclient.Client
	baseURL string
}

func New(logger *slog.Logger, baseURL string, tokens httpclient.TokenProvider) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("access control base URL is required")
	}
	return &Client{
		http: httpclient.New(logger,
			httpclient.WithTokenProvider(tokens),
			httpclient.WithBreaker(circuit.New("accesscontrol")),
		),
		baseURL: baseURL,
	}, nil
}

type warmRequest struct {
	Idents []string `json:"personidenter"`
}

// WarmCache asks the access-control service to precompute decisions for the
// given idents.
func (c *Client) WarmCache(ctx context.Context, idents []string) error {
	if len(idents) == 0 {
		return nil
	}
	url := c.baseURL + "/api/v1/access/preload"
	if err := c.http.PostJSON(ctx, url, warmRequest{Idents: idents}, nil); err != nil {
		return fmt.Errorf("warming access cache: %w", err)
	}
	return nil
}
