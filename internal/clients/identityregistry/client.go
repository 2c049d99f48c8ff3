// Package identityregistry calls the national identity registry to validate
// idents and to fetch person details for enrichment.
package identityregistry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"syfooversiktsrv/pkg/platform/circuit"
	"syfooversiktsrv/pkg/platform/httpclient"
)

// Client looks up person records in the identity registry. It satisfies
// identity.Registry.
type Client struct {
	http    *httpclient.Client
	baseURL string
}

func New(logger *slog.Logger, baseURL string, tokens httpclient.TokenProvider) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("identity registry base URL is required")
	}
	return &Client{
		http: httpclient.New(logger,
			httpclient.WithTokenProvider(tokens),
			httpclient.WithBreaker(circuit.New("identityregistry")),
		),
		baseURL: baseURL,
	}, nil
}

type personResponse struct {
	Ident     string  `json:"ident"`
	Name      string  `json:"name"`
	Birthdate *string `json:"birthdate"`
	Active    bool    `json:"active"`
}

// IsActive reports whether the registry considers the ident current. Any
// transport or decode failure is returned as an error so callers can abort
// rather than act on a guess.
func (c *Client) IsActive(ctx context.Context, ident string) (bool, error) {
	p, err := c.lookup(ctx, ident)
	if err != nil {
		return false, err
	}
	return p.Active, nil
}

// Details returns the registry's display name and birthdate for an ident.
func (c *Client) Details(ctx context.Context, ident string) (string, *time.Time, error) {
	p, err := c.lookup(ctx, ident)
	if err != nil {
		return "", nil, err
	}

	var birthdate *time.Time
	if p.Birthdate != nil {
		d, err := time.Parse("2006-01-02", *p.Birthdate)
		if err != nil {
			return "", nil, fmt.Errorf("parsing birthdate %q: %w", *p.Birthdate, err)
		}
		birthdate = &d
	}
	return p.Name, birthdate, nil
}

func (c *Client) lookup(ctx context.Context, ident string) (*personResponse, error) {
	var p personResponse
	url := fmt.Sprintf("%s/api/v1/persons/%s", c.baseURL, ident)
	if err := c.http.GetJSON(ctx, url, &p); err != nil {
		return nil, fmt.Errorf("identity registry lookup: %w", err)
	}
	return &p, nil
}
