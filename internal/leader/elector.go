// Package leader answers "is this replica the elected leader?" by polling the
// deployment platform's elector sidecar. Every failure mode answers false:
// maintenance jobs running twice is worse than running late.
package leader

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Checker is the leadership query consumed by the scheduler.
type Checker interface {
	IsLeader(ctx context.Context) bool
}

// Elector polls the platform's current-leader endpoint and compares the
// reported leader name with this replica's hostname.
type Elector struct {
	url     string
	podName string
	client  *http.Client
	logger  *slog.Logger
}

type leaderResponse struct {
	Name string `json:"name"`
}

// New constructs an Elector. url is the sidecar's leader endpoint; podName is
// this replica's hostname as registered with the platform.
func New(url, podName string, logger *slog.Logger) *Elector {
	return &Elector{
		url:     url,
		podName: podName,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

// IsLeader reports whether this replica currently holds leadership.
// Unreachable elector, bad status, or undecodable body all fail closed.
func (e *Elector) IsLeader(ctx context.Context) bool {
	if e.url == "" || e.podName == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		e.logger.Warn("leader election request build failed", "error", err)
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("leader elector unreachable, assuming non-leader", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.Warn("leader elector returned unexpected status, assuming non-leader",
			"status", resp.StatusCode)
		return false
	}

	var leader leaderResponse
	if err := json.NewDecoder(resp.Body).Decode(&leader); err != nil {
		e.logger.Warn("leader elector response undecodable, assuming non-leader", "error", err)
		return false
	}
	return leader.Name == e.podName
}
