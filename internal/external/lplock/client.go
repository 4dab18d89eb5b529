package lplock

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/quantum/pkg/httputil"
	"github.com/wonny/quantum/pkg/logger"
)

// Client asks an LP-lock service whether a pair's liquidity is locked: GET {base}/{chain}/{pair}
// ⭐ SSOT: LP-lock calls go through this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new LP-lock client. An empty baseURL disables it.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("lplock"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Enabled reports whether an endpoint is configured
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

type lockResponse struct {
	Locked        bool    `json:"locked"`
	LockedPercent float64 `json:"locked_percent"`
}

// Status is the lock state of a pair
type Status struct {
	Locked        bool
	LockedPercent float64
}

// Check fetches the lock state of a pair
func (c *Client) Check(ctx context.Context, chain, pairAddress string) (*Status, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("lp lock endpoint not configured")
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(strings.ToLower(chain)), url.PathEscape(pairAddress))

	var resp lockResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("lp lock %s/%s: %w", chain, pairAddress, err)
	}
	return &Status{Locked: resp.Locked, LockedPercent: resp.LockedPercent}, nil
}
