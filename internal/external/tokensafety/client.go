package tokensafety

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/quantum/pkg/httputil"
	"github.com/wonny/quantum/pkg/logger"
)

// Client queries a token-safety API: GET {base}/{chain}/{address}
// ⭐ SSOT: token-safety calls go through this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new token-safety client. An empty baseURL disables it.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("tokensafety"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Enabled reports whether an endpoint is configured
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Report is the safety verdict of one contract. Optional fields are nil when not supplied.
type Report struct {
	IsScam            bool     `json:"is_scam"`
	IsHoneypot        bool     `json:"is_honeypot"`
	Verified          *bool    `json:"verified,omitempty"`
	TopHoldersPercent *float64 `json:"top_holders_percent,omitempty"` // 0..100
	AuditScore        *float64 `json:"audit_score,omitempty"`         // 0..100
	SmartMoneyIndex   *float64 `json:"smart_money_index,omitempty"`   // 0..100, tracked-wallet holding score
}

// Flagged reports whether either scam indicator is set
func (r *Report) Flagged() bool {
	return r.IsScam || r.IsHoneypot
}

// Check fetches the report for a contract
func (c *Client) Check(ctx context.Context, chain, address string) (*Report, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("token safety endpoint not configured")
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(strings.ToLower(chain)), url.PathEscape(address))

	var report Report
	if err := c.httpClient.GetJSON(ctx, endpoint, nil, nil, &report); err != nil {
		return nil, fmt.Errorf("token safety %s/%s: %w", chain, address, err)
	}
	return &report, nil
}
