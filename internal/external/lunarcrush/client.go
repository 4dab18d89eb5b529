package lunarcrush

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/quantum/pkg/httputil"
	"github.com/wonny/quantum/pkg/logger"
)

// ErrNoAPIKey is returned by every call when no API key is configured
var ErrNoAPIKey = errors.New("lunarcrush api key not configured")

// Client handles communication with the LunarCrush API
// ⭐ SSOT: LunarCrush calls go through this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates a new LunarCrush client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("lunarcrush"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// AuthHeaders returns the bearer header for raw calls
func (c *Client) AuthHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}

// BaseURL returns the configured API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Social holds the social metrics of one coin
type Social struct {
	TwitterFollowers float64 `json:"twitter_followers"`
	TelegramMembers  float64 `json:"telegram_members"`
	DiscordMembers   float64 `json:"discord_members"`
	GalaxyScore      float64 `json:"galaxy_score"` // 0..100
	AltRank          float64 `json:"alt_rank"`
}

type coinResponse struct {
	Data Social `json:"data"`
}

// CoinSocial fetches social metrics for a symbol
func (c *Client) CoinSocial(ctx context.Context, symbol string) (*Social, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	endpoint := fmt.Sprintf("%s/public/coins/%s/v1", c.baseURL, url.PathEscape(strings.ToLower(symbol)))

	var resp coinResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, c.AuthHeaders(), nil, &resp); err != nil {
		return nil, fmt.Errorf("coin social %s: %w", symbol, err)
	}
	return &resp.Data, nil
}
