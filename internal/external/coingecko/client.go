package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/quantum/pkg/httputil"
	"github.com/wonny/quantum/pkg/logger"
)

// Client handles communication with the CoinGecko API
// ⭐ SSOT: CoinGecko calls go through this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new CoinGecko client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("coingecko"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// chain id → CoinGecko asset platform id
var platforms = map[string]string{
	"ethereum":  "ethereum",
	"eth":       "ethereum",
	"bsc":       "binance-smart-chain",
	"solana":    "solana",
	"base":      "base",
	"polygon":   "polygon-pos",
	"arbitrum":  "arbitrum-one",
	"optimism":  "optimistic-ethereum",
	"avalanche": "avalanche",
}

// Platform maps a chain id to its CoinGecko platform, passing unknown ids through
func Platform(chain string) string {
	chain = strings.ToLower(strings.TrimSpace(chain))
	if p, ok := platforms[chain]; ok {
		return p
	}
	return chain
}

type contractResponse struct {
	ID         string `json:"id"`
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	MarketData *struct {
		MarketCap struct {
			USD float64 `json:"usd"`
		} `json:"market_cap"`
		CirculatingSupply float64  `json:"circulating_supply"`
		TotalSupply       *float64 `json:"total_supply"`
	} `json:"market_data,omitempty"`
}

// Listing is what CoinGecko knows about a listed contract
type Listing struct {
	ID                string
	MarketCapUSD      float64
	CirculatingSupply float64
	TotalSupply       float64
}

// ContractListing looks up a contract. A 404 is (nil, nil); any other failure is returned.
func (c *Client) ContractListing(ctx context.Context, chain, address string) (*Listing, error) {
	endpoint := fmt.Sprintf("%s/coins/%s/contract/%s",
		c.baseURL, url.PathEscape(Platform(chain)), url.PathEscape(strings.ToLower(address)))

	var resp contractResponse
	err := c.httpClient.GetJSON(ctx, endpoint, nil, nil, &resp)
	if errors.Is(err, httputil.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("contract lookup %s/%s: %w", chain, address, err)
	}

	listing := &Listing{ID: resp.ID}
	if resp.MarketData != nil {
		listing.MarketCapUSD = resp.MarketData.MarketCap.USD
		listing.CirculatingSupply = resp.MarketData.CirculatingSupply
		if resp.MarketData.TotalSupply != nil {
			listing.TotalSupply = *resp.MarketData.TotalSupply
		}
	}
	return listing, nil
}
