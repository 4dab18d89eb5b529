package dexscreener

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/quantum/pkg/httputil"
	"github.com/wonny/quantum/pkg/logger"
)

const (
	// EarlyStageMaxAge and EarlyStageMinLiquidityUSD define an early-stage DEX pair
	EarlyStageMaxAge          = 24 * time.Hour
	EarlyStageMinLiquidityUSD = 5000.0
)

// Client handles communication with the DexScreener API
// ⭐ SSOT: DexScreener calls go through this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new DexScreener client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("dexscreener"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Token is the base or quote token of a pair
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Pair is one DEX pair as returned by the API
type Pair struct {
	ChainID       string  `json:"chainId"`
	DexID         string  `json:"dexId"`
	URL           string  `json:"url"`
	PairAddress   string  `json:"pairAddress"`
	BaseToken     Token   `json:"baseToken"`
	QuoteToken    Token   `json:"quoteToken"`
	PriceUSD      string  `json:"priceUsd"`
	FDV           float64 `json:"fdv"`
	MarketCap     float64 `json:"marketCap"`
	CreatedAt     int64   `json:"createdAt"`     // ms, pairs endpoint
	PairCreatedAt int64   `json:"pairCreatedAt"` // ms, tokens endpoint
	Liquidity     struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Info *struct {
		Websites []struct {
			URL string `json:"url"`
		} `json:"websites"`
	} `json:"info,omitempty"`
}

type pairsResponse struct {
	Pairs []Pair `json:"pairs"`
}

// Created returns the pair creation time, zero when unknown
func (p Pair) Created() time.Time {
	ms := p.CreatedAt
	if ms == 0 {
		ms = p.PairCreatedAt
	}
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// AgeHours returns the pair age at now, -1 when creation time is unknown
func (p Pair) AgeHours(now time.Time) float64 {
	created := p.Created()
	if created.IsZero() {
		return -1
	}
	return now.Sub(created).Hours()
}

// IsEarlyStage reports age ≤ 24h and liquidity ≥ $5,000
func (p Pair) IsEarlyStage(now time.Time) bool {
	created := p.Created()
	if created.IsZero() {
		return false
	}
	return now.Sub(created) <= EarlyStageMaxAge && p.Liquidity.USD >= EarlyStageMinLiquidityUSD
}

// Price parses PriceUSD, 0 when absent
func (p Pair) Price() float64 {
	v, err := strconv.ParseFloat(p.PriceUSD, 64)
	if err != nil {
		return 0
	}
	return v
}

// Website returns the first listed website
func (p Pair) Website() string {
	if p.Info == nil || len(p.Info.Websites) == 0 {
		return ""
	}
	return p.Info.Websites[0].URL
}

// PageURL returns the canonical dexscreener page of the pair
func PageURL(chain, pairAddress string) string {
	return fmt.Sprintf("https://dexscreener.com/%s/%s", chain, strings.ToLower(pairAddress))
}

// LatestPairs fetches the newest pairs of one chain
func (c *Client) LatestPairs(ctx context.Context, chain string) ([]Pair, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/pairs/%s", c.baseURL, url.PathEscape(chain))

	var resp pairsResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("latest pairs %s: %w", chain, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"chain": chain,
		"pairs": len(resp.Pairs),
	}).Debug("Fetched latest pairs")

	return resp.Pairs, nil
}

// TokenPairs fetches every pair trading the token at address
func (c *Client) TokenPairs(ctx context.Context, address string) ([]Pair, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, url.PathEscape(address))

	var resp pairsResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("token pairs %s: %w", address, err)
	}
	return resp.Pairs, nil
}

// DeepestPair returns the pair with the most liquidity for address, optionally restricted to chain
func (c *Client) DeepestPair(ctx context.Context, chain, address string) (*Pair, error) {
	pairs, err := c.TokenPairs(ctx, address)
	if err != nil {
		return nil, err
	}

	var best *Pair
	for i := range pairs {
		p := &pairs[i]
		if chain != "" && !strings.EqualFold(p.ChainID, chain) {
			continue
		}
		if best == nil || p.Liquidity.USD > best.Liquidity.USD {
			best = p
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no pairs for %s: %w", address, httputil.ErrNotFound)
	}
	return best, nil
}
