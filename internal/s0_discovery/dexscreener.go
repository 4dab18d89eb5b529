package s0_discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/external/dexscreener"
	"github.com/wonny/quantum/pkg/logger"
)

// DexSource lists early-stage pairs of one chain
type DexSource struct {
	client *dexscreener.Client
	chain  string
	logger *logger.Logger
	now    func() time.Time
}

// NewDexSource creates the source tagged "dexscreener:<chain>"
func NewDexSource(client *dexscreener.Client, chain string, log *logger.Logger) *DexSource {
	return &DexSource{
		client: client,
		chain:  chain,
		logger: log.WithField("source", "dexscreener:"+chain),
		now:    time.Now,
	}
}

// Name returns the source tag
func (s *DexSource) Name() string {
	return "dexscreener:" + s.chain
}

// Fetch returns pairs aged ≤ 24h with ≥ $5,000 liquidity
func (s *DexSource) Fetch(ctx context.Context) ([]contracts.Candidate, error) {
	pairs, err := s.client.LatestPairs(ctx, s.chain)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}

	now := s.now()
	out := make([]contracts.Candidate, 0, len(pairs))
	for _, p := range pairs {
		if p.PairAddress == "" || !p.IsEarlyStage(now) {
			continue
		}
		out = append(out, contracts.Candidate{
			Source:          s.Name(),
			URL:             dexscreener.PageURL(s.chain, p.PairAddress),
			Name:            p.BaseToken.Name,
			Symbol:          p.BaseToken.Symbol,
			Website:         p.Website(),
			Chain:           s.chain,
			ContractAddress: p.BaseToken.Address,
			PairAddress:     p.PairAddress,
			DiscoveredAt:    now,
		})
	}

	s.logger.WithFields(map[string]interface{}{
		"pairs":       len(pairs),
		"early_stage": len(out),
	}).Debug("DEX pairs filtered")

	return out, nil
}
