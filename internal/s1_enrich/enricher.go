package s1_enrich

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/external/coingecko"
	"github.com/wonny/quantum/internal/external/dexscreener"
	"github.com/wonny/quantum/internal/external/lplock"
	"github.com/wonny/quantum/internal/external/lunarcrush"
	"github.com/wonny/quantum/internal/external/tokensafety"
	"github.com/wonny/quantum/pkg/config"
	"github.com/wonny/quantum/pkg/httputil"
	"github.com/wonny/quantum/pkg/logger"
	"github.com/wonny/quantum/pkg/redis"
)

// Auxiliary names, used as cache key and raw-status prefixes
const (
	AuxMarket  = "market"
	AuxListing = "listing"
	AuxSafety  = "safety"
	AuxLPLock  = "lplock"
	AuxSocial  = "social"
)

// MarketData resolves the deepest pair of a contract
type MarketData interface {
	DeepestPair(ctx context.Context, chain, address string) (*dexscreener.Pair, error)
}

// Listings resolves the exchange listing of a contract; (nil, nil) means not listed
type Listings interface {
	ContractListing(ctx context.Context, chain, address string) (*coingecko.Listing, error)
}

// Safety resolves scam and honeypot indicators of a contract
type Safety interface {
	Enabled() bool
	Check(ctx context.Context, chain, address string) (*tokensafety.Report, error)
}

// LPLocks resolves the liquidity lock state of a pair
type LPLocks interface {
	Enabled() bool
	Check(ctx context.Context, chain, pairAddress string) (*lplock.Status, error)
}

// Social resolves social metrics of a symbol
type Social interface {
	Enabled() bool
	CoinSocial(ctx context.Context, symbol string) (*lunarcrush.Social, error)
}

// Auxiliaries groups the lookups; a nil member is skipped
type Auxiliaries struct {
	Market   MarketData
	Listings Listings
	Safety   Safety
	LPLock   LPLocks
	Social   Social
}

// Enricher implements contracts.Enricher
// ⭐ SSOT: S1 signal resolution. Auxiliary failures degrade to defaults.
type Enricher struct {
	aux    Auxiliaries
	cache  *redis.Cache
	logger *logger.Logger
	now    func() time.Time
}

// New creates an enricher; cache may be nil
func New(aux Auxiliaries, cache *redis.Cache, log *logger.Logger) *Enricher {
	return &Enricher{
		aux:    aux,
		cache:  cache,
		logger: log.WithComponent("s1_enrich"),
		now:    time.Now,
	}
}

// NewFromConfig wires the configured auxiliary clients
func NewFromConfig(cfg *config.Config, http *httputil.Client, cache *redis.Cache, log *logger.Logger) *Enricher {
	src := cfg.Sources
	return New(Auxiliaries{
		Market:   dexscreener.NewClient(http, log, src.DexScreenerBaseURL),
		Listings: coingecko.NewClient(http, log, src.CoinGeckoBaseURL),
		Safety:   tokensafety.NewClient(http, log, src.TokenSafetyURL),
		LPLock:   lplock.NewClient(http, log, src.LPLockURL),
		Social:   lunarcrush.NewClient(http, log, src.LunarCrushBaseURL, src.LunarCrushAPIKey),
	}, cache, log)
}

// lookups holds one field per auxiliary; each goroutine writes only its own
type lookups struct {
	pair       *dexscreener.Pair
	marketErr  error
	listing    *coingecko.Listing
	listingErr error
	listingRun bool
	safety     *tokensafety.Report
	safetyErr  error
	lock       *lplock.Status
	lockErr    error
	social     *lunarcrush.Social
	socialErr  error
}

// Enrich resolves signals for c. The only error is cancellation.
func (e *Enricher) Enrich(ctx context.Context, c contracts.Candidate) (contracts.EnrichedCandidate, error) {
	out := contracts.EnrichedCandidate{Candidate: c}
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("enrich %s: %w", c.URL, contracts.ErrCancelled)
	}

	var (
		res lookups
		g   errgroup.Group
	)

	if c.HasContract() {
		g.Go(func() error {
			if e.aux.Market != nil {
				res.pair, res.marketErr = cached(ctx, e, AuxMarket, c.Chain, c.ContractAddress, redis.TTLShort,
					func(ctx context.Context) (*dexscreener.Pair, error) {
						return e.aux.Market.DeepestPair(ctx, c.Chain, c.ContractAddress)
					})
			}
			// the lock lookup needs a pair, taken from the candidate or the market answer
			if e.aux.LPLock != nil && e.aux.LPLock.Enabled() {
				pair := c.PairAddress
				if pair == "" && res.pair != nil {
					pair = res.pair.PairAddress
				}
				chain := c.Chain
				if chain == "" && res.pair != nil {
					chain = res.pair.ChainID
				}
				if pair != "" {
					res.lock, res.lockErr = cached(ctx, e, AuxLPLock, chain, pair, redis.TTLMedium,
						func(ctx context.Context) (*lplock.Status, error) {
							return e.aux.LPLock.Check(ctx, chain, pair)
						})
				}
			}
			return nil
		})

		if e.aux.Listings != nil {
			res.listingRun = true
			g.Go(func() error {
				res.listing, res.listingErr = cached(ctx, e, AuxListing, c.Chain, c.ContractAddress, redis.TTLMedium,
					func(ctx context.Context) (*coingecko.Listing, error) {
						return e.aux.Listings.ContractListing(ctx, c.Chain, c.ContractAddress)
					})
				return nil
			})
		}

		if e.aux.Safety != nil && e.aux.Safety.Enabled() {
			g.Go(func() error {
				res.safety, res.safetyErr = cached(ctx, e, AuxSafety, c.Chain, c.ContractAddress, redis.TTLLong,
					func(ctx context.Context) (*tokensafety.Report, error) {
						return e.aux.Safety.Check(ctx, c.Chain, c.ContractAddress)
					})
				return nil
			})
		}
	}

	if e.aux.Social != nil && e.aux.Social.Enabled() && c.Symbol != "" {
		g.Go(func() error {
			res.social, res.socialErr = cached(ctx, e, AuxSocial, "", c.Symbol, redis.TTLMedium,
				func(ctx context.Context) (*lunarcrush.Social, error) {
					return e.aux.Social.CoinSocial(ctx, c.Symbol)
				})
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("enrich %s: %w", c.URL, contracts.ErrCancelled)
	}

	e.apply(&out, &res)
	out.EnrichedAt = e.now()

	e.logger.WithFields(map[string]interface{}{
		"url":     c.URL,
		"signals": out.Signals.PresentCount(),
		"flags":   len(out.Flags),
	}).Debug("Candidate enriched")

	return out, nil
}

// apply maps lookup results onto signals and flags
func (e *Enricher) apply(out *contracts.EnrichedCandidate, res *lookups) {
	s := &out.Signals

	if p := res.pair; p != nil {
		s.Set(contracts.SigMarketCap, p.MarketCap)
		s.Set(contracts.SigFDV, p.FDV)
		s.Set(contracts.SigLiquidityUSD, p.Liquidity.USD)
		s.Set(contracts.SigTradingVolume, p.Volume.H24)
		s.Set(contracts.SigPriceUSD, p.Price())
		s.Set(contracts.SigGrowthMomentum, math.Max(0, p.PriceChange.H24/100))
		if age := p.AgeHours(e.now()); age >= 0 {
			s.Set(contracts.SigPairAgeHours, age)
		}
		s.SetRaw(AuxMarket, p.DexID)
	}
	e.note(out, AuxMarket, res.marketErr)

	if res.listingRun {
		if l := res.listing; l != nil && res.listingErr == nil {
			s.SetBool(contracts.SigListed, true)
			s.SetRaw(AuxListing, l.ID)
			if !s.Has(contracts.SigMarketCap) && l.MarketCapUSD > 0 {
				s.Set(contracts.SigMarketCap, l.MarketCapUSD)
			}
			if l.CirculatingSupply > 0 {
				s.Set(contracts.SigCirculatingSupply, l.CirculatingSupply)
			}
			if l.TotalSupply > 0 {
				s.Set(contracts.SigTotalSupply, l.TotalSupply)
			}
		} else {
			// any failure counts as not listed, 5xx included
			s.SetBool(contracts.SigListed, false)
			out.Flags = out.Flags.With(contracts.FlagUnlisted)
			e.note(out, AuxListing, res.listingErr)
		}
	}

	if r := res.safety; r != nil {
		s.SetBool(contracts.SigIsScam, r.IsScam)
		s.SetBool(contracts.SigIsHoneypot, r.IsHoneypot)
		if r.Verified != nil {
			s.SetBool(contracts.SigContractVerified, *r.Verified)
		}
		if r.TopHoldersPercent != nil {
			s.Set(contracts.SigWhaleConcentration, *r.TopHoldersPercent/100)
		}
		if r.AuditScore != nil {
			s.Set(contracts.SigAuditScore, *r.AuditScore)
		}
		if r.SmartMoneyIndex != nil {
			s.Set(contracts.SigSmartMoneyIndex, *r.SmartMoneyIndex)
		}
		if r.Flagged() {
			out.Flags = out.Flags.With(contracts.FlagScam)
		}
	}
	e.note(out, AuxSafety, res.safetyErr)

	if l := res.lock; l != nil {
		s.SetBool(contracts.SigLPLocked, l.Locked)
		if !l.Locked {
			out.Flags = out.Flags.With(contracts.FlagLPUnlocked)
		}
	}
	e.note(out, AuxLPLock, res.lockErr)

	if soc := res.social; soc != nil {
		s.Set(contracts.SigTwitterFollowers, soc.TwitterFollowers)
		s.Set(contracts.SigTelegramMembers, soc.TelegramMembers)
		s.Set(contracts.SigDiscordMembers, soc.DiscordMembers)
		if soc.GalaxyScore > 0 {
			s.Set(contracts.SigHypeMomentum, soc.GalaxyScore/100)
		}
	}
	e.note(out, AuxSocial, res.socialErr)
}

// note records an absorbed auxiliary failure
func (e *Enricher) note(out *contracts.EnrichedCandidate, aux string, err error) {
	if err == nil {
		return
	}
	out.Signals.SetRaw(aux+"_error", err.Error())
	e.logger.WithFields(map[string]interface{}{
		"url":    out.Candidate.URL,
		"aux":    aux,
		"status": httputil.StatusCode(err),
	}).WithError(err).Debug("Auxiliary lookup failed, using defaults")
}

// cached runs fetch behind the enrichment cache; only non-nil successes are stored
func cached[T any](ctx context.Context, e *Enricher, aux, chain, subject string, ttl time.Duration,
	fetch func(context.Context) (*T, error)) (*T, error) {
	key := redis.EnrichmentKey(aux, chain, subject)

	var hit T
	if ok, err := e.cache.Get(ctx, key, &hit); err == nil && ok {
		return &hit, nil
	}

	v, err := fetch(ctx)
	if err != nil || v == nil {
		return v, err
	}

	if err := e.cache.Set(ctx, key, v, ttl); err != nil {
		e.logger.WithError(err).Debug("Enrichment cache write failed")
	}
	return v, nil
}

var _ contracts.Enricher = (*Enricher)(nil)
