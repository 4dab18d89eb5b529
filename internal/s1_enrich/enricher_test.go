package s1_enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/external/coingecko"
	"github.com/wonny/quantum/internal/external/dexscreener"
	"github.com/wonny/quantum/internal/external/lplock"
	"github.com/wonny/quantum/internal/external/lunarcrush"
	"github.com/wonny/quantum/internal/external/tokensafety"
	"github.com/wonny/quantum/internal/s2_ratios"
	"github.com/wonny/quantum/internal/s3_decision"
	"github.com/wonny/quantum/pkg/config"
	"github.com/wonny/quantum/pkg/httputil"
	"github.com/wonny/quantum/pkg/logger"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeMarket struct {
	pair  *dexscreener.Pair
	err   error
	calls atomic.Int32
}

func (f *fakeMarket) DeepestPair(ctx context.Context, chain, address string) (*dexscreener.Pair, error) {
	f.calls.Add(1)
	return f.pair, f.err
}

type fakeListings struct {
	listing *coingecko.Listing
	err     error
	calls   atomic.Int32
}

func (f *fakeListings) ContractListing(ctx context.Context, chain, address string) (*coingecko.Listing, error) {
	f.calls.Add(1)
	return f.listing, f.err
}

type fakeSafety struct {
	report *tokensafety.Report
	err    error
	calls  atomic.Int32
}

func (f *fakeSafety) Enabled() bool { return true }
func (f *fakeSafety) Check(ctx context.Context, chain, address string) (*tokensafety.Report, error) {
	f.calls.Add(1)
	return f.report, f.err
}

type fakeLocks struct {
	status   *lplock.Status
	err      error
	calls    atomic.Int32
	lastPair atomic.Value
}

func (f *fakeLocks) Enabled() bool { return true }
func (f *fakeLocks) Check(ctx context.Context, chain, pair string) (*lplock.Status, error) {
	f.calls.Add(1)
	f.lastPair.Store(pair)
	return f.status, f.err
}

type fakeSocial struct {
	social *lunarcrush.Social
	err    error
	calls  atomic.Int32
}

func (f *fakeSocial) Enabled() bool { return true }
func (f *fakeSocial) CoinSocial(ctx context.Context, symbol string) (*lunarcrush.Social, error) {
	f.calls.Add(1)
	return f.social, f.err
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newEnricher(aux Auxiliaries) *Enricher {
	e := New(aux, nil, logger.Nop())
	e.now = func() time.Time { return fixedNow }
	return e
}

func contractCandidate() contracts.Candidate {
	return contracts.Candidate{
		Source:          "dexscreener:ethereum",
		URL:             "https://dexscreener.com/ethereum/0xpair",
		Name:            "Pepe",
		Symbol:          "PEPE",
		Chain:           "ethereum",
		ContractAddress: "0xtoken",
	}
}

func ptr[T any](v T) *T { return &v }

// ============================================================================
// Tests
// ============================================================================

func TestEnrich_FullMapping(t *testing.T) {
	pair := &dexscreener.Pair{
		ChainID:     "ethereum",
		DexID:       "uniswap",
		PairAddress: "0xpair",
		PriceUSD:    "0.0012",
		FDV:         2_000_000,
		MarketCap:   1_000_000,
		CreatedAt:   fixedNow.Add(-6 * time.Hour).UnixMilli(),
	}
	pair.Liquidity.USD = 150_000
	pair.Volume.H24 = 80_000
	pair.PriceChange.H24 = 25

	locks := &fakeLocks{status: &lplock.Status{Locked: true, LockedPercent: 95}}
	e := newEnricher(Auxiliaries{
		Market:   &fakeMarket{pair: pair},
		Listings: &fakeListings{listing: &coingecko.Listing{ID: "pepe", CirculatingSupply: 400, TotalSupply: 1000}},
		Safety: &fakeSafety{report: &tokensafety.Report{
			Verified:          ptr(true),
			TopHoldersPercent: ptr(35.0),
			AuditScore:        ptr(72.0),
			SmartMoneyIndex:   ptr(40.0),
		}},
		LPLock: locks,
		Social: &fakeSocial{social: &lunarcrush.Social{TwitterFollowers: 12000, TelegramMembers: 3000, DiscordMembers: 900, GalaxyScore: 62}},
	})

	ec, err := e.Enrich(context.Background(), contractCandidate())
	require.NoError(t, err)

	s := ec.Signals
	assert.Equal(t, 1_000_000.0, s.Get(contracts.SigMarketCap))
	assert.Equal(t, 2_000_000.0, s.Get(contracts.SigFDV))
	assert.Equal(t, 150_000.0, s.Get(contracts.SigLiquidityUSD))
	assert.Equal(t, 80_000.0, s.Get(contracts.SigTradingVolume))
	assert.InDelta(t, 0.0012, s.Get(contracts.SigPriceUSD), 1e-12)
	assert.InDelta(t, 0.25, s.Get(contracts.SigGrowthMomentum), 1e-12)
	assert.InDelta(t, 6.0, s.Get(contracts.SigPairAgeHours), 1e-9)
	assert.True(t, s.Bool(contracts.SigListed))
	assert.Equal(t, 400.0, s.Get(contracts.SigCirculatingSupply))
	assert.Equal(t, 1000.0, s.Get(contracts.SigTotalSupply))
	assert.True(t, s.Bool(contracts.SigContractVerified))
	assert.InDelta(t, 0.35, s.Get(contracts.SigWhaleConcentration), 1e-12)
	assert.Equal(t, 72.0, s.Get(contracts.SigAuditScore))
	assert.Equal(t, 40.0, s.Get(contracts.SigSmartMoneyIndex))
	assert.True(t, s.Bool(contracts.SigLPLocked))
	assert.Equal(t, 12000.0, s.Get(contracts.SigTwitterFollowers))
	assert.Equal(t, 3000.0, s.Get(contracts.SigTelegramMembers))
	assert.Equal(t, 900.0, s.Get(contracts.SigDiscordMembers))
	assert.InDelta(t, 0.62, s.Get(contracts.SigHypeMomentum), 1e-12)

	assert.Empty(t, ec.Flags)
	assert.Equal(t, "pepe", s.Raw[AuxListing])
	assert.Equal(t, fixedNow, ec.EnrichedAt)
	assert.Equal(t, contractCandidate(), ec.Candidate)
}

func TestEnrich_BestAnswersReachAccept(t *testing.T) {
	pair := &dexscreener.Pair{ChainID: "ethereum", PairAddress: "0xpair", MarketCap: 1_000_000}
	pair.Liquidity.USD = 1_000_000
	pair.Volume.H24 = 1_000_000
	pair.PriceChange.H24 = 500

	e := newEnricher(Auxiliaries{
		Market:   &fakeMarket{pair: pair},
		Listings: &fakeListings{listing: &coingecko.Listing{ID: "pepe"}},
		Safety: &fakeSafety{report: &tokensafety.Report{
			Verified:          ptr(true),
			TopHoldersPercent: ptr(0.0),
			AuditScore:        ptr(100.0),
			SmartMoneyIndex:   ptr(100.0),
		}},
		LPLock: &fakeLocks{status: &lplock.Status{Locked: true}},
		Social: &fakeSocial{social: &lunarcrush.Social{GalaxyScore: 100}},
	})

	ec, err := e.Enrich(context.Background(), contractCandidate())
	require.NoError(t, err)

	d := s3_decision.New(nil).Decide(s2_ratios.Compute(ec), ec.Flags)
	assert.InDelta(t, 90.0, d.Score, 1e-9)
	assert.Equal(t, contracts.VerdictAccept, d.Verdict)
	assert.Equal(t, contracts.RiskLow, d.Risk)
	assert.Equal(t, "x717", d.EstimatedMultiple)
	assert.Equal(t, contracts.ChannelMain, contracts.ChannelFor(d.Verdict))
}

func TestEnrich_WithoutAuditOrSmartMoneyStaysBelowAccept(t *testing.T) {
	pair := &dexscreener.Pair{ChainID: "ethereum", PairAddress: "0xpair", MarketCap: 1_000_000}
	pair.Liquidity.USD = 1_000_000
	pair.Volume.H24 = 1_000_000
	pair.PriceChange.H24 = 500

	e := newEnricher(Auxiliaries{
		Market: &fakeMarket{pair: pair},
		Safety: &fakeSafety{report: &tokensafety.Report{TopHoldersPercent: ptr(0.0)}},
	})

	ec, err := e.Enrich(context.Background(), contractCandidate())
	require.NoError(t, err)
	assert.False(t, ec.Signals.Has(contracts.SigAuditScore))
	assert.False(t, ec.Signals.Has(contracts.SigSmartMoneyIndex))

	d := s3_decision.New(nil).Decide(s2_ratios.Compute(ec), ec.Flags)
	assert.InDelta(t, 50.0, d.Score, 1e-9)
	assert.Equal(t, contracts.VerdictReview, d.Verdict)
}

func TestEnrich_NegativePriceChangeIsZeroMomentum(t *testing.T) {
	pair := &dexscreener.Pair{PairAddress: "0xpair"}
	pair.PriceChange.H24 = -40

	e := newEnricher(Auxiliaries{Market: &fakeMarket{pair: pair}})
	ec, err := e.Enrich(context.Background(), contractCandidate())
	require.NoError(t, err)

	assert.Equal(t, 0.0, ec.Signals.Get(contracts.SigGrowthMomentum))
	assert.True(t, ec.Signals.Has(contracts.SigGrowthMomentum))
	assert.False(t, ec.Signals.Has(contracts.SigPairAgeHours))
}

func TestEnrich_AllAuxiliariesDownMatchesZeroDecision(t *testing.T) {
	down := errors.New("connection refused")
	e := newEnricher(Auxiliaries{
		Market:   &fakeMarket{err: down},
		Listings: &fakeListings{err: down},
		Safety:   &fakeSafety{err: down},
		LPLock:   &fakeLocks{err: down},
		Social:   &fakeSocial{err: down},
	})

	ec, err := e.Enrich(context.Background(), contractCandidate())
	require.NoError(t, err)

	ratios := s2_ratios.Compute(ec)
	assert.Equal(t, contracts.Ratios{}, ratios)

	engine := s3_decision.New(nil)
	got := engine.Decide(ratios, ec.Flags)
	want := engine.Decide(contracts.Ratios{}, nil)
	assert.Equal(t, want.Score, got.Score)
	assert.Equal(t, want.Verdict, got.Verdict)
	assert.Equal(t, want.Risk, got.Risk)

	// a failed listing lookup still marks the project as unlisted
	assert.True(t, ec.Flags.Has(contracts.FlagUnlisted))
	assert.Contains(t, ec.Signals.Raw[AuxMarket+"_error"], "connection refused")
}

func TestEnrich_ServerErrorCountsAsUnlisted(t *testing.T) {
	e := newEnricher(Auxiliaries{
		Listings: &fakeListings{err: &httputil.StatusError{Kind: httputil.ErrServer, StatusCode: 503}},
	})

	ec, err := e.Enrich(context.Background(), contractCandidate())
	require.NoError(t, err)
	assert.True(t, ec.Flags.Has(contracts.FlagUnlisted))
	assert.True(t, ec.Signals.Has(contracts.SigListed))
	assert.False(t, ec.Signals.Bool(contracts.SigListed))
}

func TestEnrich_NotFoundListingIsUnlisted(t *testing.T) {
	e := newEnricher(Auxiliaries{Listings: &fakeListings{}})

	ec, err := e.Enrich(context.Background(), contractCandidate())
	require.NoError(t, err)
	assert.True(t, ec.Flags.Has(contracts.FlagUnlisted))
	assert.Empty(t, ec.Signals.Raw[AuxListing+"_error"])
}

func TestEnrich_ScamFlag(t *testing.T) {
	tests := []struct {
		name   string
		report tokensafety.Report
		want   bool
	}{
		{"scam", tokensafety.Report{IsScam: true}, true},
		{"honeypot", tokensafety.Report{IsHoneypot: true}, true},
		{"clean", tokensafety.Report{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := tt.report
			e := newEnricher(Auxiliaries{Safety: &fakeSafety{report: &report}})

			ec, err := e.Enrich(context.Background(), contractCandidate())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ec.Flags.Has(contracts.FlagScam))

			d := s3_decision.New(nil).Decide(s2_ratios.Compute(ec), ec.Flags)
			if tt.want {
				assert.Equal(t, 0.0, d.Score)
				assert.Equal(t, contracts.VerdictReject, d.Verdict)
			}
		})
	}
}

func TestEnrich_LockUsesMarketPairWhenCandidateHasNone(t *testing.T) {
	locks := &fakeLocks{status: &lplock.Status{Locked: false}}
	e := newEnricher(Auxiliaries{
		Market: &fakeMarket{pair: &dexscreener.Pair{ChainID: "ethereum", PairAddress: "0xdeep"}},
		LPLock: locks,
	})

	ec, err := e.Enrich(context.Background(), contractCandidate())
	require.NoError(t, err)

	assert.Equal(t, int32(1), locks.calls.Load())
	assert.Equal(t, "0xdeep", locks.lastPair.Load())
	assert.True(t, ec.Flags.Has(contracts.FlagLPUnlocked))
	assert.False(t, ec.Signals.Bool(contracts.SigLPLocked))
}

func TestEnrich_NoContractSkipsContractLookups(t *testing.T) {
	market := &fakeMarket{}
	listings := &fakeListings{}
	safety := &fakeSafety{}
	locks := &fakeLocks{}
	social := &fakeSocial{social: &lunarcrush.Social{TwitterFollowers: 10}}

	e := newEnricher(Auxiliaries{Market: market, Listings: listings, Safety: safety, LPLock: locks, Social: social})

	c := contracts.Candidate{Source: "icodrops", URL: "https://icodrops.com/pepe/", Name: "Pepe", Symbol: "PEPE"}
	ec, err := e.Enrich(context.Background(), c)
	require.NoError(t, err)

	assert.Zero(t, market.calls.Load())
	assert.Zero(t, listings.calls.Load())
	assert.Zero(t, safety.calls.Load())
	assert.Zero(t, locks.calls.Load())
	assert.Equal(t, int32(1), social.calls.Load())

	assert.Empty(t, ec.Flags)
	assert.False(t, ec.Signals.Has(contracts.SigListed))
	assert.Equal(t, 10.0, ec.Signals.Get(contracts.SigTwitterFollowers))
}

func TestEnrich_NoSymbolSkipsSocial(t *testing.T) {
	social := &fakeSocial{}
	e := newEnricher(Auxiliaries{Social: social})

	c := contractCandidate()
	c.Symbol = ""
	_, err := e.Enrich(context.Background(), c)
	require.NoError(t, err)
	assert.Zero(t, social.calls.Load())
}

func TestEnrich_Cancelled(t *testing.T) {
	e := newEnricher(Auxiliaries{Market: &fakeMarket{}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Enrich(ctx, contractCandidate())
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrCancelled)
}

func TestNewFromConfig_AgainstHTTPServers(t *testing.T) {
	var coingeckoPath atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/dex/latest/dex/tokens/"):
			w.Write([]byte(`{"pairs":[
				{"chainId":"ethereum","pairAddress":"0xa","marketCap":500,"liquidity":{"usd":10}},
				{"chainId":"ethereum","pairAddress":"0xb","marketCap":900,"liquidity":{"usd":99}},
				{"chainId":"bsc","pairAddress":"0xc","marketCap":1,"liquidity":{"usd":1000}}
			]}`))
		case strings.HasPrefix(r.URL.Path, "/cg/coins/"):
			coingeckoPath.Store(r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		case strings.HasPrefix(r.URL.Path, "/safety/"):
			w.Write([]byte(`{"is_scam":false,"is_honeypot":true}`))
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer server.Close()

	cfg := &config.Config{
		Fetcher: config.FetcherConfig{MaxRetries: 0, BackoffBase: 1.5, RequestTimeout: 2 * time.Second},
		Sources: config.SourcesConfig{
			DexScreenerBaseURL: server.URL + "/dex",
			CoinGeckoBaseURL:   server.URL + "/cg",
			TokenSafetyURL:     server.URL + "/safety",
		},
	}
	client := httputil.New(cfg, logger.Nop())

	e := NewFromConfig(cfg, client, nil, logger.Nop())
	ec, err := e.Enrich(context.Background(), contractCandidate())
	require.NoError(t, err)

	// deepest ethereum pair wins
	assert.Equal(t, 900.0, ec.Signals.Get(contracts.SigMarketCap))
	assert.Equal(t, "/cg/coins/ethereum/contract/0xtoken", coingeckoPath.Load())
	assert.True(t, ec.Flags.Has(contracts.FlagUnlisted))
	assert.True(t, ec.Flags.Has(contracts.FlagScam))
	// lp lock and social are unconfigured
	assert.False(t, ec.Signals.Has(contracts.SigLPLocked))
	assert.False(t, ec.Signals.Has(contracts.SigTwitterFollowers))
}
