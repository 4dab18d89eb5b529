package s0_discovery

import (
	"regexp"
	"strings"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/external/dexscreener"
	"github.com/wonny/quantum/internal/external/lunarcrush"
	"github.com/wonny/quantum/pkg/config"
	"github.com/wonny/quantum/pkg/httputil"
	"github.com/wonny/quantum/pkg/logger"
)

// Source names
const (
	SourceDexScreener = "dexscreener"
	SourceCoinGecko   = "coingecko"
	SourceCoinList    = "coinlist"
	SourceLunarCrush  = "lunarcrush"
	SourceICODrops    = "icodrops"
	SourceCoinCodex   = "coincodex"
	SourceICOHolder   = "icoholder"
)

// Per-source field maps of the JSON feeds
var (
	coinGeckoTrendingSpec = FieldSpec{
		ItemsPath:   "coins",
		NamePath:    "item.name",
		SymbolPath:  "item.symbol",
		IDPath:      "item.id",
		URLTemplate: "https://www.coingecko.com/en/coins/{id}",
	}

	coinListSpec = FieldSpec{
		ItemsPath:   "token_sales",
		NamePath:    "name",
		SymbolPath:  "symbol",
		IDPath:      "slug",
		WebsitePath: "website",
		URLTemplate: "https://coinlist.co/{id}",
	}

	lunarCrushSpec = FieldSpec{
		ItemsPath:    "data",
		NamePath:     "name",
		SymbolPath:   "symbol",
		IDPath:       "id",
		ChainPath:    "blockchains.0.network",
		ContractPath: "blockchains.0.address",
		URLTemplate:  "https://lunarcrush.com/coins/{symbol}",
	}
)

// Per-source anchor patterns of the HTML listing pages
var (
	icoDropsHref    = regexp.MustCompile(`^(?:https?://(?:www\.)?icodrops\.com)?/[a-z0-9][a-z0-9-]*/?$`)
	icoDropsExclude = regexp.MustCompile(`/(?:category|tag|page|about|contact|faq|blog|ico-stats|whitelist)(?:/|$)`)
	coinCodexHref   = regexp.MustCompile(`^(?:https?://(?:www\.)?coincodex\.com)?/ico/[a-z0-9][a-z0-9-]*/?$`)
	icoHolderHref   = regexp.MustCompile(`^(?:https?://(?:www\.)?icoholder\.com)?/en/[a-z0-9][a-z0-9-]*-\d+$`)
)

// Registry builds the configured sources in registration order
// ⭐ SSOT: the list of discovery sources lives here only
type Registry struct {
	cfg        *config.Config
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewRegistry creates a source registry
func NewRegistry(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Registry {
	return &Registry{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     log.WithComponent("s0_discovery"),
	}
}

// Sources returns every enabled source. SOURCES empty means all; "dexscreener" enables every chain.
// LunarCrush joins the default set only when an API key is configured.
func (r *Registry) Sources() []contracts.Source {
	sc := r.cfg.Sources
	var out []contracts.Source

	dex := dexscreener.NewClient(r.httpClient, r.logger, sc.DexScreenerBaseURL)
	for _, chain := range sc.DexChains {
		name := SourceDexScreener + ":" + chain
		if r.enabled(SourceDexScreener) || r.enabled(name) {
			out = append(out, NewDexSource(dex, chain, r.logger))
		}
	}

	if r.enabled(SourceCoinGecko) {
		endpoint := strings.TrimRight(sc.CoinGeckoBaseURL, "/") + "/search/trending"
		out = append(out, NewAPISource(SourceCoinGecko, endpoint, nil, coinGeckoTrendingSpec, r.httpClient, r.logger))
	}

	if r.enabled(SourceCoinList) {
		out = append(out, NewAPISource(SourceCoinList, sc.CoinListURL, nil, coinListSpec, r.httpClient, r.logger))
	}

	lunar := lunarcrush.NewClient(r.httpClient, r.logger, sc.LunarCrushBaseURL, sc.LunarCrushAPIKey)
	if r.explicit(SourceLunarCrush) || (len(sc.Enabled) == 0 && lunar.Enabled()) {
		src := NewAPISource(SourceLunarCrush, lunar.BaseURL()+"/public/coins/list/v2", lunar.AuthHeaders(), lunarCrushSpec, r.httpClient, r.logger)
		src.requireKey = !lunar.Enabled()
		out = append(out, src)
	}

	htmlSources := []struct {
		name string
		spec HTMLSpec
	}{
		{SourceICODrops, HTMLSpec{PageURL: sc.ICODropsURL, Selector: "a[href]", Href: icoDropsHref, Exclude: icoDropsExclude}},
		{SourceCoinCodex, HTMLSpec{PageURL: sc.CoinCodexURL, Selector: "a[href]", Href: coinCodexHref}},
		{SourceICOHolder, HTMLSpec{PageURL: sc.ICOHolderURL, Selector: "a[href]", Href: icoHolderHref}},
	}
	for _, h := range htmlSources {
		if r.enabled(h.name) && h.spec.PageURL != "" {
			out = append(out, NewHTMLSource(h.name, h.spec, r.httpClient, r.logger))
		}
	}

	return out
}

// Names returns the names of every enabled source
func (r *Registry) Names() []string {
	sources := r.Sources()
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	return names
}

func (r *Registry) enabled(name string) bool {
	return len(r.cfg.Sources.Enabled) == 0 || r.explicit(name)
}

func (r *Registry) explicit(name string) bool {
	for _, n := range r.cfg.Sources.Enabled {
		if strings.EqualFold(strings.TrimSpace(n), name) {
			return true
		}
	}
	return false
}
