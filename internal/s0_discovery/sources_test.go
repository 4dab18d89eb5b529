package s0_discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/external/dexscreener"
	"github.com/wonny/quantum/pkg/config"
	"github.com/wonny/quantum/pkg/httputil"
	"github.com/wonny/quantum/pkg/logger"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testHTTP() *httputil.Client {
	cfg := &config.Config{Fetcher: config.FetcherConfig{MaxRetries: 0, BackoffBase: 1, RequestTimeout: time.Second}}
	return httputil.New(cfg, logger.Nop())
}

func TestDexSource_FiltersEarlyStage(t *testing.T) {
	fresh := fixedNow.Add(-3 * time.Hour).UnixMilli()
	old := fixedNow.Add(-48 * time.Hour).UnixMilli()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/pairs/ethereum", r.URL.Path)
		_, _ = fmt.Fprintf(w, `{"pairs":[
			{"pairAddress":"0xFRESH","baseToken":{"name":"Fresh","symbol":"FRS","address":"0xt1"},"liquidity":{"usd":8000},"createdAt":%d},
			{"pairAddress":"0xOLD","baseToken":{"name":"Old","symbol":"OLD","address":"0xt2"},"liquidity":{"usd":80000},"createdAt":%d},
			{"pairAddress":"0xTHIN","baseToken":{"name":"Thin","symbol":"THN","address":"0xt3"},"liquidity":{"usd":100},"createdAt":%d}
		]}`, fresh, old, fresh)
	}))
	defer server.Close()

	src := NewDexSource(dexscreener.NewClient(testHTTP(), logger.Nop(), server.URL), "ethereum", logger.Nop())
	src.now = func() time.Time { return fixedNow }

	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, "dexscreener:ethereum", c.Source)
	assert.Equal(t, "https://dexscreener.com/ethereum/0xfresh", c.URL)
	assert.Equal(t, "Fresh", c.Name)
	assert.Equal(t, "0xt1", c.ContractAddress)
	assert.Equal(t, "0xFRESH", c.PairAddress)
	assert.Equal(t, "ethereum", c.Chain)
	assert.Equal(t, fixedNow, c.DiscoveredAt)
}

func TestDexSource_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := NewDexSource(dexscreener.NewClient(testHTTP(), logger.Nop(), server.URL), "bsc", logger.Nop())
	got, err := src.Fetch(context.Background())
	assert.ErrorIs(t, err, httputil.ErrServer)
	assert.Empty(t, got)
}

func TestAPISource_CoinGeckoTrending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"coins":[
			{"item":{"id":"pepe-2","name":"Pepe 2","symbol":"PEPE2"}},
			{"item":{"name":"No Id"}},
			{"item":{"id":"wif","name":"dogwifhat","symbol":"WIF"}}
		]}`)
	}))
	defer server.Close()

	src := NewAPISource(SourceCoinGecko, server.URL, nil, coinGeckoTrendingSpec, testHTTP(), logger.Nop())
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://www.coingecko.com/en/coins/pepe-2", got[0].URL)
	assert.Equal(t, "PEPE2", got[0].Symbol)
	assert.Equal(t, "coingecko", got[0].Source)
	assert.Equal(t, "https://www.coingecko.com/en/coins/wif", got[1].URL)
}

func TestAPISource_ShapeMismatchIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"unexpected":true}`)
	}))
	defer server.Close()

	src := NewAPISource(SourceCoinList, server.URL, nil, coinListSpec, testHTTP(), logger.Nop())
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAPISource_LunarCrushNestedPaths(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = fmt.Fprint(w, `{"data":[{"id":1,"name":"Foo","symbol":"FOO","blockchains":[{"network":"ethereum","address":"0xfoo"}]}]}`)
	}))
	defer server.Close()

	src := NewAPISource(SourceLunarCrush, server.URL, map[string]string{"Authorization": "Bearer k"}, lunarCrushSpec, testHTTP(), logger.Nop())
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://lunarcrush.com/coins/foo", got[0].URL)
	assert.Equal(t, "ethereum", got[0].Chain)
	assert.Equal(t, "0xfoo", got[0].ContractAddress)
}

func TestLookup(t *testing.T) {
	doc := map[string]interface{}{
		"a": []interface{}{
			map[string]interface{}{"b": "x", "n": float64(42)},
		},
	}
	assert.Equal(t, "x", lookupString(doc, "a.0.b"))
	assert.Equal(t, "42", lookupString(doc, "a.0.n"))
	assert.Equal(t, "", lookupString(doc, "a.1.b"))
	assert.Equal(t, "", lookupString(doc, "a.zero.b"))
	assert.Nil(t, lookup(doc, "missing.path"))
}

func TestExpandTemplate(t *testing.T) {
	assert.Equal(t, "https://x/abc", expandTemplate("https://x/{id}", "ABC", "", ""))
	assert.Equal(t, "", expandTemplate("https://x/{id}", "", "S", "N"))
	assert.Equal(t, "https://x/my-coin", expandTemplate("https://x/{name}", "", "", " My  Coin "))
}

func newHTMLServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, body)
	}))
}

func TestHTMLSource_ICODrops(t *testing.T) {
	page := `<html><body>
		<a href="/category/upcoming-ico/">Upcoming</a>
		<a href="/alpha-protocol/"><span>Alpha</span> Protocol</a>
		<a href="/alpha-protocol/#team">dup with fragment</a>
		<a href="https://icodrops.com/beta-chain/" title="Beta Chain"></a>
		<a href="https://twitter.com/icodrops">twitter</a>
		<a href="/faq/">FAQ</a>
	</body></html>`
	server := newHTMLServer(t, page)
	defer server.Close()

	spec := HTMLSpec{PageURL: server.URL + "/category/upcoming-ico/", Selector: "a[href]", Href: icoDropsHref, Exclude: icoDropsExclude}
	src := NewHTMLSource(SourceICODrops, spec, testHTTP(), logger.Nop())

	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, server.URL+"/alpha-protocol/", got[0].URL)
	assert.Equal(t, "Alpha Protocol", got[0].Name)
	assert.Equal(t, "icodrops", got[0].Source)
	assert.Equal(t, "https://icodrops.com/beta-chain/", got[1].URL)
	assert.Equal(t, "Beta Chain", got[1].Name)
}

func TestHTMLSource_CapsAtFifteen(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, `<a href="/ico/project-%d/">Project %d</a>`, i, i)
	}
	b.WriteString("</body></html>")

	server := newHTMLServer(t, b.String())
	defer server.Close()

	spec := HTMLSpec{PageURL: server.URL + "/ico-calendar/", Selector: "a[href]", Href: coinCodexHref}
	got, err := NewHTMLSource(SourceCoinCodex, spec, testHTTP(), logger.Nop()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, MaxHTMLItems)
	assert.Equal(t, server.URL+"/ico/project-0/", got[0].URL)
}

func TestHTMLSource_LayoutMismatchIsEmpty(t *testing.T) {
	server := newHTMLServer(t, `<html><body><div>redesigned page</div></body></html>`)
	defer server.Close()

	spec := HTMLSpec{PageURL: server.URL + "/en/icos/upcoming", Selector: "a[href]", Href: icoHolderHref}
	got, err := NewHTMLSource(SourceICOHolder, spec, testHTTP(), logger.Nop()).Fetch(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHTMLSource_ICOHolderPattern(t *testing.T) {
	assert.True(t, icoHolderHref.MatchString("/en/gamma-token-12345"))
	assert.True(t, icoHolderHref.MatchString("https://icoholder.com/en/gamma-token-12345"))
	assert.False(t, icoHolderHref.MatchString("/en/icos/upcoming"))
}

func registryConfig(enabled []string, lunarKey string) *config.Config {
	return &config.Config{
		Sources: config.SourcesConfig{
			Enabled:            enabled,
			DexChains:          []string{"ethereum", "solana"},
			DexScreenerBaseURL: "https://api.dexscreener.com",
			CoinGeckoBaseURL:   "https://api.coingecko.com/api/v3",
			CoinListURL:        "https://coinlist.co/api/v1/token_sales",
			LunarCrushBaseURL:  "https://lunarcrush.com/api4",
			LunarCrushAPIKey:   lunarKey,
			ICODropsURL:        "https://icodrops.com/category/upcoming-ico/",
			CoinCodexURL:       "https://coincodex.com/ico-calendar/",
			ICOHolderURL:       "https://icoholder.com/en/icos/upcoming",
		},
	}
}

func TestRegistry_DefaultsToAll(t *testing.T) {
	names := NewRegistry(registryConfig(nil, ""), testHTTP(), logger.Nop()).Names()
	assert.Equal(t, []string{
		"dexscreener:ethereum", "dexscreener:solana",
		"coingecko", "coinlist",
		"icodrops", "coincodex", "icoholder",
	}, names)

	names = NewRegistry(registryConfig(nil, "key"), testHTTP(), logger.Nop()).Names()
	assert.Contains(t, names, "lunarcrush")
}

func TestRegistry_Filtered(t *testing.T) {
	names := NewRegistry(registryConfig([]string{"dexscreener:solana", "icodrops"}, ""), testHTTP(), logger.Nop()).Names()
	assert.Equal(t, []string{"dexscreener:solana", "icodrops"}, names)
}

func TestRegistry_LunarCrushWithoutKey(t *testing.T) {
	sources := NewRegistry(registryConfig([]string{"lunarcrush"}, ""), testHTTP(), logger.Nop()).Sources()
	require.Len(t, sources, 1)

	got, err := sources[0].Fetch(context.Background())
	assert.ErrorIs(t, err, contracts.ErrMissingConfig)
	assert.Empty(t, got)
}
