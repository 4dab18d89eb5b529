package s0_discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/pkg/httputil"
	"github.com/wonny/quantum/pkg/logger"
)

// FieldSpec maps one JSON feed onto candidates. Paths are dot-separated; numeric segments index arrays.
type FieldSpec struct {
	ItemsPath    string
	NamePath     string
	SymbolPath   string
	IDPath       string
	URLPath      string
	WebsitePath  string
	ChainPath    string
	ContractPath string

	// URLTemplate builds the canonical url when URLPath is empty or missing.
	// Placeholders: {id}, {symbol}, {name}, all lower-cased.
	URLTemplate string
}

// APISource turns a JSON feed into candidates through a FieldSpec
type APISource struct {
	name       string
	endpoint   string
	headers    map[string]string
	spec       FieldSpec
	httpClient *httputil.Client
	logger     *logger.Logger
	now        func() time.Time

	// requireKey makes Fetch fail with ErrMissingConfig when headers lack credentials
	requireKey bool
}

// NewAPISource creates a JSON feed source
func NewAPISource(name, endpoint string, headers map[string]string, spec FieldSpec, httpClient *httputil.Client, log *logger.Logger) *APISource {
	return &APISource{
		name:       name,
		endpoint:   endpoint,
		headers:    headers,
		spec:       spec,
		httpClient: httpClient,
		logger:     log.WithField("source", name),
		now:        time.Now,
	}
}

// Name returns the source tag
func (s *APISource) Name() string {
	return s.name
}

// Fetch downloads the feed and maps every item; items without a url are skipped
func (s *APISource) Fetch(ctx context.Context) ([]contracts.Candidate, error) {
	if s.requireKey {
		return nil, fmt.Errorf("%s: %w: api key", s.name, contracts.ErrMissingConfig)
	}

	var doc interface{}
	if err := s.httpClient.GetJSON(ctx, s.endpoint, s.headers, nil, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}

	items, ok := lookup(doc, s.spec.ItemsPath).([]interface{})
	if !ok {
		s.logger.Warn("Feed shape mismatch, no items array")
		return []contracts.Candidate{}, nil
	}

	now := s.now()
	out := make([]contracts.Candidate, 0, len(items))
	for _, item := range items {
		c := contracts.Candidate{
			Source:          s.name,
			Name:            lookupString(item, s.spec.NamePath),
			Symbol:          lookupString(item, s.spec.SymbolPath),
			Website:         lookupString(item, s.spec.WebsitePath),
			Chain:           lookupString(item, s.spec.ChainPath),
			ContractAddress: lookupString(item, s.spec.ContractPath),
			DiscoveredAt:    now,
		}
		c.URL = lookupString(item, s.spec.URLPath)
		if c.URL == "" {
			c.URL = expandTemplate(s.spec.URLTemplate, lookupString(item, s.spec.IDPath), c.Symbol, c.Name)
		}
		if c.Validate() != nil {
			continue
		}
		out = append(out, c)
	}

	return out, nil
}

// lookup walks a decoded JSON document along a dot path
func lookup(doc interface{}, path string) interface{} {
	if path == "" {
		return doc
	}
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			cur = node[seg]
		case []interface{}:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			cur = node[i]
		default:
			return nil
		}
	}
	return cur
}

func lookupString(doc interface{}, path string) string {
	if path == "" {
		return ""
	}
	switch v := lookup(doc, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func expandTemplate(tmpl, id, symbol, name string) string {
	if tmpl == "" {
		return ""
	}
	if strings.Contains(tmpl, "{id}") && id == "" {
		return ""
	}
	if strings.Contains(tmpl, "{symbol}") && symbol == "" {
		return ""
	}
	if strings.Contains(tmpl, "{name}") && name == "" {
		return ""
	}
	r := strings.NewReplacer(
		"{id}", strings.ToLower(id),
		"{symbol}", strings.ToLower(symbol),
		"{name}", slugify(name),
	)
	return r.Replace(tmpl)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "-")
}
