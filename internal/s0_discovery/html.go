package s0_discovery

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/pkg/httputil"
	"github.com/wonny/quantum/pkg/logger"
)

// MaxHTMLItems caps each listing page to bound the blast radius of parser drift
const MaxHTMLItems = 15

// HTMLSpec describes where project links sit on a listing page
type HTMLSpec struct {
	PageURL  string
	Selector string         // anchors to inspect
	Href     *regexp.Regexp // accepted project hrefs (matched against the raw attribute)
	Exclude  *regexp.Regexp // optional rejects, e.g. category pages
}

// HTMLSource scrapes (name, url) pairs from a listing page
type HTMLSource struct {
	name       string
	spec       HTMLSpec
	httpClient *httputil.Client
	logger     *logger.Logger
	now        func() time.Time
}

// NewHTMLSource creates a listing-page source
func NewHTMLSource(name string, spec HTMLSpec, httpClient *httputil.Client, log *logger.Logger) *HTMLSource {
	return &HTMLSource{
		name:       name,
		spec:       spec,
		httpClient: httpClient,
		logger:     log.WithField("source", name),
		now:        time.Now,
	}
}

// Name returns the source tag
func (s *HTMLSource) Name() string {
	return s.name
}

// Fetch downloads the page; fetch failures are errors, parse mismatches are an empty slice
func (s *HTMLSource) Fetch(ctx context.Context) ([]contracts.Candidate, error) {
	page, err := s.httpClient.GetText(ctx, s.spec.PageURL, map[string]string{
		"Accept": "text/html,application/xhtml+xml",
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}

	out := s.parse(page)
	if len(out) == 0 {
		s.logger.Warn("No project links matched, page layout may have changed")
	}
	return out, nil
}

// parse extracts up to MaxHTMLItems unique project links
func (s *HTMLSource) parse(page string) []contracts.Candidate {
	out := []contracts.Candidate{}

	base, err := url.Parse(s.spec.PageURL)
	if err != nil {
		return out
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return out
	}

	now := s.now()
	seen := make(map[string]bool)
	doc.Find(s.spec.Selector).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" || !s.spec.Href.MatchString(href) {
			return true
		}
		if s.spec.Exclude != nil && s.spec.Exclude.MatchString(href) {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		abs.RawQuery = ""
		link := abs.String()
		if seen[link] {
			return true
		}
		seen[link] = true

		out = append(out, contracts.Candidate{
			Source:       s.name,
			URL:          link,
			Name:         anchorName(a, abs),
			DiscoveredAt: now,
		})
		return len(out) < MaxHTMLItems
	})

	return out
}

// anchorName prefers visible text, then title, then the last path segment
func anchorName(a *goquery.Selection, u *url.URL) string {
	if text := strings.Join(strings.Fields(a.Text()), " "); text != "" {
		return text
	}
	if title, ok := a.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	return strings.ReplaceAll(segs[len(segs)-1], "-", " ")
}
