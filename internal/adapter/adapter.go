// Package adapter binds one rule.Rule to the HTTP Client Pool, Selector
// Engine, and Cache Layer, exposing Search/Detail/TOC/Chapter at the
// source-specific semantic level: parsed search hits, book metadata, a
// table of contents, and chapter bodies.
package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/novelforge/novelcore/internal/cache"
	"github.com/novelforge/novelcore/internal/domain"
	"github.com/novelforge/novelcore/internal/rule"
	"github.com/novelforge/novelcore/internal/utils"
)

// TTLs bundles the per-kind cache lifetimes the adapter consults. Carried
// as a value rather than read from a global so multiple Adapters in tests
// can run with different cache policies.
type TTLs struct {
	Search  time.Duration
	Detail  time.Duration
	TOC     time.Duration
	Chapter time.Duration
}

// Options configures an Adapter beyond what the Rule itself carries.
type Options struct {
	TTLs             TTLs
	MinChapterLength int
	MaxTOCPages      int
}

// Stats are the per-source counters an Adapter exclusively
// owns. All fields are updated with atomic ops so concurrent Search/TOC/
// Chapter calls from the Aggregator and Download Orchestrator never race.
type Stats struct {
	Requests  int64
	CacheHits int64
	Failures  int64
}

func (s *Stats) recordRequest()  { atomic.AddInt64(&s.Requests, 1) }
func (s *Stats) recordCacheHit() { atomic.AddInt64(&s.CacheHits, 1) }
func (s *Stats) recordFailure()  { atomic.AddInt64(&s.Failures, 1) }

// Snapshot returns a point-in-time copy of the counters.
func (s *Stats) Snapshot() Stats {
	return Stats{
		Requests:  atomic.LoadInt64(&s.Requests),
		CacheHits: atomic.LoadInt64(&s.CacheHits),
		Failures:  atomic.LoadInt64(&s.Failures),
	}
}

// Adapter is the runtime binding of one Rule to fetch/selector/cache
// capabilities.
type Adapter struct {
	rule    *rule.Rule
	fetcher domain.Fetcher
	cache   *cache.Store
	opts    Options
	log     *utils.Logger
	stats   *Stats
}

// New constructs an Adapter for one rule.
func New(r *rule.Rule, fetcher domain.Fetcher, store *cache.Store, opts Options, log *utils.Logger) *Adapter {
	if opts.MaxTOCPages <= 0 {
		opts.MaxTOCPages = rule.MaxTOCPagesDefault
	}
	return &Adapter{
		rule:    r,
		fetcher: fetcher,
		cache:   store,
		opts:    opts,
		log:     log.WithSource(r.ID, r.Name),
		stats:   &Stats{},
	}
}

// Rule returns the bound rule, read-only.
func (a *Adapter) Rule() *rule.Rule { return a.rule }

// Stats returns a snapshot of this adapter's counters.
func (a *Adapter) Stats() Stats { return a.stats.Snapshot() }

// sameSite reports whether target resolves to the same base domain as
// this adapter's rule, ignoring subdomains (docs.example.com and
// www.example.com both match example.com). Search result links and TOC
// pagination links that resolve off-site are dropped rather than
// followed — a selector matching a stray ad or syndication link should
// not send the Download Orchestrator to a different host.
func (a *Adapter) sameSite(target string) bool {
	return target != "" && utils.IsSameBaseDomain(target, a.rule.BaseURL)
}

// fetchHTML performs a GET (or the rule's configured POST) against
// targetURL/body and parses the response into a goquery document rooted
// at the response body, recording a request/failure on the shared stats.
func (a *Adapter) fetchHTML(ctx context.Context, method, targetURL, body string) (*goquery.Document, error) {
	a.stats.recordRequest()

	var resp *domain.Response
	var err error
	if method == "POST" {
		resp, err = a.fetcher.Post(ctx, targetURL, body)
	} else {
		resp, err = a.fetcher.Get(ctx, targetURL)
	}
	if err != nil {
		a.stats.recordFailure()
		a.log.WithURL(targetURL).WithStrategy(method).Warn().Err(err).Msg("fetch failed")
		return nil, classifyFetchErr(targetURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		a.stats.recordFailure()
		return nil, domain.NewError(domain.KindParse, fmt.Sprintf("parsing HTML from %s", targetURL), err)
	}
	return doc, nil
}

func classifyFetchErr(targetURL string, err error) error {
	var fe *domain.FetchError
	if errors.As(err, &fe) && (fe.StatusCode == 403 || fe.StatusCode == 429 || (fe.StatusCode >= 520 && fe.StatusCode <= 530)) {
		return domain.NewError(domain.KindSourceBlocked, fmt.Sprintf("source blocked for %s", targetURL), err)
	}
	return domain.NewError(domain.KindNetwork, fmt.Sprintf("fetching %s", targetURL), err)
}
