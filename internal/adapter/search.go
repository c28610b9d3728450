package adapter

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/novelforge/novelcore/internal/cache"
	"github.com/novelforge/novelcore/internal/domain"
	"github.com/novelforge/novelcore/internal/selector"
)

// Search queries this source for keyword and returns its raw hits, cache
// lookups and population included. Results are not scored or deduped —
// that is the Aggregator's job.
func (a *Adapter) Search(ctx context.Context, keyword string) ([]domain.NovelHit, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, domain.ErrEmptyKeyword
	}

	key := cache.BuildKey(cache.KindSearch, a.rule.ID, keyword)
	raw, hit, err := a.cache.GetOrLoad(ctx, key, a.opts.TTLs.Search, func(ctx context.Context) ([]byte, error) {
		hits, loadErr := a.search(ctx, keyword)
		if loadErr != nil {
			return nil, loadErr
		}
		return json.Marshal(hits)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		a.stats.recordCacheHit()
	}

	var hits []domain.NovelHit
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, domain.NewError(domain.KindInternal, "decoding cached search hits", err)
	}
	return hits, nil
}

func (a *Adapter) search(ctx context.Context, keyword string) ([]domain.NovelHit, error) {
	sr := a.rule.Search
	encoded := encodeKeyword(keyword, a.rule.Encoding)
	targetURL := strings.ReplaceAll(sr.URLTemplate, "{keyword}", encoded)

	var doc *goquery.Document
	var err error
	if strings.EqualFold(sr.Method, "POST") {
		body := strings.ReplaceAll(sr.BodyTemplate, "{keyword}", encoded)
		doc, err = a.fetchHTML(ctx, "POST", targetURL, body)
	} else {
		doc, err = a.fetchHTML(ctx, "GET", targetURL, "")
	}
	if err != nil {
		return nil, err
	}

	nodes := selector.EvalNodes(doc.Selection, sr.ListSelector)
	hits := make([]domain.NovelHit, 0, nodes.Length())
	nodes.Each(func(_ int, node *goquery.Selection) {
		link := selector.Eval(node, sr.LinkSelector)
		title := selector.Eval(node, sr.TitleSelector)
		if link == "" || title == "" {
			return
		}
		detailURL := selector.Absolutize(a.rule.BaseURL, link)
		if !a.sameSite(detailURL) {
			return
		}
		hits = append(hits, domain.NovelHit{
			SourceID:      a.rule.ID,
			SourceName:    a.rule.Name,
			DetailURL:     detailURL,
			Title:         title,
			Author:        selector.Eval(node, sr.AuthorSelector),
			LatestChapter: selector.Eval(node, sr.LatestSelector),
		})
	})
	return hits, nil
}

// encodeKeyword percent-encodes keyword for embedding in a URL template or
// form body. A rule whose source expects a non-UTF-8 charset (declared via
// Rule.Encoding, e.g. "GBK") first transcodes the keyword to that charset's
// bytes, so the percent-encoded result is what the source actually expects
// rather than raw UTF-8 bytes it may reject.
func encodeKeyword(keyword, enc string) string {
	if enc != "" && !strings.EqualFold(enc, "UTF-8") {
		if e, err := htmlindex.Get(enc); err == nil {
			if converted, err := e.NewEncoder().String(keyword); err == nil {
				return url.QueryEscape(converted)
			}
		}
	}
	return url.QueryEscape(keyword)
}
