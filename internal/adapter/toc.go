package adapter

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/novelforge/novelcore/internal/cache"
	"github.com/novelforge/novelcore/internal/domain"
	"github.com/novelforge/novelcore/internal/rule"
	"github.com/novelforge/novelcore/internal/selector"
	"github.com/novelforge/novelcore/internal/toc"
)

// TOC fetches and paginates a novel's table of contents at detailURL,
// returning the raw, un-normalized entries. Normalization (dedup, noise
// filtering, Order assignment) is the caller's responsibility via
// internal/toc.Normalize.
func (a *Adapter) TOC(ctx context.Context, detailURL string) ([]toc.RawEntry, error) {
	key := cache.BuildKey(cache.KindTOC, a.rule.ID, detailURL)
	raw, hit, err := a.cache.GetOrLoad(ctx, key, a.opts.TTLs.TOC, func(ctx context.Context) ([]byte, error) {
		entries, loadErr := a.toc(ctx, detailURL)
		if loadErr != nil {
			return nil, loadErr
		}
		return json.Marshal(entries)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		a.stats.recordCacheHit()
	}

	var entries []toc.RawEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, domain.NewError(domain.KindInternal, "decoding cached table of contents", err)
	}
	return entries, nil
}

func (a *Adapter) toc(ctx context.Context, detailURL string) ([]toc.RawEntry, error) {
	tr := a.rule.TOC

	var transform *regexp.Regexp
	if tr.HasURLTransform() {
		var compileErr error
		transform, compileErr = regexp.Compile(tr.URLTransformFrom)
		if compileErr != nil {
			return nil, domain.NewError(domain.KindInternal, "compiling TOC url transform", compileErr)
		}
	}

	maxPages := a.opts.MaxTOCPages
	if maxPages <= 0 {
		maxPages = 50
	}

	var entries []toc.RawEntry
	pageURL := detailURL
	for page := 0; page < maxPages; page++ {
		doc, err := a.fetchHTML(ctx, "GET", pageURL, "")
		if err != nil {
			return nil, err
		}

		nodes := selector.EvalNodes(doc.Selection, tr.ListSelector)
		nodes.Each(func(_ int, node *goquery.Selection) {
			entries = append(entries, a.extractTOCEntry(node, tr, transform))
		})

		if !tr.HasPages || tr.NextPageSelector == "" {
			break
		}
		next := selector.Eval(doc.Selection, tr.NextPageSelector)
		if next == "" {
			break
		}
		next = selector.Absolutize(a.rule.BaseURL, next)
		if next == pageURL || !a.sameSite(next) {
			break
		}
		pageURL = next
	}

	if len(entries) == 0 {
		return nil, domain.NewError(domain.KindParse, "table of contents has no entries", domain.ErrTOCEmpty)
	}
	return entries, nil
}

func (a *Adapter) extractTOCEntry(node *goquery.Selection, tr rule.TOCRule, transform *regexp.Regexp) toc.RawEntry {
	title := selector.Eval(node, tr.TitleExtractor)

	var url string
	if tr.URLExtractor == "href" {
		url = selector.Eval(node, "@href")
	} else {
		url = selector.Eval(node, tr.URLExtractor)
	}
	url = selector.Absolutize(a.rule.BaseURL, url)

	if transform != nil && url != "" {
		url = transform.ReplaceAllString(url, tr.URLTransformTo)
	}
	if !a.sameSite(url) {
		url = ""
	}

	return toc.RawEntry{Title: title, URL: url}
}
