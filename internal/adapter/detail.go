package adapter

import (
	"context"
	"encoding/json"

	"github.com/novelforge/novelcore/internal/cache"
	"github.com/novelforge/novelcore/internal/domain"
	"github.com/novelforge/novelcore/internal/selector"
)

// Detail fetches and parses a novel's detail page at detailURL.
func (a *Adapter) Detail(ctx context.Context, detailURL string) (*domain.NovelDetail, error) {
	key := cache.BuildKey(cache.KindDetail, a.rule.ID, detailURL)
	raw, hit, err := a.cache.GetOrLoad(ctx, key, a.opts.TTLs.Detail, func(ctx context.Context) ([]byte, error) {
		detail, loadErr := a.detail(ctx, detailURL)
		if loadErr != nil {
			return nil, loadErr
		}
		return json.Marshal(detail)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		a.stats.recordCacheHit()
	}

	var detail domain.NovelDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, domain.NewError(domain.KindInternal, "decoding cached novel detail", err)
	}
	return &detail, nil
}

func (a *Adapter) detail(ctx context.Context, detailURL string) (*domain.NovelDetail, error) {
	doc, err := a.fetchHTML(ctx, "GET", detailURL, "")
	if err != nil {
		return nil, err
	}

	br := a.rule.Book
	root := doc.Selection
	detail := &domain.NovelDetail{
		DetailURL: detailURL,
		Title:     selector.Eval(root, br.TitleSelector),
		Author:    selector.Eval(root, br.AuthorSelector),
		Intro:     selector.Eval(root, br.IntroSelector),
		Category:  selector.Eval(root, br.CategorySelector),
		Status:    selector.Eval(root, br.StatusSelector),
	}
	if cover := selector.Eval(root, br.CoverSelector); cover != "" {
		detail.Cover = selector.Absolutize(a.rule.BaseURL, cover)
	}
	if detail.Title == "" {
		return nil, domain.NewError(domain.KindParse, "detail page has no title", domain.ErrNotFound)
	}
	return detail, nil
}
